// Package prize turns the upstream prize markup into a currency code and an
// integer amount.
package prize

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Table maps a symbol token ("$", "CAD") to a currency code.
type Table map[string]string

// Token is one tokenized prize: the matched symbol, its code, and the amount.
type Token struct {
	Symbol string
	Code   string
	Digits string
	Amount int64
}

// Text returns the visible text of a prize field, which may be markup such as
// `$<span data-currency-value>20,000</span>`.
func Text(markup string) string {
	markup = strings.TrimSpace(markup)
	if markup == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.Join(strings.Fields(markup), "")
	}
	return strings.TrimSpace(doc.Text())
}

// Tokenize matches the longest table symbol at the start of text. When no
// symbol matches, ok is false and Symbol holds the first rune for logging.
// A remainder that is not purely digits after removing separators is amount 0.
func (t Table) Tokenize(text string) (Token, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Token{}, false
	}

	symbol := t.longestPrefix(text)
	if symbol == "" {
		r, _ := utf8.DecodeRuneInString(text)
		return Token{Symbol: string(r)}, false
	}

	digits := strings.TrimSpace(text[len(symbol):])
	digits = strings.ReplaceAll(digits, ",", "")
	token := Token{Symbol: symbol, Code: t[symbol], Digits: digits}
	if isDigits(digits) {
		if amount, err := strconv.ParseInt(digits, 10, 64); err == nil {
			token.Amount = amount
		}
	}
	return token, true
}

func (t Table) longestPrefix(text string) string {
	symbols := make([]string, 0, len(t))
	for symbol := range t {
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	sort.Slice(symbols, func(i, j int) bool {
		if len(symbols[i]) != len(symbols[j]) {
			return len(symbols[i]) > len(symbols[j])
		}
		return symbols[i] < symbols[j]
	})
	for _, symbol := range symbols {
		if strings.HasPrefix(text, symbol) {
			return symbol
		}
	}
	return ""
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var printer = message.NewPrinter(language.English)

// Format renders code and amount with thousands separators, e.g. USD5,000.
func Format(code string, amount int64, sep string) string {
	return code + sep + printer.Sprintf("%d", amount)
}
