package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/hackcli/internal/models"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

// ParseFormat falls back to the table format for unknown values.
func ParseFormat(value string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatCSV:
		return FormatCSV
	case FormatTSV:
		return FormatTSV
	case FormatJSON:
		return FormatJSON
	case FormatMarkdown, "markdown":
		return FormatMarkdown
	default:
		return FormatTable
	}
}

func WriteHackathons(w io.Writer, hackathons []models.Hackathon, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, hackathons)
	case FormatCSV:
		return writeCSV(w, hackathons, ',')
	case FormatTSV:
		return writeCSV(w, hackathons, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, hackathons)
	default:
		return writeTable(w, hackathons, opts)
	}
}

func writeJSON(w io.Writer, hackathons []models.Hackathon) error {
	if hackathons == nil {
		hackathons = []models.Hackathon{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(hackathons)
}

func writeCSV(w io.Writer, hackathons []models.Hackathon, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, h := range hackathons {
		if err := writer.Write([]string{h.Name, h.Prize, h.Location, h.Date, h.URL}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var columns = []string{"name", "prize", "location", "date", "url"}

func writeTable(w io.Writer, hackathons []models.Hackathon, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	output := termenv.NewOutput(w)
	for _, h := range hackathons {
		fmt.Fprintln(tw, strings.Join([]string{
			orDash(h.Name),
			orDash(h.Prize),
			orDash(h.Location),
			orDash(h.Date),
			displayURL(h.URL, output, opts),
		}, "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, hackathons []models.Hackathon) error {
	if len(hackathons) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, h := range hackathons {
		urlLine := "  URL: -"
		if u := strings.TrimSpace(h.URL); u != "" {
			urlLine = fmt.Sprintf("  URL: [Open hackathon](<%s>)", u)
		}
		lines := []string{
			fmt.Sprintf("- **%s** (%s)", orDash(h.Name), orDash(h.Prize)),
			fmt.Sprintf("  Location: %s", orDash(h.Location)),
			fmt.Sprintf("  Dates: %s", orDash(h.Date)),
			urlLine,
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteCounts prints label/count pairs sorted by label, e.g. rejection reasons.
func WriteCounts(w io.Writer, counts map[string]int) error {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, label := range labels {
		fmt.Fprintf(tw, "%s\t%d\n", label, counts[label])
	}
	return tw.Flush()
}

func orDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

func displayURL(raw string, output *termenv.Output, opts WriteOptions) string {
	const linkColor = "#87CEEB"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	label := raw
	if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
		label = shortURLLabel(raw)
	}
	if opts.ColorEnabled {
		label = output.String(label).Foreground(output.Color(linkColor)).String()
	}
	if opts.Hyperlinks {
		label = hyperlink(raw, label)
	}
	return label
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := raw
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + strings.TrimSuffix(parsed.Path, "/")
		}
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
