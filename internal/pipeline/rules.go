package pipeline

import (
	"strings"

	"github.com/jimezsa/hackcli/internal/config"
	"github.com/jimezsa/hackcli/internal/models"
	"github.com/jimezsa/hackcli/internal/prize"
)

type Reason string

const (
	ReasonAlreadyProcessed Reason = "already-processed"
	ReasonInvalidURL       Reason = "invalid-url"
	ReasonDuplicate        Reason = "duplicate"
	ReasonNoPrize          Reason = "no-prize-listed"
	ReasonCurrency         Reason = "excluded-currency"
	ReasonZeroPrize        Reason = "zero-prize"
	ReasonOutOfRegion      Reason = "out-of-region"
	ReasonRegionRestricted Reason = "region-restricted"
	ReasonAgeRestricted    Reason = "age-restricted"

	// ReasonCancelled marks a candidate whose detail page was never read
	// because the run's context ended. It is not persisted.
	ReasonCancelled Reason = "cancelled"
)

// Rules holds the configurable parts of the filter chain. Region-only
// eligibility is detected by the enricher; ExcludedAudiences is checked here.
// The two rules are independent.
type Rules struct {
	Currencies        prize.Table
	PrizeSeparator    string
	OnlineKeyword     string
	ExcludedAudiences []string
}

func RulesFromConfig(cfg config.FilterConfig) Rules {
	currencies := prize.Table{}
	for symbol, code := range cfg.Currencies {
		currencies[symbol] = code
	}
	return Rules{
		Currencies:        currencies,
		PrizeSeparator:    cfg.PrizeSeparator,
		OnlineKeyword:     cfg.OnlineKeyword,
		ExcludedAudiences: cfg.ExcludedAudiences,
	}
}

func (r Rules) isOnline(location string) bool {
	keyword := strings.ToLower(strings.TrimSpace(r.OnlineKeyword))
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(location), keyword)
}

// excludedAudience returns the first configured phrase found in any item.
func (r Rules) excludedAudience(eligibility models.Eligibility) (string, bool) {
	for _, phrase := range r.ExcludedAudiences {
		phrase = normalize(phrase)
		if phrase == "" {
			continue
		}
		for _, item := range eligibility.Items {
			if strings.Contains(normalize(item), phrase) {
				return phrase, true
			}
		}
	}
	return "", false
}

func normalize(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
