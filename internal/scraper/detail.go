package scraper

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/hackcli/internal/metrics"
	"github.com/jimezsa/hackcli/internal/models"
	"github.com/jimezsa/hackcli/internal/network"
	"github.com/rs/zerolog"
)

const eligibilitySelector = "#eligibility-list li"

// Details fetches hackathon detail pages and extracts eligibility.
type Details struct {
	client   network.Doer
	logger   zerolog.Logger
	patterns []*regexp.Regexp
	metrics  *metrics.Metrics
}

func NewDetails(client network.Doer, logger zerolog.Logger, regionOnlyPhrases []string, m *metrics.Metrics) *Details {
	patterns := make([]*regexp.Regexp, 0, len(regionOnlyPhrases))
	for _, phrase := range regionOnlyPhrases {
		if pattern := PhrasePattern(phrase); pattern != nil {
			patterns = append(patterns, pattern)
		}
	}
	return &Details{
		client:   client,
		logger:   logger,
		patterns: patterns,
		metrics:  m,
	}
}

type detailResult struct {
	url         string
	eligibility models.Eligibility
}

// Enrich fetches every candidate's detail page concurrently, one goroutine per
// distinct URL, and waits for all of them. A failed fetch yields an empty
// Eligibility for that URL.
func (d *Details) Enrich(ctx context.Context, candidates []models.Hackathon) map[string]models.Eligibility {
	urls := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		if seen[candidate.URL] {
			continue
		}
		seen[candidate.URL] = true
		urls = append(urls, candidate.URL)
	}

	results := make(chan detailResult, len(urls))
	var wg sync.WaitGroup

	for _, target := range urls {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			results <- detailResult{url: target, eligibility: d.fetch(ctx, target)}
		}(target)
	}

	wg.Wait()
	close(results)

	out := make(map[string]models.Eligibility, len(urls))
	for result := range results {
		out[result.url] = result.eligibility
	}
	return out
}

func (d *Details) fetch(ctx context.Context, target string) models.Eligibility {
	doc, err := fetchDocument(ctx, d.client, target, nil)
	if err != nil {
		d.metrics.Detail(false)
		d.logger.Warn().Err(err).Str("url", target).Msg("detail fetch failed")
		return models.Eligibility{}
	}
	d.metrics.Detail(true)
	return parseEligibility(doc, d.patterns)
}

func parseEligibility(doc *goquery.Document, patterns []*regexp.Regexp) models.Eligibility {
	eligibility := models.Eligibility{Fetched: true}
	doc.Find(eligibilitySelector).Each(func(_ int, s *goquery.Selection) {
		item := strings.ToLower(cleanText(s.Text()))
		if item == "" {
			return
		}
		eligibility.Items = append(eligibility.Items, item)
		for _, pattern := range patterns {
			if pattern.MatchString(item) {
				eligibility.RegionOnly = true
			}
		}
	})
	return eligibility
}

// PhrasePattern matches phrase as whole words, case-insensitively, with any
// run of whitespace between words. An empty phrase yields nil.
func PhrasePattern(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return nil
	}
	for i, word := range words {
		words[i] = regexp.QuoteMeta(word)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
}
