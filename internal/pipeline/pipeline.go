// Package pipeline turns raw listings into newly accepted hackathons, using
// and updating the persisted CacheDocument.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jimezsa/hackcli/internal/metrics"
	"github.com/jimezsa/hackcli/internal/models"
	"github.com/jimezsa/hackcli/internal/prize"
	"github.com/jimezsa/hackcli/internal/seen"
	"github.com/rs/zerolog"
)

type Fetcher interface {
	FetchPages(ctx context.Context, query models.ListingQuery) []models.Listing
}

type Enricher interface {
	Enrich(ctx context.Context, candidates []models.Hackathon) map[string]models.Eligibility
}

// RegionChecker answers region membership and records answers in locations.
type RegionChecker interface {
	InRegion(ctx context.Context, locations map[string]bool, address string) bool
}

type DocumentStore interface {
	Load(ctx context.Context) (*models.CacheDocument, error)
	Save(ctx context.Context, doc *models.CacheDocument) error
}

type Deps struct {
	Fetcher  Fetcher
	Enricher Enricher
	Region   RegionChecker
	Store    DocumentStore
	Query    models.ListingQuery
	Rules    Rules
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// Pipeline runs are serialized; each run loads the document once and saves
// it once.
type Pipeline struct {
	deps Deps
	mu   sync.Mutex
}

func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

type Outcome struct {
	URL      string
	Name     string
	Accepted bool
	Reason   Reason
}

type Result struct {
	RunID    string
	Fetched  int
	Accepted []models.Hackathon
	Outcomes []Outcome
	// Persisted is false when the cache could not be loaded or saved.
	Persisted bool
}

// Rejected counts rejections by reason.
func (r Result) Rejected() map[Reason]int {
	counts := map[Reason]int{}
	for _, outcome := range r.Outcomes {
		if !outcome.Accepted {
			counts[outcome.Reason]++
		}
	}
	return counts
}

// Run fetches the configured pages and returns only the hackathons accepted
// by this run. When the cache cannot be loaded the run still filters, against
// an empty document, but does not save over the unreachable history.
func (p *Pipeline) Run(ctx context.Context) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	started := time.Now()
	runID := uuid.NewString()
	logger := p.deps.Logger.With().Str("run_id", runID).Logger()

	doc, err := p.deps.Store.Load(ctx)
	detached := err != nil
	if detached {
		logger.Error().Err(err).Msg("cache unavailable, running without history")
		doc = models.NewCacheDocument()
	}
	doc.Ensure()

	listings := p.deps.Fetcher.FetchPages(ctx, p.deps.Query)
	result := p.process(ctx, logger, doc, listings)
	result.RunID = runID

	if !detached {
		if err := p.deps.Store.Save(ctx, doc); err != nil {
			logger.Error().Err(err).Msg("cache save failed")
		} else {
			result.Persisted = true
		}
	}

	p.deps.Metrics.Run(started, len(result.Accepted))
	logger.Info().
		Int("fetched", result.Fetched).
		Int("accepted", len(result.Accepted)).
		Int("rejected", len(result.Outcomes)-len(result.Accepted)).
		Dur("took", time.Since(started)).
		Msg("run finished")
	return result
}

// Process filters listings against doc and mutates doc in place: accepted
// hackathons and new geocode answers are added. It never saves.
func (p *Pipeline) Process(ctx context.Context, doc *models.CacheDocument, listings []models.Listing) Result {
	doc.Ensure()
	return p.process(ctx, p.deps.Logger, doc, listings)
}

func (p *Pipeline) process(ctx context.Context, logger zerolog.Logger, doc *models.CacheDocument, listings []models.Listing) Result {
	result := Result{Fetched: len(listings), Accepted: []models.Hackathon{}}
	rules := p.deps.Rules
	index := seen.NewIndex(doc.Hackathons)

	reject := func(listing models.Listing, reason Reason) {
		p.deps.Metrics.Listing(false, string(reason))
		logger.Debug().Str("name", listing.Name()).Str("url", listing.URL).Str("reason", string(reason)).Msg("listing rejected")
		result.Outcomes = append(result.Outcomes, Outcome{URL: listing.URL, Name: listing.Name(), Reason: reason})
	}

	var (
		candidates []models.Hackathon
		sources    []models.Listing
	)
	for _, listing := range listings {
		switch {
		case seen.Key(listing.URL) == "":
			reject(listing, ReasonInvalidURL)
			continue
		case index.Seen(listing.URL):
			reject(listing, ReasonAlreadyProcessed)
			continue
		case !index.Mark(listing.URL):
			reject(listing, ReasonDuplicate)
			continue
		}

		text := prize.Text(listing.PrizeAmount)
		if text == "" {
			reject(listing, ReasonNoPrize)
			continue
		}
		token, ok := rules.Currencies.Tokenize(text)
		if !ok {
			reject(listing, ReasonCurrency)
			continue
		}
		if token.Amount <= 0 {
			reject(listing, ReasonZeroPrize)
			continue
		}

		location := listing.Location()
		if !rules.isOnline(location) && !p.deps.Region.InRegion(ctx, doc.Locations, location) {
			reject(listing, ReasonOutOfRegion)
			continue
		}

		candidates = append(candidates, models.Hackathon{
			Name:     listing.Name(),
			URL:      listing.URL,
			Location: location,
			Prize:    prize.Format(token.Code, token.Amount, rules.PrizeSeparator),
			Date:     listing.Dates(),
		})
		sources = append(sources, listing)
	}

	if len(candidates) == 0 {
		return result
	}

	details := p.deps.Enricher.Enrich(ctx, candidates)
	for i, candidate := range candidates {
		eligibility := details[candidate.URL]
		if !eligibility.Fetched && ctx.Err() != nil {
			reject(sources[i], ReasonCancelled)
			continue
		}
		if eligibility.RegionOnly {
			reject(sources[i], ReasonRegionRestricted)
			continue
		}
		if phrase, excluded := rules.excludedAudience(eligibility); excluded {
			logger.Debug().Str("url", candidate.URL).Str("phrase", phrase).Msg("excluded audience")
			reject(sources[i], ReasonAgeRestricted)
			continue
		}

		doc.Hackathons[candidate.URL] = candidate
		result.Accepted = append(result.Accepted, candidate)
		result.Outcomes = append(result.Outcomes, Outcome{URL: candidate.URL, Name: candidate.Name, Accepted: true})
		p.deps.Metrics.Listing(true, "")
	}
	return result
}
