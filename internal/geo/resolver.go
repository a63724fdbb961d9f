package geo

import (
	"context"
	"strings"

	"github.com/jimezsa/hackcli/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	typeDivision = "administrative_area_level_1"
	typeCountry  = "country"
)

// Region is the target first-level division and ISO country code.
type Region struct {
	Division string
	Country  string
}

// Matches checks only the first result. A component the result lacks is not
// evaluated; an explicit mismatch fails.
func (r Region) Matches(results []Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, component := range results[0].AddressComponents {
		if hasType(component, typeDivision) && r.Division != "" &&
			!strings.EqualFold(strings.TrimSpace(component.LongName), r.Division) {
			return false
		}
		if hasType(component, typeCountry) && r.Country != "" &&
			!strings.EqualFold(strings.TrimSpace(component.ShortName), r.Country) {
			return false
		}
	}
	return true
}

func hasType(component Component, want string) bool {
	for _, t := range component.Types {
		if t == want {
			return true
		}
	}
	return false
}

// Resolver memoizes region checks in the caller's locations partition. It
// never writes to the cache store itself: new answers are persisted when the
// owning pipeline run saves the document.
type Resolver struct {
	geocoder Geocoder
	region   Region
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewResolver(geocoder Geocoder, region Region, logger zerolog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{geocoder: geocoder, region: region, logger: logger, metrics: m}
}

// InRegion returns the cached answer for address when present. Otherwise it
// geocodes, records the answer in locations, and returns it. Lookup failures
// and empty results are recorded as false unless ctx was cancelled.
func (r *Resolver) InRegion(ctx context.Context, locations map[string]bool, address string) bool {
	if inRegion, ok := locations[address]; ok {
		r.metrics.Geocode("cache", inRegion)
		return inRegion
	}

	results, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		r.metrics.GeocodeError()
		r.logger.Warn().Err(err).Str("location", address).Msg("geocode failed")
		if ctx.Err() == nil {
			locations[address] = false
		}
		return false
	}

	inRegion := r.region.Matches(results)
	if len(results) == 0 {
		r.logger.Debug().Str("location", address).Msg("geocode returned no results")
	}
	r.metrics.Geocode("api", inRegion)
	locations[address] = inRegion
	return inRegion
}
