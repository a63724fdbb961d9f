package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jimezsa/hackcli/internal/models"
	"github.com/jimezsa/hackcli/internal/network"
	"github.com/rs/zerolog"
)

type listingsPage struct {
	Hackathons []models.Listing `json:"hackathons"`
}

// Listings pulls raw listing pages from the upstream listings API.
type Listings struct {
	client  network.Doer
	baseURL string
	logger  zerolog.Logger
}

func NewListings(client network.Doer, baseURL string, logger zerolog.Logger) *Listings {
	return &Listings{client: client, baseURL: baseURL, logger: logger}
}

// FetchPages walks the query's page range. A page that fails to fetch or
// decode is logged and skipped; the rest still count.
func (l *Listings) FetchPages(ctx context.Context, query models.ListingQuery) []models.Listing {
	var listings []models.Listing
	for _, page := range query.Pages() {
		target, err := buildListingsURL(l.baseURL, query, page)
		if err != nil {
			l.logger.Error().Err(err).Str("base_url", l.baseURL).Msg("invalid listings url")
			return listings
		}

		var decoded listingsPage
		if err := fetchJSON(ctx, l.client, target, &decoded); err != nil {
			l.logger.Warn().Err(err).Int("page", page).Msg("skipping listings page")
			continue
		}
		l.logger.Debug().Int("page", page).Int("count", len(decoded.Hackathons)).Msg("fetched listings page")
		listings = append(listings, decoded.Hackathons...)
	}
	return listings
}

func buildListingsURL(base string, query models.ListingQuery, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("listings url %q is not absolute", base)
	}

	values := u.Query()
	if query.OrderBy != "" {
		values.Set("order_by", query.OrderBy)
	}
	if len(query.Statuses) > 0 {
		values.Del("status[]")
		for _, status := range query.Statuses {
			values.Add("status[]", status)
		}
	}
	values.Set("page", strconv.Itoa(page))
	for key, override := range query.Overrides {
		values[key] = append([]string(nil), override...)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}
