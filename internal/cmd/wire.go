package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jimezsa/hackcli/internal/cache"
	"github.com/jimezsa/hackcli/internal/config"
	"github.com/jimezsa/hackcli/internal/geo"
	"github.com/jimezsa/hackcli/internal/metrics"
	"github.com/jimezsa/hackcli/internal/models"
	"github.com/jimezsa/hackcli/internal/network"
	"github.com/jimezsa/hackcli/internal/pipeline"
	"github.com/jimezsa/hackcli/internal/scraper"
)

// app holds everything a pipeline-backed command needs.
type app struct {
	metrics  *metrics.Metrics
	store    *cache.Store
	resolver *geo.Resolver
	pipeline *pipeline.Pipeline
}

func (a *app) Close() error {
	return a.store.Close()
}

func newHTTPClient(ctx *Context, proxiesFlag string) (network.Doer, error) {
	if ctx.HTTP != nil {
		return ctx.HTTP, nil
	}
	proxies, err := config.LoadProxies(proxiesFlag)
	if err != nil {
		return nil, err
	}
	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, 10*time.Minute)
		if err != nil {
			return nil, err
		}
		ctx.Logger.Debug().Int("proxies", rotator.Len()).Int("available", rotator.Available()).Msg("proxy rotation enabled")
	}
	client, err := network.NewClient(rotator, time.Duration(ctx.Config.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func openStore(runCtx context.Context, ctx *Context, m *metrics.Metrics) (*cache.Store, error) {
	return cache.Open(runCtx, ctx.Config.Cache, ctx.ConfigDir, ctx.Logger.With().Str("component", "cache").Logger(), m)
}

func newResolver(ctx *Context, client network.Doer, m *metrics.Metrics) (*geo.Resolver, error) {
	cfg := ctx.Config.Geocode
	google, err := geo.NewGoogle(client, cfg.URL, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	region := geo.Region{Division: cfg.Division, Country: cfg.Country}
	return geo.NewResolver(google, region, ctx.Logger.With().Str("component", "geo").Logger(), m), nil
}

// buildApp validates the configuration first; a missing credential stops the
// command before anything is served or fetched.
func buildApp(runCtx context.Context, ctx *Context, proxiesFlag string) (*app, error) {
	cfg := ctx.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := newHTTPClient(ctx, proxiesFlag)
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	resolver, err := newResolver(ctx, client, m)
	if err != nil {
		return nil, err
	}
	store, err := openStore(runCtx, ctx, m)
	if err != nil {
		return nil, err
	}

	logger := ctx.Logger
	p := pipeline.New(pipeline.Deps{
		Fetcher:  scraper.NewListings(client, cfg.Listings.BaseURL, logger.With().Str("component", "listings").Logger()),
		Enricher: scraper.NewDetails(client, logger.With().Str("component", "details").Logger(), cfg.Filters.RegionOnlyPhrases, m),
		Region:   resolver,
		Store:    store,
		Query: models.ListingQuery{
			OrderBy:   cfg.Listings.OrderBy,
			Statuses:  cfg.Listings.Statuses,
			FirstPage: cfg.Listings.FirstPage,
			LastPage:  cfg.Listings.LastPage,
		},
		Rules:   pipeline.RulesFromConfig(cfg.Filters),
		Logger:  logger.With().Str("component", "pipeline").Logger(),
		Metrics: m,
	})

	return &app{metrics: m, store: store, resolver: resolver, pipeline: p}, nil
}
