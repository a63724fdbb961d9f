package cmd

import (
	"context"

	"github.com/jimezsa/hackcli/internal/export"
)

type FetchCmd struct {
	Pages   int    `help:"Fetch listing pages 1..N (overrides listings.last_page)."`
	Explain bool   `help:"Print rejection counts by reason to stderr."`
	Proxies string `help:"Comma-separated proxy URLs." env:"HACKCLI_PROXIES"`
	OutputOptions
}

func (f *FetchCmd) Run(ctx *Context) error {
	if f.Pages > 0 {
		ctx.Config.Listings.FirstPage = 1
		ctx.Config.Listings.LastPage = f.Pages
	}

	runCtx := context.Background()
	a, err := buildApp(runCtx, ctx, f.Proxies)
	if err != nil {
		return err
	}
	defer a.Close()

	stop := startIndicator(ctx, "Fetching")
	result := a.pipeline.Run(runCtx)
	if stop != nil {
		stop()
	}

	if err := writeHackathons(ctx, f.OutputOptions, result.Accepted); err != nil {
		return err
	}

	if f.Explain {
		counts := map[string]int{}
		for reason, n := range result.Rejected() {
			counts[string(reason)] = n
		}
		if err := export.WriteCounts(ctx.Err, counts); err != nil {
			return err
		}
	}
	if ctx.UI != nil {
		ctx.UI.Summary(result.Fetched, len(result.Accepted), len(result.Outcomes)-len(result.Accepted), result.Persisted)
	}
	return nil
}
