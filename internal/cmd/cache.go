package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/hackcli/internal/seen"
)

type CacheCmd struct {
	Show   CacheShowCmd   `cmd:"" help:"Print cache partition sizes."`
	Export CacheExportCmd `cmd:"" help:"Export cached hackathons."`
	Import CacheImportCmd `cmd:"" help:"Merge hackathons from a JSON file into the cache."`
	Clear  CacheClearCmd  `cmd:"" help:"Empty both cache partitions."`
}

type CacheShowCmd struct {
	Locations bool `help:"List cached location answers."`
}

type CacheExportCmd struct {
	OutputOptions
}

type CacheImportCmd struct {
	Input string `arg:"" help:"Path to a JSON array of hackathons."`
	Stats bool   `help:"Print merge stats."`
}

type CacheClearCmd struct {
	Yes bool `help:"Confirm clearing the cache."`
}

type cacheSummary struct {
	Backend    string          `json:"backend"`
	Hackathons int             `json:"hackathons"`
	Locations  int             `json:"locations"`
	InRegion   int             `json:"in_region"`
	Answers    map[string]bool `json:"answers,omitempty"`
}

func (c *CacheShowCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	store, err := openStore(runCtx, ctx, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load(runCtx)
	if err != nil {
		return err
	}

	summary := cacheSummary{
		Backend:    backendLabel(ctx.Config.Cache.Backend),
		Hackathons: len(doc.Hackathons),
		Locations:  len(doc.Locations),
	}
	for _, inRegion := range doc.Locations {
		if inRegion {
			summary.InRegion++
		}
	}
	if c.Locations {
		summary.Answers = doc.Locations
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "backend\t%s\n", summary.Backend)
	fmt.Fprintf(tw, "hackathons\t%d\n", summary.Hackathons)
	fmt.Fprintf(tw, "locations\t%d (%d in region)\n", summary.Locations, summary.InRegion)
	if c.Locations {
		names := make([]string, 0, len(doc.Locations))
		for name := range doc.Locations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(tw, "  %s\t%t\n", name, doc.Locations[name])
		}
	}
	return tw.Flush()
}

func (c *CacheExportCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	store, err := openStore(runCtx, ctx, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load(runCtx)
	if err != nil {
		return err
	}
	return writeHackathons(ctx, c.OutputOptions, seen.Sorted(doc.Hackathons))
}

func (c *CacheImportCmd) Run(ctx *Context) error {
	input, err := seen.ReadHackathons(c.Input)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Input, err)
	}

	runCtx := context.Background()
	store, err := openStore(runCtx, ctx, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load(runCtx)
	if err != nil {
		return err
	}
	stats := seen.Merge(doc.Hackathons, input)
	if err := store.Save(runCtx, doc); err != nil {
		return err
	}

	if c.Stats {
		_, err := fmt.Fprintf(ctx.Out, "total_cached=%d total_input=%d invalid_skipped=%d added=%d total_out=%d\n",
			stats.TotalSeen, stats.TotalInput, stats.Invalid, stats.Added, stats.TotalOut)
		return err
	}
	if ctx.UI != nil {
		ctx.UI.Successf("Imported %d hackathons", stats.Added)
	}
	return nil
}

func (c *CacheClearCmd) Run(ctx *Context) error {
	if !c.Yes {
		return fmt.Errorf("refusing to clear the cache without --yes")
	}

	runCtx := context.Background()
	store, err := openStore(runCtx, ctx, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(runCtx); err != nil {
		return err
	}
	if ctx.UI != nil {
		ctx.UI.Successf("Cache cleared (%s)", backendLabel(ctx.Config.Cache.Backend))
	}
	return nil
}

func backendLabel(backend string) string {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		return "file"
	}
	return backend
}
