package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jimezsa/hackcli/internal/metrics"
)

type GeocodeCmd struct {
	Location string `arg:"" help:"Free-text location, e.g. \"Vancouver, BC\"."`
	Proxies  string `help:"Comma-separated proxy URLs." env:"HACKCLI_PROXIES"`
}

type geocodeAnswer struct {
	Location string `json:"location"`
	InRegion bool   `json:"in_region"`
	Cached   bool   `json:"cached"`
}

// Run answers through the same memoized path the pipeline uses, so the answer
// is persisted to the locations partition.
func (g *GeocodeCmd) Run(ctx *Context) error {
	location := strings.TrimSpace(g.Location)
	if location == "" {
		return fmt.Errorf("location is required")
	}
	if err := ctx.Config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	runCtx := context.Background()
	client, err := newHTTPClient(ctx, g.Proxies)
	if err != nil {
		return err
	}
	m := metrics.New()
	resolver, err := newResolver(ctx, client, m)
	if err != nil {
		return err
	}
	store, err := openStore(runCtx, ctx, m)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load(runCtx)
	if err != nil {
		return err
	}
	_, cached := doc.Locations[location]
	answer := geocodeAnswer{
		Location: location,
		InRegion: resolver.InRegion(runCtx, doc.Locations, location),
		Cached:   cached,
	}
	if !cached {
		if err := store.Save(runCtx, doc); err != nil {
			return err
		}
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	verdict := "out of region"
	if answer.InRegion {
		verdict = "in region"
	}
	source := "geocoded"
	if answer.Cached {
		source = "cached"
	}
	_, err = fmt.Fprintf(ctx.Out, "%s: %s (%s, %s)\n", location, verdict,
		regionLabel(ctx.Config.Geocode.Division, ctx.Config.Geocode.Country), source)
	return err
}

func regionLabel(division, country string) string {
	switch {
	case division == "":
		return country
	case country == "":
		return division
	default:
		return division + ", " + country
	}
}
