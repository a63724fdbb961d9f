package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jimezsa/hackcli/internal/config"
	"github.com/jimezsa/hackcli/internal/export"
	"github.com/jimezsa/hackcli/internal/models"
	"github.com/jimezsa/hackcli/internal/network/networktest"
	"github.com/jimezsa/hackcli/internal/seen"
	"github.com/jimezsa/hackcli/internal/ui"
	"github.com/rs/zerolog"
)

const (
	testListingsURL = "https://devpost.test/api/hackathons"
	testGeocodeURL  = "https://geo.test/geocode/json"
)

const bcGeocode = `{"status":"OK","results":[{"address_components":[
 {"long_name":"British Columbia","short_name":"BC","types":["administrative_area_level_1"]},
 {"long_name":"Canada","short_name":"CA","types":["country"]}]}]}`

func testContext(t *testing.T, doer *networktest.Doer) (*Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Listings.BaseURL = testListingsURL
	cfg.Listings.LastPage = 1
	cfg.Geocode.URL = testGeocodeURL
	cfg.Geocode.APIKey = "test-key"
	cfg.Cache = config.CacheConfig{Backend: "file", TTLSeconds: 3600}

	var out, errOut bytes.Buffer
	return &Context{
		Out:       &out,
		Err:       &errOut,
		UI:        ui.New(&out, &errOut, ui.ColorNever, true),
		Config:    cfg,
		ConfigDir: t.TempDir(),
		Logger:    zerolog.Nop(),
		HTTP:      doer,
	}, &out, &errOut
}

func upstream() *networktest.Doer {
	return networktest.New().
		Handle(testListingsURL, networktest.Route{Body: `{"hackathons":[
 {"title":"BCHacks","url":"https://x/bchacks","displayed_location":{"location":"Vancouver, BC"},"prize_amount":"$<span>5,000</span>","submission_period_dates":"Feb 01 - 03, 2025"},
 {"title":"Zero","url":"https://x/zero","displayed_location":{"location":"Online"},"prize_amount":"$0"}]}`}).
		HandleFunc(testGeocodeURL, func(*url.URL) networktest.Route { return networktest.Route{Body: bcGeocode} }).
		Handle("https://x/bchacks", networktest.Route{Body: `<ul id="eligibility-list"><li>Open to all</li></ul>`})
}

func TestResolveFormat(t *testing.T) {
	cases := []struct {
		name string
		ctx  *Context
		opts OutputOptions
		want export.Format
	}{
		{"json flag", &Context{Out: io.Discard, JSONOutput: true}, OutputOptions{Format: "md"}, export.FormatJSON},
		{"plain flag", &Context{Out: io.Discard, PlainText: true}, OutputOptions{}, export.FormatTSV},
		{"explicit", &Context{Out: io.Discard}, OutputOptions{Format: "md"}, export.FormatMarkdown},
		{"file default", &Context{Out: io.Discard}, OutputOptions{Output: "out.csv"}, export.FormatCSV},
		{"pipe default", &Context{Out: io.Discard}, OutputOptions{}, export.FormatCSV},
	}
	for _, tc := range cases {
		if got := resolveFormat(tc.ctx, tc.opts); got != tc.want {
			t.Errorf("%s: resolveFormat() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFetchCommand(t *testing.T) {
	doer := upstream()
	ctx, out, errOut := testContext(t, doer)

	cmd := &FetchCmd{Explain: true, OutputOptions: OutputOptions{Format: "json"}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var got []models.Hackathon
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if len(got) != 1 || got[0].Prize != "USD5,000" || got[0].Location != "Vancouver, BC" {
		t.Fatalf("unexpected output: %+v", got)
	}
	if !strings.Contains(errOut.String(), "zero-prize") || !strings.Contains(errOut.String(), "fetched 2, accepted 1, rejected 1") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
	if _, err := os.Stat(filepath.Join(ctx.ConfigDir, config.CacheFileName)); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	out.Reset()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("second run should print no hackathons, got %q", out.String())
	}
}

func TestFetchCommandRequiresGeocodeKey(t *testing.T) {
	ctx, _, _ := testContext(t, upstream())
	ctx.Config.Geocode.APIKey = ""
	err := (&FetchCmd{}).Run(ctx)
	if !errors.Is(err, config.ErrMissingGeocodeKey) {
		t.Fatalf("Run() error = %v, want ErrMissingGeocodeKey", err)
	}
}

func TestGeocodeCommand(t *testing.T) {
	doer := upstream()
	ctx, out, _ := testContext(t, doer)

	if err := (&GeocodeCmd{Location: "Vancouver, BC"}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); got != "Vancouver, BC: in region (British Columbia, CA, geocoded)\n" {
		t.Fatalf("output = %q", got)
	}

	out.Reset()
	ctx.JSONOutput = true
	if err := (&GeocodeCmd{Location: "Vancouver, BC"}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var answer geocodeAnswer
	if err := json.Unmarshal(out.Bytes(), &answer); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !answer.InRegion || !answer.Cached {
		t.Fatalf("second lookup should come from cache: %+v", answer)
	}
	if n := doer.Count(testGeocodeURL); n != 1 {
		t.Fatalf("geocode calls = %d, want 1", n)
	}
}

func TestCacheCommands(t *testing.T) {
	ctx, out, _ := testContext(t, upstream())

	input := filepath.Join(t.TempDir(), "import.json")
	if err := seen.WriteHackathons(input, []models.Hackathon{
		{Name: "B", URL: "https://x/b", Prize: "USD10"},
		{Name: "A", URL: "https://x/a", Prize: "CAD20"},
		{Name: "A dup", URL: "https://x/a/"},
	}); err != nil {
		t.Fatalf("WriteHackathons() error = %v", err)
	}

	if err := (&CacheImportCmd{Input: input, Stats: true}).Run(ctx); err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out.String(), "added=2") {
		t.Fatalf("import stats = %q", out.String())
	}

	out.Reset()
	ctx.JSONOutput = true
	if err := (&CacheShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("show error = %v", err)
	}
	var summary cacheSummary
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Backend != "file" || summary.Hackathons != 2 || summary.Locations != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	out.Reset()
	if err := (&CacheExportCmd{}).Run(ctx); err != nil {
		t.Fatalf("export error = %v", err)
	}
	var exported []models.Hackathon
	if err := json.Unmarshal(out.Bytes(), &exported); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(exported) != 2 || exported[0].URL != "https://x/a" {
		t.Fatalf("export should be sorted by url: %+v", exported)
	}

	if err := (&CacheClearCmd{}).Run(ctx); err == nil {
		t.Fatalf("clear without --yes should fail")
	}
	if err := (&CacheClearCmd{Yes: true}).Run(ctx); err != nil {
		t.Fatalf("clear error = %v", err)
	}

	out.Reset()
	if err := (&CacheShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("show error = %v", err)
	}
	summary = cacheSummary{}
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil || summary.Hackathons != 0 {
		t.Fatalf("cache not cleared: %+v (%v)", summary, err)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	ctx, out, _ := testContext(t, nil)
	ctx.Config.Server.AccessToken = "s3cret"
	if err := (&ShowConfigCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(out.String(), "s3cret") || strings.Contains(out.String(), "test-key") {
		t.Fatalf("secret leaked: %s", out.String())
	}
	if !strings.Contains(out.String(), `"access_token": "********"`) {
		t.Fatalf("expected masked token: %s", out.String())
	}
}

func TestVersionCmd(t *testing.T) {
	ctx, out, _ := testContext(t, networktest.New())
	ctx.Version = "1.2.3"
	if err := (&VersionCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); got != "hackcli 1.2.3\n" {
		t.Fatalf("output = %q", got)
	}

	out.Reset()
	ctx.JSONOutput = true
	if err := (&VersionCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if payload["version"] != "1.2.3" {
		t.Fatalf("payload = %#v", payload)
	}
}

func TestCheckProxyRejectsUnsupportedScheme(t *testing.T) {
	result := checkProxy("ftp://proxy.test:21", testListingsURL, time.Second)
	if result.Status != "error" || !strings.Contains(result.Error, "unsupported scheme") {
		t.Fatalf("checkProxy() = %+v, want unsupported scheme error", result)
	}
}
