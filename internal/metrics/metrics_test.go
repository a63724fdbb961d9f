package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestRecorders(t *testing.T) {
	m := New()
	m.Listing(true, "")
	m.Listing(false, "zero-prize")
	m.Listing(false, "zero-prize")
	m.Geocode("cache", true)
	m.GeocodeError()
	m.Detail(false)
	m.Cache("save", errors.New("boom"))
	m.Run(time.Now(), 4)

	body := scrape(t, m)
	for _, want := range []string{
		`hackcli_listings_total{outcome="accepted",reason=""} 1`,
		`hackcli_listings_total{outcome="rejected",reason="zero-prize"} 2`,
		`hackcli_geocode_lookups_total{result="in",source="cache"} 1`,
		`hackcli_geocode_lookups_total{result="error",source="api"} 1`,
		`hackcli_detail_fetches_total{status="error"} 1`,
		`hackcli_cache_operations_total{op="save",status="error"} 1`,
		`hackcli_last_run_accepted 4`,
		`hackcli_run_duration_seconds_count 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Listing(true, "")
	m.Geocode("api", false)
	m.GeocodeError()
	m.Detail(true)
	m.Cache("load", nil)
	m.Run(time.Now(), 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
