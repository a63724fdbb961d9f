// Package networktest provides a canned network.Doer for tests.
package networktest

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
)

var ErrUnrouted = errors.New("networktest: no route")

// Route is one canned reply. Err takes precedence over the response.
type Route struct {
	Status      int
	Body        string
	ContentType string
	Err         error
}

// Doer answers requests from routes keyed by "host+path" (query ignored).
// It records every request so tests can count outbound calls.
type Doer struct {
	mu       sync.Mutex
	routes   map[string]func(*url.URL) Route
	requests []*url.URL
}

func New() *Doer {
	return &Doer{routes: map[string]func(*url.URL) Route{}}
}

// Handle registers a route for rawURL. A missing Status means 200.
func (d *Doer) Handle(rawURL string, route Route) *Doer {
	return d.HandleFunc(rawURL, func(*url.URL) Route { return route })
}

// HandleFunc registers a route whose reply depends on the full request URL.
func (d *Doer) HandleFunc(rawURL string, fn func(*url.URL) Route) *Doer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[routeKey(rawURL)] = fn
	return d
}

func (d *Doer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req.URL)
	fn, ok := d.routes[routeKey(req.URL.String())]
	d.mu.Unlock()

	if !ok {
		return nil, ErrUnrouted
	}
	route := fn(req.URL)
	if route.Err != nil {
		return nil, route.Err
	}

	status := route.Status
	if status == 0 {
		status = fhttp.StatusOK
	}
	header := fhttp.Header{}
	if route.ContentType != "" {
		header.Set("Content-Type", route.ContentType)
	}
	return &fhttp.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(route.Body)),
		Request:    req,
	}, nil
}

// Requests returns the URLs requested so far.
func (d *Doer) Requests() []*url.URL {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*url.URL(nil), d.requests...)
}

// Count returns how many requests hit rawURL's host+path.
func (d *Doer) Count(rawURL string) int {
	key := routeKey(rawURL)
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, u := range d.requests {
		if routeKey(u.String()) == key {
			n++
		}
	}
	return n
}

func routeKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Host) + strings.TrimSuffix(u.Path, "/")
}
