package network

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	ErrNoProxies    = errors.New("no proxies available")
	ErrInvalidProxy = errors.New("invalid proxy")
)

// maxStrikes caps how far a proxy's bench time doubles.
const maxStrikes = 4

type proxySlot struct {
	url          *url.URL
	strikes      int
	benchedUntil time.Time
}

// Rotator hands out proxies round-robin. A proxy the upstream answered with
// 403 or 429 is benched for banDuration, doubling on each consecutive strike;
// a successful response clears its strikes.
type Rotator struct {
	mu          sync.Mutex
	slots       []*proxySlot
	byURL       map[string]*proxySlot
	next        int
	banDuration time.Duration
	now         func() time.Time
}

// NewRotator parses raw proxy URLs (http, https or socks5). Duplicates are
// dropped.
func NewRotator(raw []string, banDuration time.Duration) (*Rotator, error) {
	r := &Rotator{
		byURL:       map[string]*proxySlot{},
		banDuration: banDuration,
		now:         time.Now,
	}
	for _, value := range raw {
		u, err := parseProxy(value)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byURL[u.String()]; dup {
			continue
		}
		slot := &proxySlot{url: u}
		r.slots = append(r.slots, slot)
		r.byURL[u.String()] = slot
	}
	return r, nil
}

func parseProxy(value string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidProxy, value, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("%w %q: unsupported scheme", ErrInvalidProxy, value)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidProxy, value)
	}
	return u, nil
}

func (r *Rotator) Len() int {
	return len(r.slots)
}

// Available counts proxies that are not currently benched.
func (r *Rotator) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for _, slot := range r.slots {
		if !now.Before(slot.benchedUntil) {
			n++
		}
	}
	return n
}

func (r *Rotator) Next() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for range r.slots {
		slot := r.slots[r.next]
		r.next = (r.next + 1) % len(r.slots)
		if !now.Before(slot.benchedUntil) {
			return slot.url, nil
		}
	}
	return nil, ErrNoProxies
}

// Report records the upstream status a proxy produced.
func (r *Rotator) Report(proxy *url.URL, status int) {
	if proxy == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.byURL[proxy.String()]
	if !ok {
		return
	}
	switch {
	case status == 403 || status == 429:
		if slot.strikes < maxStrikes {
			slot.strikes++
		}
		slot.benchedUntil = r.now().Add(r.banDuration << (slot.strikes - 1))
	case status >= 200 && status < 300:
		slot.strikes = 0
	}
}
