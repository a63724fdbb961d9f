package seen

import (
	"net/url"
	"strings"

	"github.com/jimezsa/hackcli/internal/models"
)

// Key normalizes a listing URL: trimmed, lower-case scheme and host, no
// fragment and no trailing slash. Empty input yields "".
func Key(rawURL string) string {
	value := strings.TrimSpace(rawURL)
	if value == "" {
		return ""
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(value, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// Index answers whether a URL was already processed, either in an earlier run
// (the cached hackathons partition) or earlier in the current batch.
type Index struct {
	cached map[string]struct{}
	batch  map[string]struct{}
}

func NewIndex(hackathons map[string]models.Hackathon) *Index {
	idx := &Index{
		cached: make(map[string]struct{}, len(hackathons)),
		batch:  map[string]struct{}{},
	}
	for rawURL, hackathon := range hackathons {
		if key := Key(rawURL); key != "" {
			idx.cached[key] = struct{}{}
		}
		if key := Key(hackathon.URL); key != "" {
			idx.cached[key] = struct{}{}
		}
	}
	return idx
}

// Seen reports whether rawURL is in the cached partition.
func (i *Index) Seen(rawURL string) bool {
	_, ok := i.cached[Key(rawURL)]
	return ok
}

// Mark records rawURL for the current batch. It returns false when the URL
// was already marked.
func (i *Index) Mark(rawURL string) bool {
	key := Key(rawURL)
	if _, ok := i.batch[key]; ok {
		return false
	}
	i.batch[key] = struct{}{}
	return true
}

func (i *Index) Len() int {
	return len(i.cached)
}

// MergeStats captures stats for an import into the hackathons partition.
type MergeStats struct {
	TotalSeen  int
	TotalInput int
	Invalid    int
	Added      int
	TotalOut   int
}

// Merge adds hackathons not already present to partition, keyed by URL.
// Existing entries win collisions.
func Merge(partition map[string]models.Hackathon, input []models.Hackathon) MergeStats {
	stats := MergeStats{TotalSeen: len(partition), TotalInput: len(input)}
	idx := NewIndex(partition)
	for _, hackathon := range input {
		if Key(hackathon.URL) == "" {
			stats.Invalid++
			continue
		}
		if idx.Seen(hackathon.URL) || !idx.Mark(hackathon.URL) {
			continue
		}
		partition[hackathon.URL] = hackathon
		stats.Added++
	}
	stats.TotalOut = len(partition)
	return stats
}
