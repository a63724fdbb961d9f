package models

// CacheDocument is the persisted state shared between pipeline runs.
// Hackathons doubles as the seen-set; Locations memoizes geocoding results.
type CacheDocument struct {
	Hackathons map[string]Hackathon `json:"hackathons"`
	Locations  map[string]bool      `json:"locations"`
}

func NewCacheDocument() *CacheDocument {
	return &CacheDocument{
		Hackathons: map[string]Hackathon{},
		Locations:  map[string]bool{},
	}
}

// Ensure fills in nil partitions.
func (d *CacheDocument) Ensure() {
	if d.Hackathons == nil {
		d.Hackathons = map[string]Hackathon{}
	}
	if d.Locations == nil {
		d.Locations = map[string]bool{}
	}
}
