package models

// Hackathon is a listing that survived every filter. URL is its unique key.
type Hackathon struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Location string `json:"location"`
	Prize    string `json:"prize"`
	Date     string `json:"date"`
}

// Eligibility holds what the detail page says about who may take part.
type Eligibility struct {
	Items      []string `json:"eligibility_items"`
	RegionOnly bool     `json:"region_only"`
	Fetched    bool     `json:"-"`
}
