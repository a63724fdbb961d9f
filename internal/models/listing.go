package models

import "strings"

// Listing is one raw hackathon record as returned by the listings API.
type Listing struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	DisplayedLocation     DisplayedLocation `json:"displayed_location"`
	PrizeAmount           string            `json:"prize_amount"`
	SubmissionPeriodDates string            `json:"submission_period_dates"`
	OpenState             string            `json:"open_state"`
}

type DisplayedLocation struct {
	Icon     string `json:"icon,omitempty"`
	Location string `json:"location"`
}

func (l Listing) Name() string {
	return orDefault(l.Title, "N/A")
}

func (l Listing) Location() string {
	return orDefault(l.DisplayedLocation.Location, "Unknown")
}

func (l Listing) Dates() string {
	return orDefault(l.SubmissionPeriodDates, "Unknown")
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
