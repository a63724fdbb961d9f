// Package geo answers whether a free-text location lies in the target region.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/hackcli/internal/network"
)

const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

var ErrMissingAPIKey = errors.New("geocode api key is required")

type Component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type Result struct {
	AddressComponents []Component `json:"address_components"`
	FormattedAddress  string      `json:"formatted_address"`
}

// Geocoder resolves an address into candidate results, best first.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]Result, error)
}

type geocodeResponse struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []Result `json:"results"`
}

// Google talks to the Google Geocoding API.
type Google struct {
	client   network.Doer
	endpoint string
	apiKey   string
}

func NewGoogle(client network.Doer, endpoint, apiKey string) (*Google, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	return &Google{client: client, endpoint: endpoint, apiKey: apiKey}, nil
}

func (g *Google) Geocode(ctx context.Context, address string) ([]Result, error) {
	u, err := url.Parse(g.endpoint)
	if err != nil {
		return nil, err
	}
	values := u.Query()
	values.Set("address", address)
	values.Set("key", g.apiKey)
	u.RawQuery = values.Encode()

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("geocode http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var decoded geocodeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	switch decoded.Status {
	case "OK", "":
		return decoded.Results, nil
	case "ZERO_RESULTS":
		return nil, nil
	default:
		if decoded.ErrorMessage != "" {
			return nil, fmt.Errorf("geocode status %s: %s", decoded.Status, decoded.ErrorMessage)
		}
		return nil, fmt.Errorf("geocode status %s", decoded.Status)
	}
}
