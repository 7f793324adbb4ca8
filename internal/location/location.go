// Package location provides LocationProvider implementations: a static
// configured coordinate and a Nominatim geocoder for address-based setups.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lighthousecore/pkg/domain"
	"lighthousecore/pkg/geo"
)

// Static always reports the configured coordinate.
type Static struct {
	Coordinate geo.Coordinate
}

// CurrentCoordinate implements core.LocationProvider.
func (s Static) CurrentCoordinate(context.Context) (geo.Coordinate, error) {
	return s.Coordinate, nil
}

// Unavailable always reports ErrLocationUnavailable. Useful as an explicit
// "no location" configuration.
type Unavailable struct{}

// CurrentCoordinate implements core.LocationProvider.
func (Unavailable) CurrentCoordinate(context.Context) (geo.Coordinate, error) {
	return geo.Coordinate{}, domain.ErrLocationUnavailable
}

const (
	defaultNominatimBase = "https://nominatim.openstreetmap.org"
	defaultUserAgent     = "lighthousecore/1.0"
	defaultTimeout       = 15 * time.Second
)

// Geocoder resolves a fixed address through the Nominatim search API. The
// lookup result is cached after the first success; a facility address does
// not move between calls.
type Geocoder struct {
	Address   string
	BaseURL   string
	UserAgent string
	Client    *http.Client

	cached *geo.Coordinate
}

// NewGeocoder constructs a Nominatim-backed provider for the given address.
func NewGeocoder(address string) *Geocoder {
	return &Geocoder{Address: address}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// CurrentCoordinate implements core.LocationProvider. Any lookup failure is
// reported as ErrLocationUnavailable so callers fall back to unranked
// facility listing.
func (g *Geocoder) CurrentCoordinate(ctx context.Context) (geo.Coordinate, error) {
	if g.cached != nil {
		return *g.cached, nil
	}
	if g.Address == "" {
		return geo.Coordinate{}, domain.ErrLocationUnavailable
	}
	base := g.BaseURL
	if base == "" {
		base = defaultNominatimBase
	}
	agent := g.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}
	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", base, url.QueryEscape(g.Address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	req.Header.Set("User-Agent", agent)

	resp, err := client.Do(req)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return geo.Coordinate{}, fmt.Errorf("%w: geocoder returned %d", domain.ErrLocationUnavailable, resp.StatusCode)
	}
	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	if len(results) == 0 {
		return geo.Coordinate{}, fmt.Errorf("%w: no match for %q", domain.ErrLocationUnavailable, g.Address)
	}
	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: malformed coordinates", domain.ErrLocationUnavailable)
	}
	coord := geo.Coordinate{Lat: lat, Lon: lon}
	g.cached = &coord
	return coord, nil
}
