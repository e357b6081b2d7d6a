package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-search/internal/weather"
)

// DefaultGeocodingURL is the Open-Meteo geocoding search endpoint.
const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// GeocodingClient implements weather.Geocoder for the Open-Meteo geocoding API.
type GeocodingClient struct {
	baseURL  string
	upstream *upstream
}

func NewGeocodingClient(baseURL string, cfg HTTPClientConfig) *GeocodingClient {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	return &GeocodingClient{
		baseURL:  baseURL,
		upstream: newUpstream("geocoding", cfg),
	}
}

// Resolve looks up name and returns at most count candidates.
// A non-200 answer or an empty result set is weather.ErrNotFound; transport
// failures are returned as-is.
func (c *GeocodingClient) Resolve(ctx context.Context, name string, count int, language string) ([]weather.GeocodeResult, error) {
	if count <= 0 {
		count = 1
	}

	values := url.Values{}
	values.Set("name", name)
	values.Set("count", strconv.Itoa(count))
	if language != "" {
		values.Set("language", language)
	}

	resp, err := c.upstream.get(ctx, c.baseURL+"?"+values.Encode())
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, weather.ErrNotFound
		}
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	if resp.status != http.StatusOK {
		return nil, weather.ErrNotFound
	}

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, weather.ErrNotFound
	}

	results := make([]weather.GeocodeResult, 0, min(count, len(payload.Results)))
	for _, r := range payload.Results {
		if len(results) >= count {
			break
		}
		country := r.Country
		if country == "" {
			country = weather.UnknownCountry
		}
		results = append(results, weather.GeocodeResult{
			Name:      r.Name,
			Country:   country,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}
	return results, nil
}
