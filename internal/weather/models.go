package weather

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when geocoding yields no usable match.
	ErrNotFound = errors.New("city not found")
	// ErrUpstream is returned when the forecast API fails.
	ErrUpstream = errors.New("upstream weather api error")
	// ErrStorage wraps failures of the local search history store.
	ErrStorage = errors.New("storage error")
)

// UnknownCountry is substituted when the geocoder omits the country.
const UnknownCountry = "Unknown"

// GeocodeResult is one candidate returned by the geocoding API.
type GeocodeResult struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Label renders the candidate the way autocomplete shows it: "<name>, <country>".
func (g GeocodeResult) Label() string {
	country := g.Country
	if country == "" {
		country = UnknownCountry
	}
	return g.Name + ", " + country
}

// ForecastPoint is a single hourly forecast value.
type ForecastPoint struct {
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	WeatherCode int     `json:"weather_code"`
}

// Lookup is the result of a successful city weather search.
type Lookup struct {
	City     string          `json:"city"`
	Forecast []ForecastPoint `json:"forecast"`
}

// Suggestion is an autocomplete entry.
type Suggestion struct {
	Name string `json:"name"`
}

// CityStat is the number of lookups recorded for a city.
type CityStat struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// SearchEntry is a row of the search history log.
type SearchEntry struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	City       string    `json:"city"`
	SearchTime time.Time `json:"search_time"` // always UTC
}
