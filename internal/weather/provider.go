package weather

import (
	"context"
	"time"
)

// Geocoder resolves free-text place names to coordinates (e.g. Open-Meteo geocoding).
type Geocoder interface {
	Resolve(ctx context.Context, name string, count int, language string) ([]GeocodeResult, error)
}

// Forecaster fetches hourly forecasts for a coordinate pair.
type Forecaster interface {
	Forecast(ctx context.Context, latitude, longitude float64) ([]ForecastPoint, error)
}

// Store is the contract the search history store must satisfy.
type Store interface {
	RecordSearch(ctx context.Context, userID, city string, at time.Time) error
	EnsureCityKnown(ctx context.Context, city string) error
	LastCityFor(ctx context.Context, userID string) (string, bool, error)
	SearchStats(ctx context.Context) ([]CityStat, error)
}
