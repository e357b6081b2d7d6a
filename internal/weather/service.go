package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/i474232898/weather-search/internal/common"
)

const (
	// lookupCandidates is how many geocoding matches a weather lookup asks for.
	lookupCandidates = 1
	// SuggestionLimit caps autocomplete results.
	SuggestionLimit = 5
	// ForecastLimit caps the hourly points returned by a lookup.
	ForecastLimit = 24
)

// Service orchestrates geocoding, forecasting and the search history store.
type Service struct {
	store      Store
	geocoder   Geocoder
	forecaster Forecaster
	language   string
	now        func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithLanguage sets the language hint passed to the geocoder.
func WithLanguage(lang string) Option {
	return func(s *Service) { s.language = lang }
}

// WithClock overrides the time source used to stamp search history rows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(store Store, geocoder Geocoder, forecaster Forecaster, opts ...Option) *Service {
	s := &Service{
		store:      store,
		geocoder:   geocoder,
		forecaster: forecaster,
		language:   "ru",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup resolves the city, fetches its forecast and records the search for userID.
// Nothing is written unless both upstream calls succeed.
func (s *Service) Lookup(ctx context.Context, userID, city string) (Lookup, error) {
	city = common.NormalizeCity(city)

	matches, err := s.geocoder.Resolve(ctx, city, lookupCandidates, s.language)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			// Transport failures read as "no results" to the caller.
			log.Printf("ERROR: geocoding %q failed: %v", city, err)
			return Lookup{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return Lookup{}, err
	}
	if len(matches) == 0 {
		return Lookup{}, ErrNotFound
	}
	best := matches[0]

	points, err := s.forecaster.Forecast(ctx, best.Latitude, best.Longitude)
	if err != nil {
		log.Printf("ERROR: forecast for %q (%f,%f) failed: %v", city, best.Latitude, best.Longitude, err)
		if errors.Is(err, ErrUpstream) {
			return Lookup{}, err
		}
		return Lookup{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(points) > ForecastLimit {
		points = points[:ForecastLimit]
	}

	if err := s.store.RecordSearch(ctx, userID, city, s.now().UTC()); err != nil {
		return Lookup{}, fmt.Errorf("%w: record search: %v", ErrStorage, err)
	}
	if err := s.store.EnsureCityKnown(ctx, city); err != nil {
		return Lookup{}, fmt.Errorf("%w: register city: %v", ErrStorage, err)
	}

	log.Printf("DEBUG: lookup %q for user %s returned %d points", city, userID, len(points))
	return Lookup{City: city, Forecast: points}, nil
}

// Suggest returns up to SuggestionLimit autocomplete entries for query.
// Any geocoding failure yields an empty list.
func (s *Service) Suggest(ctx context.Context, query string) []Suggestion {
	out := make([]Suggestion, 0, SuggestionLimit)

	matches, err := s.geocoder.Resolve(ctx, common.NormalizeCity(query), SuggestionLimit, s.language)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("INFO: autocomplete for %q degraded to empty list: %v", query, err)
		}
		return out
	}

	for _, m := range matches {
		if len(out) >= SuggestionLimit {
			break
		}
		out = append(out, Suggestion{Name: m.Label()})
	}
	return out
}

// LastCity returns the city most recently searched by userID.
func (s *Service) LastCity(ctx context.Context, userID string) (string, bool, error) {
	city, ok, err := s.store.LastCityFor(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("%w: last city: %v", ErrStorage, err)
	}
	return city, ok, nil
}

// Stats returns lookup counts per city, most searched first.
func (s *Service) Stats(ctx context.Context) ([]CityStat, error) {
	stats, err := s.store.SearchStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search stats: %v", ErrStorage, err)
	}
	if stats == nil {
		stats = []CityStat{}
	}
	return stats, nil
}
