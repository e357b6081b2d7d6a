package weather

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	results []GeocodeResult
	err     error

	calls     int
	lastName  string
	lastCount int
	lastLang  string
}

func (f *fakeGeocoder) Resolve(_ context.Context, name string, count int, language string) ([]GeocodeResult, error) {
	f.calls++
	f.lastName, f.lastCount, f.lastLang = name, count, language
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeForecaster struct {
	points []ForecastPoint
	err    error

	lat, lon float64
}

func (f *fakeForecaster) Forecast(_ context.Context, lat, lon float64) ([]ForecastPoint, error) {
	f.lat, f.lon = lat, lon
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

type searchRow struct {
	userID string
	city   string
	at     time.Time
}

type fakeStore struct {
	rows   []searchRow
	cities map[string]bool
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{cities: map[string]bool{}}
}

func (f *fakeStore) RecordSearch(_ context.Context, userID, city string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, searchRow{userID, city, at})
	return nil
}

func (f *fakeStore) EnsureCityKnown(_ context.Context, city string) error {
	if f.err != nil {
		return f.err
	}
	f.cities[city] = true
	return nil
}

func (f *fakeStore) LastCityFor(_ context.Context, userID string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].userID == userID {
			return f.rows[i].city, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeStore) SearchStats(_ context.Context) ([]CityStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func hourlyPoints(n int) []ForecastPoint {
	points := make([]ForecastPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, ForecastPoint{
			Time:        fmt.Sprintf("2025-05-30T%02d:00", i%24),
			Temperature: 15.0 + float64(i)*0.1,
			WeatherCode: i % 2,
		})
	}
	return points
}

func TestLookup_RecordsSearchAfterUpstreamSuccess(t *testing.T) {
	geo := &fakeGeocoder{results: []GeocodeResult{{Name: "London", Country: "UK", Latitude: 51.5, Longitude: -0.12}}}
	fc := &fakeForecaster{points: hourlyPoints(48)}
	st := newFakeStore()
	now := time.Date(2025, 5, 30, 10, 0, 0, 0, time.FixedZone("X", 3600))

	svc := NewService(st, geo, fc, WithLanguage("en"), WithClock(func() time.Time { return now }))

	got, err := svc.Lookup(context.Background(), "u1", "  London ")
	require.NoError(t, err)

	assert.Equal(t, "London", got.City)
	assert.Len(t, got.Forecast, ForecastLimit)
	assert.Equal(t, "2025-05-30T00:00", got.Forecast[0].Time)

	assert.Equal(t, "London", geo.lastName)
	assert.Equal(t, 1, geo.lastCount)
	assert.Equal(t, "en", geo.lastLang)
	assert.Equal(t, 51.5, fc.lat)
	assert.Equal(t, -0.12, fc.lon)

	require.Len(t, st.rows, 1)
	assert.Equal(t, "u1", st.rows[0].userID)
	assert.Equal(t, "London", st.rows[0].city)
	assert.Equal(t, time.UTC, st.rows[0].at.Location())
	assert.True(t, st.cities["London"])
}

func TestLookup_NotFound(t *testing.T) {
	cases := map[string]error{
		"no match":        ErrNotFound,
		"transport error": errors.New("dial tcp: connection refused"),
	}

	for name, geoErr := range cases {
		t.Run(name, func(t *testing.T) {
			st := newFakeStore()
			fc := &fakeForecaster{points: hourlyPoints(1)}
			svc := NewService(st, &fakeGeocoder{err: geoErr}, fc)

			_, err := svc.Lookup(context.Background(), "u1", "Atlantis")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Empty(t, st.rows)
		})
	}
}

func TestLookup_EmptyCandidatesIsNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeGeocoder{}, &fakeForecaster{})

	_, err := svc.Lookup(context.Background(), "u1", "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_ForecastFailureWritesNothing(t *testing.T) {
	geo := &fakeGeocoder{results: []GeocodeResult{{Name: "Paris", Country: "France"}}}
	st := newFakeStore()

	for _, fcErr := range []error{ErrUpstream, errors.New("boom")} {
		svc := NewService(st, geo, &fakeForecaster{err: fcErr})

		_, err := svc.Lookup(context.Background(), "u1", "Paris")
		assert.ErrorIs(t, err, ErrUpstream)
	}
	assert.Empty(t, st.rows)
	assert.Empty(t, st.cities)
}

func TestLookup_StorageFailure(t *testing.T) {
	geo := &fakeGeocoder{results: []GeocodeResult{{Name: "Paris", Country: "France"}}}
	st := newFakeStore()
	st.err = errors.New("disk I/O error")

	svc := NewService(st, geo, &fakeForecaster{points: hourlyPoints(3)})

	_, err := svc.Lookup(context.Background(), "u1", "Paris")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestSuggest(t *testing.T) {
	geo := &fakeGeocoder{results: []GeocodeResult{
		{Name: "Lo", Country: "Бельгия"},
		{Name: "Lo", Country: "Нигерия"},
		{Name: "Lo", Country: ""},
		{Name: "Lo", Country: "Бенин"},
		{Name: "Lo", Country: "Unknown"},
		{Name: "Lo", Country: "Extra"},
	}}
	svc := NewService(newFakeStore(), geo, &fakeForecaster{})

	got := svc.Suggest(context.Background(), "Lo")
	assert.Equal(t, SuggestionLimit, geo.lastCount)
	assert.Equal(t, "ru", geo.lastLang)
	assert.Equal(t, []Suggestion{
		{Name: "Lo, Бельгия"},
		{Name: "Lo, Нигерия"},
		{Name: "Lo, Unknown"},
		{Name: "Lo, Бенин"},
		{Name: "Lo, Unknown"},
	}, got)
}

func TestSuggest_FailureIsEmptyList(t *testing.T) {
	for _, geoErr := range []error{ErrNotFound, errors.New("timeout")} {
		svc := NewService(newFakeStore(), &fakeGeocoder{err: geoErr}, &fakeForecaster{})

		got := svc.Suggest(context.Background(), "Lo")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestLastCityAndStats(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, &fakeGeocoder{}, &fakeForecaster{})
	ctx := context.Background()

	_, ok, err := svc.LastCity(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.NotNil(t, stats)

	st.err = errors.New("database is locked")
	_, _, err = svc.LastCity(ctx, "u1")
	assert.ErrorIs(t, err, ErrStorage)
	_, err = svc.Stats(ctx)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestGeocodeResultLabel(t *testing.T) {
	assert.Equal(t, "Paris, France", GeocodeResult{Name: "Paris", Country: "France"}.Label())
	assert.Equal(t, "Paris, Unknown", GeocodeResult{Name: "Paris"}.Label())
}
