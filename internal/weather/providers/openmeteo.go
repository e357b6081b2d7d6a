package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/i474232898/weather-search/internal/weather"
)

// DefaultForecastURL is the Open-Meteo forecast endpoint.
const DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

// ForecastClient implements weather.Forecaster for the Open-Meteo forecast API.
type ForecastClient struct {
	baseURL  string
	upstream *upstream
}

func NewForecastClient(baseURL string, cfg HTTPClientConfig) *ForecastClient {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	return &ForecastClient{
		baseURL:  baseURL,
		upstream: newUpstream("openmeteo", cfg),
	}
}

// Forecast requests one day of hourly temperature and weather codes and zips
// the parallel arrays into points, keeping upstream order and at most
// weather.ForecastLimit entries.
func (c *ForecastClient) Forecast(ctx context.Context, latitude, longitude float64) ([]weather.ForecastPoint, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	values.Set("hourly", "temperature_2m,weathercode")
	values.Set("forecast_days", "1")

	resp, err := c.upstream.get(ctx, c.baseURL+"?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstream, err)
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", weather.ErrUpstream, resp.status)
	}
	if !gjson.ValidBytes(resp.body) {
		return nil, fmt.Errorf("%w: invalid forecast payload", weather.ErrUpstream)
	}

	hourly := gjson.GetBytes(resp.body, "hourly")
	if !hourly.IsObject() {
		return nil, fmt.Errorf("%w: forecast payload has no hourly block", weather.ErrUpstream)
	}

	times := hourly.Get("time").Array()
	temps := hourly.Get("temperature_2m").Array()
	codes := hourly.Get("weathercode").Array()

	// Upstream guarantees equal lengths; zip to the shortest regardless.
	n := min(len(times), len(temps), len(codes), weather.ForecastLimit)

	points := make([]weather.ForecastPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, weather.ForecastPoint{
			Time:        times[i].String(),
			Temperature: temps[i].Float(),
			WeatherCode: int(codes[i].Int()),
		})
	}
	return points, nil
}
