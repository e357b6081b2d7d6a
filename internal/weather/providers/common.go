package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// maxBodyBytes bounds how much of an upstream payload is read.
const maxBodyBytes = 4 << 20

// HTTPClientConfig bundles the HTTP client and the circuit breaker settings
// shared by the Open-Meteo clients.
type HTTPClientConfig struct {
	Client *http.Client
	// BreakerThreshold is the number of consecutive transport or 5xx failures
	// that open the breaker. Zero keeps it closed forever.
	BreakerThreshold uint32
	// BreakerTimeout is how long an open breaker waits before probing again.
	BreakerTimeout time.Duration
}

var (
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// statusError carries the HTTP status of a 5xx response that the breaker
// counted as a failure.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", errServerError, e.Code)
}

func (e *statusError) Unwrap() error { return errServerError }

// upstream performs single-shot GET requests guarded by a circuit breaker.
type upstream struct {
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

type upstreamResponse struct {
	status int
	body   []byte
}

func newUpstream(name string, cfg HTTPClientConfig) *upstream {
	threshold := cfg.BreakerThreshold
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
	})

	return &upstream{client: cfg.Client, circuit: cb}
}

// get issues one GET request. 5xx answers are returned as *statusError;
// any other status is handed back to the caller with its body.
func (u *upstream) get(ctx context.Context, rawURL string) (upstreamResponse, error) {
	if u.client == nil {
		return upstreamResponse{}, errNoHTTPClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return upstreamResponse{}, err
	}
	req.Header.Set("Accept", "application/json")

	result, err := u.circuit.Execute(func() (interface{}, error) {
		resp, execErr := u.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return nil, &statusError{Code: resp.StatusCode}
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, readErr
		}
		return upstreamResponse{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return upstreamResponse{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return upstreamResponse{}, err
	}

	resp, ok := result.(upstreamResponse)
	if !ok {
		return upstreamResponse{}, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
