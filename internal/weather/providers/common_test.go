package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstream_NoRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	u := newUpstream("test", testHTTPConfig())

	_, err := u.get(context.Background(), srv.URL)
	require.Error(t, err)

	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(1), hits.Load())
}

func TestUpstream_BreakerDisabledByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	u := newUpstream("test", testHTTPConfig())
	for i := 0; i < 10; i++ {
		_, err := u.get(context.Background(), srv.URL)
		assert.NotErrorIs(t, err, errCircuitOpen)
	}
	assert.Equal(t, int32(10), hits.Load())
}

func TestUpstream_BreakerOpensAfterThreshold(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := newUpstream("test", HTTPClientConfig{
		Client:           &http.Client{},
		BreakerThreshold: 2,
		BreakerTimeout:   time.Minute,
	})

	for i := 0; i < 2; i++ {
		_, err := u.get(context.Background(), srv.URL)
		require.ErrorIs(t, err, errServerError)
	}

	_, err := u.get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestUpstream_ClientStatusDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	u := newUpstream("test", HTTPClientConfig{Client: &http.Client{}, BreakerThreshold: 1})
	for i := 0; i < 3; i++ {
		resp, err := u.get(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.status)
		assert.Equal(t, "{}", string(resp.body))
	}
}

func TestUpstream_NoClient(t *testing.T) {
	u := newUpstream("test", HTTPClientConfig{})
	_, err := u.get(context.Background(), "http://example.invalid")
	assert.ErrorIs(t, err, errNoHTTPClient)
}
