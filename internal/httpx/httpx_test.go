package httpx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value float64 `json:"value"`
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"value": 38.2}`))
	}))
	defer srv.Close()

	var out payload
	err := httpx.New("stats", srv.Client()).GetJSON(context.Background(), srv.URL, &out)
	require.NoError(t, err)
	assert.InDelta(t, 38.2, out.Value, 1e-9)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("X-Request-ID"))

		var in payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(payload{Value: in.Value * 2})
	}))
	defer srv.Close()

	var out payload
	header := http.Header{"X-Request-ID": []string{"abc"}}
	err := httpx.New("advisory", srv.Client()).PostJSON(context.Background(), srv.URL, payload{Value: 2}, header, &out)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, out.Value, 1e-9)
}

func TestStatusErrorsAreSourceUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		var out payload
		err := httpx.New("stats", srv.Client()).GetJSON(context.Background(), srv.URL, &out)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrSourceUnavailable), "status %d", status)
		srv.Close()
	}
}

func TestUndecodableBodyIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	var out payload
	err := httpx.New("stats", srv.Client()).GetJSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMalformedResponse))
}

func TestUnreachableIsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out payload
	err := httpx.New("stats", nil).GetJSON(context.Background(), url, &out)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrSourceUnavailable))
}

func TestBreakerFastFailsAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := httpx.New("weather", srv.Client(), httpx.WithOpenTimeout(time.Minute))
	for i := 0; i < 5; i++ {
		var out payload
		err := client.GetJSON(context.Background(), srv.URL, &out)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrSourceUnavailable))
	}

	assert.Equal(t, int32(3), hits.Load(), "open breaker must not reach the server")
}

func TestBreakerReachesRecoveredServerOnNextTick(t *testing.T) {
	const interval = 100 * time.Millisecond

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"value": 1}`))
	}))
	defer srv.Close()

	client := httpx.New("stats", srv.Client(), httpx.WithOpenTimeout(httpx.OpenTimeoutFor(interval)))
	for i := 0; i < 3; i++ {
		var out payload
		require.Error(t, client.GetJSON(context.Background(), srv.URL, &out))
	}

	time.Sleep(interval)

	var out payload
	require.NoError(t, client.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, int32(4), hits.Load())
	assert.InDelta(t, 1.0, out.Value, 1e-9)
}

func TestHalfOpenAdmitsOverlappingCalls(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		<-release
		_, _ = w.Write([]byte(`{"value": 2}`))
	}))
	defer srv.Close()

	client := httpx.New("advisory", srv.Client(), httpx.WithOpenTimeout(10*time.Millisecond))
	for i := 0; i < 3; i++ {
		var out payload
		require.Error(t, client.GetJSON(context.Background(), srv.URL, &out))
	}
	fail.Store(false)
	time.Sleep(20 * time.Millisecond)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			var out payload
			errs <- client.GetJSON(context.Background(), srv.URL, &out)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < 2; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestOpenTimeoutFor(t *testing.T) {
	assert.Equal(t, 15*time.Second, httpx.OpenTimeoutFor(30*time.Second))
	assert.Equal(t, httpx.DefaultOpenTimeout, httpx.OpenTimeoutFor(0))
	assert.Less(t, httpx.OpenTimeoutFor(time.Second), time.Second)
}
