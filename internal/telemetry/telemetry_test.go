package telemetry

import (
	"context"
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

func newTestSource(t *testing.T, body string, status int) *HTTPSource {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, statsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	source, err := NewHTTPSource(Config{BaseURL: server.URL + "/"})
	require.NoError(t, err)

	return source
}

func TestFetchStatsFullPayload(t *testing.T) {
	source := newTestSource(t, `{
		"battery_percent": 76,
		"charging": true,
		"battery_temp": 38.2,
		"cpu_temp": 55.5,
		"thermal_pressure": "Serious",
		"cpu_load": 42.5,
		"mem_percent": 61.2,
		"platform": "darwin"
	}`, http.StatusOK)

	snap, err := source.FetchStats(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snap.BatteryPercent)
	assert.Equal(t, 76.0, *snap.BatteryPercent)
	assert.True(t, snap.Charging)
	require.NotNil(t, snap.BatteryTemp)
	assert.Equal(t, 38.2, *snap.BatteryTemp)
	require.NotNil(t, snap.CPUTemp)
	assert.Equal(t, 55.5, *snap.CPUTemp)
	require.NotNil(t, snap.ThermalPressure)
	assert.Equal(t, PressureSerious, *snap.ThermalPressure)
	assert.Equal(t, 42.5, snap.CPULoad)
	assert.Equal(t, 61.2, snap.MemPercent)
	require.NotNil(t, snap.Platform)
	assert.Equal(t, "darwin", *snap.Platform)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestFetchStatsNullsAndUnknowns(t *testing.T) {
	source := newTestSource(t, `{
		"battery_percent": null,
		"charging": null,
		"battery_temp": null,
		"thermal_pressure": "Meltdown",
		"cpu_load": 10,
		"mem_percent": 20
	}`, http.StatusOK)

	snap, err := source.FetchStats(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snap.BatteryPercent)
	assert.False(t, snap.Charging)
	assert.Nil(t, snap.BatteryTemp)
	assert.Nil(t, snap.CPUTemp)
	assert.Nil(t, snap.ThermalPressure)
	assert.Nil(t, snap.Platform)
}

func TestFetchStatsMissingRequiredField(t *testing.T) {
	source := newTestSource(t, `{"cpu_load": 10}`, http.StatusOK)

	_, err := source.FetchStats(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMalformedResponse))
	assert.True(t, errors.HasCode(err, ErrMissingField))
}

func TestFetchStatsFailures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.ErrorCode
	}{
		{"server error", `{}`, http.StatusInternalServerError, errors.ErrSourceUnavailable},
		{"not found", `{}`, http.StatusNotFound, errors.ErrSourceUnavailable},
		{"garbage body", `<html>`, http.StatusOK, errors.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newTestSource(t, tt.body, tt.status)

			_, err := source.FetchStats(context.Background())
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{BaseURL: "http://localhost:8000"}.Validate())
	assert.True(t, errors.HasCode(Config{}.Validate(), ErrInvalidBaseURL))
	assert.True(t, errors.HasCode(Config{BaseURL: "localhost"}.Validate(), ErrInvalidBaseURL))

	_, err := NewHTTPSource(Config{})
	assert.True(t, errors.HasCode(err, ErrInvalidConfig))
}

func TestParsePressure(t *testing.T) {
	p, ok := ParsePressure("critical")
	assert.True(t, ok)
	assert.Equal(t, PressureCritical, p)

	_, ok = ParsePressure("")
	assert.False(t, ok)
}

func TestFetchStatsRecoversOnNextTick(t *testing.T) {
	const interval = 80 * time.Millisecond

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"cpu_load": 10, "mem_percent": 20}`))
	}))
	t.Cleanup(server.Close)

	source, err := NewHTTPSource(Config{
		BaseURL:     server.URL,
		OpenTimeout: httpx.OpenTimeoutFor(interval),
	})
	require.NoError(t, err)

	for tick := 1; tick <= 3; tick++ {
		_, err := source.FetchStats(context.Background())
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrSourceUnavailable))
		time.Sleep(interval)
	}

	snap, err := source.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, snap.CPULoad)
	assert.Equal(t, int32(4), hits.Load())
}
