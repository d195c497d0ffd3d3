package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/mutker/thermosense/internal/config"
	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/location"
	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCoord = location.Coordinate{Lat: 23.2599, Lon: 77.4126}

func jsonServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

type fakeNamer struct {
	name string
	err  error
}

func (f fakeNamer) PlaceName(context.Context, location.Coordinate) (string, error) {
	return f.name, f.err
}

func TestNewSelectsProvider(t *testing.T) {
	p, err := New(Options{Provider: config.WeatherBackend, BackendURL: "http://localhost:8000"})
	require.NoError(t, err)
	assert.Equal(t, "backend", p.Name())

	p, err = New(Options{Provider: config.WeatherOpenWeather, OpenWeatherAPIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, "openweather", p.Name())

	p, err = New(Options{Provider: config.WeatherOpenMeteo})
	require.NoError(t, err)
	assert.Equal(t, "openmeteo", p.Name())

	_, err = New(Options{Provider: config.WeatherOpenWeather})
	assert.True(t, errors.HasCode(err, ErrMissingAPIKey))

	_, err = New(Options{Provider: "accuweather"})
	assert.True(t, errors.HasCode(err, ErrUnknownProvider))
}

func TestBackendProvider(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"name":"Bhopal","temp":31.0,"condition":"Clear"}`, func(r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "23.259900", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.412600", r.URL.Query().Get("lon"))
	})

	snap, err := NewBackendProvider(server.URL, nil).Fetch(context.Background(), testCoord)
	require.NoError(t, err)
	assert.Equal(t, "Bhopal", snap.LocationName)
	assert.Equal(t, 31.0, snap.Temp)
	assert.Equal(t, "Clear", snap.Condition)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestBackendProviderFailures(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"name":"Bhopal"}`, nil)
	_, err := NewBackendProvider(server.URL, nil).Fetch(context.Background(), testCoord)
	assert.True(t, errors.HasCode(err, errors.ErrMalformedResponse))

	server = jsonServer(t, http.StatusServiceUnavailable, ``, nil)
	_, err = NewBackendProvider(server.URL, nil).Fetch(context.Background(), testCoord)
	assert.True(t, errors.HasCode(err, errors.ErrSourceUnavailable))
}

func TestOpenWeatherProvider(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{
		"name": "Bhopal",
		"main": {"temp": 29.4, "humidity": 40},
		"weather": [{"main": "Haze"}]
	}`, func(r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
	})

	p := NewOpenWeatherProvider("secret", nil)
	p.baseURL = server.URL

	snap, err := p.Fetch(context.Background(), testCoord)
	require.NoError(t, err)
	assert.Equal(t, "Bhopal", snap.LocationName)
	assert.Equal(t, 29.4, snap.Temp)
	assert.Equal(t, "Haze", snap.Condition)
}

func TestOpenWeatherProviderMissingMain(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"name":"Bhopal","weather":[]}`, nil)

	p := NewOpenWeatherProvider("secret", nil)
	p.baseURL = server.URL

	_, err := p.Fetch(context.Background(), testCoord)
	assert.True(t, errors.HasCode(err, errors.ErrMalformedResponse))
}

func TestOpenMeteoProvider(t *testing.T) {
	body := `{"current_weather":{"temperature":18.5,"weathercode":61}}`

	tests := []struct {
		name  string
		namer Namer
		want  string
	}{
		{"no namer", nil, "23.2599, 77.4126"},
		{"named", fakeNamer{name: "Bhopal"}, "Bhopal"},
		{"namer fails", fakeNamer{err: assert.AnError}, "23.2599, 77.4126"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := jsonServer(t, http.StatusOK, body, func(r *http.Request) {
				assert.Equal(t, "true", r.URL.Query().Get("current_weather"))
			})

			p := NewOpenMeteoProvider(tt.namer, nil)
			p.baseURL = server.URL

			snap, err := p.Fetch(context.Background(), testCoord)
			require.NoError(t, err)
			assert.Equal(t, tt.want, snap.LocationName)
			assert.Equal(t, 18.5, snap.Temp)
			assert.Equal(t, ConditionRain, snap.Condition)
		})
	}
}

func TestMapWMOCode(t *testing.T) {
	assert.Equal(t, ConditionClear, mapWMOCode(0))
	assert.Equal(t, ConditionClouds, mapWMOCode(2))
	assert.Equal(t, ConditionFog, mapWMOCode(45))
	assert.Equal(t, ConditionDrizzle, mapWMOCode(53))
	assert.Equal(t, ConditionRain, mapWMOCode(81))
	assert.Equal(t, ConditionSnow, mapWMOCode(75))
	assert.Equal(t, ConditionStorm, mapWMOCode(95))
	assert.Equal(t, ConditionUnknown, mapWMOCode(42))
}

func TestGeocoderNamer(t *testing.T) {
	n := NewGeocoderNamer("key")

	n.lookup = func(loc geocoder.Location) ([]geocoder.Address, error) {
		assert.Equal(t, testCoord.Lat, loc.Latitude)
		assert.Equal(t, "key", geocoder.ApiKey)
		return []geocoder.Address{{City: "Bhopal", FormattedAddress: "Bhopal, Madhya Pradesh, India"}}, nil
	}
	name, err := n.PlaceName(context.Background(), testCoord)
	require.NoError(t, err)
	assert.Equal(t, "Bhopal", name)

	n.lookup = func(geocoder.Location) ([]geocoder.Address, error) {
		return []geocoder.Address{{FormattedAddress: "Upper Lake"}}, nil
	}
	name, err = n.PlaceName(context.Background(), testCoord)
	require.NoError(t, err)
	assert.Equal(t, "Upper Lake", name)

	n.lookup = func(geocoder.Location) ([]geocoder.Address, error) {
		return nil, nil
	}
	_, err = n.PlaceName(context.Background(), testCoord)
	assert.True(t, errors.HasCode(err, errors.ErrMalformedResponse))

	n.lookup = func(geocoder.Location) ([]geocoder.Address, error) {
		return nil, assert.AnError
	}
	_, err = n.PlaceName(context.Background(), testCoord)
	assert.True(t, errors.HasCode(err, errors.ErrSourceUnavailable))
}
