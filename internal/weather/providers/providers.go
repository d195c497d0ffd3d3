// Package providers implements weather.Provider for the supported weather
// backends.
package providers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"codeberg.org/mutker/thermosense/internal/config"
	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/httpx"
	"codeberg.org/mutker/thermosense/internal/location"
	"codeberg.org/mutker/thermosense/internal/weather"
)

// Condition words shared by providers that report numeric codes.
const (
	ConditionClear   = "Clear"
	ConditionClouds  = "Clouds"
	ConditionFog     = "Fog"
	ConditionDrizzle = "Drizzle"
	ConditionRain    = "Rain"
	ConditionSnow    = "Snow"
	ConditionStorm   = "Thunderstorm"
	ConditionUnknown = "Unknown"
)

// Options carries what New needs to build any provider.
type Options struct {
	Provider          string
	BackendURL        string
	OpenWeatherAPIKey string
	GeocoderAPIKey    string
	Client            *http.Client

	// OpenTimeout bounds how long a tripped breaker refuses calls.
	OpenTimeout time.Duration
}

// New returns the provider selected by opts.Provider.
func New(opts Options) (weather.Provider, error) {
	errFactory := errors.New()
	breaker := httpx.WithOpenTimeout(opts.OpenTimeout)

	switch opts.Provider {
	case config.WeatherBackend, "":
		return NewBackendProvider(opts.BackendURL, opts.Client, breaker), nil
	case config.WeatherOpenWeather:
		if opts.OpenWeatherAPIKey == "" {
			return nil, errFactory.New(ErrMissingAPIKey)
		}
		return NewOpenWeatherProvider(opts.OpenWeatherAPIKey, opts.Client, breaker), nil
	case config.WeatherOpenMeteo:
		var namer Namer
		if opts.GeocoderAPIKey != "" {
			namer = NewGeocoderNamer(opts.GeocoderAPIKey)
		}
		return NewOpenMeteoProvider(namer, opts.Client, breaker), nil
	default:
		return nil, errFactory.WithData(ErrUnknownProvider, opts.Provider)
	}
}

func coordinateName(coord location.Coordinate) string {
	return coord.String()
}

func normalize(name string, temp float64, condition string, at time.Time) weather.Snapshot {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		condition = ConditionUnknown
	}

	return weather.Snapshot{
		LocationName: strings.TrimSpace(name),
		Temp:         temp,
		Condition:    condition,
		FetchedAt:    at,
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%f", v)
}
