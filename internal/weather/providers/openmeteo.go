package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/httpx"
	"codeberg.org/mutker/thermosense/internal/location"
	"codeberg.org/mutker/thermosense/internal/logger"
	"codeberg.org/mutker/thermosense/internal/weather"
)

const openMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider implements weather.Provider for Open-Meteo. Open-Meteo
// does not name places, so names come from an optional Namer.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *httpx.Client
	namer   Namer
	now     func() time.Time
}

func NewOpenMeteoProvider(namer Namer, client *http.Client, opts ...httpx.Option) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: openMeteoURL,
		client:  httpx.New("openmeteo", client, opts...),
		namer:   namer,
		now:     time.Now,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, coord location.Coordinate) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("latitude", formatFloat(coord.Lat))
	values.Set("longitude", formatFloat(coord.Lon))
	values.Set("current_weather", "true")

	var payload struct {
		CurrentWeather *struct {
			Temperature float64 `json:"temperature"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}

	if err := p.client.GetJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return weather.Snapshot{}, err
	}
	if payload.CurrentWeather == nil {
		return weather.Snapshot{}, errors.New().WithMessage(errors.ErrMalformedResponse, "open-meteo response without current_weather")
	}

	return normalize(
		p.placeName(ctx, coord),
		payload.CurrentWeather.Temperature,
		mapWMOCode(payload.CurrentWeather.WeatherCode),
		p.now(),
	), nil
}

// placeName never fails; a failed lookup degrades to the coordinate text.
func (p *OpenMeteoProvider) placeName(ctx context.Context, coord location.Coordinate) string {
	if p.namer == nil {
		return coordinateName(coord)
	}

	name, err := p.namer.PlaceName(ctx, coord)
	if err != nil || name == "" {
		logger.Debug().Err(err).Msg("Reverse geocoding failed, naming location by coordinate")
		return coordinateName(coord)
	}

	return name
}

// mapWMOCode maps a WMO weather interpretation code to a condition word.
func mapWMOCode(code int) string {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionClouds
	case code == 45 || code == 48:
		return ConditionFog
	case code >= 51 && code <= 57:
		return ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}
