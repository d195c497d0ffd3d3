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
	"codeberg.org/mutker/thermosense/internal/weather"
)

const openWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *httpx.Client
	now     func() time.Time
}

func NewOpenWeatherProvider(apiKey string, client *http.Client, opts ...httpx.Option) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweather",
		apiKey:  apiKey,
		baseURL: openWeatherURL,
		client:  httpx.New("openweather", client, opts...),
		now:     time.Now,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, coord location.Coordinate) (weather.Snapshot, error) {
	errFactory := errors.New()

	if p.apiKey == "" {
		return weather.Snapshot{}, errFactory.New(ErrMissingAPIKey)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lat", formatFloat(coord.Lat))
	values.Set("lon", formatFloat(coord.Lon))

	var payload struct {
		Name string `json:"name"`
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}

	if err := p.client.GetJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return weather.Snapshot{}, err
	}
	if payload.Main == nil {
		return weather.Snapshot{}, errFactory.WithMessage(errors.ErrMalformedResponse, "openweather response without main block")
	}

	condition := ConditionUnknown
	if len(payload.Weather) > 0 {
		condition = payload.Weather[0].Main
	}

	name := payload.Name
	if name == "" {
		name = coordinateName(coord)
	}

	return normalize(name, payload.Main.Temp, condition, p.now()), nil
}
