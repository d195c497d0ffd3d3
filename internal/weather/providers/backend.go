package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/httpx"
	"codeberg.org/mutker/thermosense/internal/location"
	"codeberg.org/mutker/thermosense/internal/weather"
)

// BackendProvider reads weather through the ThermoSense backend proxy.
type BackendProvider struct {
	name    string
	baseURL string
	client  *httpx.Client
	now     func() time.Time
}

func NewBackendProvider(baseURL string, client *http.Client, opts ...httpx.Option) *BackendProvider {
	return &BackendProvider{
		name:    "backend",
		baseURL: strings.TrimRight(baseURL, "/") + "/weather",
		client:  httpx.New("weather", client, opts...),
		now:     time.Now,
	}
}

func (p *BackendProvider) Name() string {
	return p.name
}

func (p *BackendProvider) Fetch(ctx context.Context, coord location.Coordinate) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("lat", formatFloat(coord.Lat))
	values.Set("lon", formatFloat(coord.Lon))

	var payload struct {
		Name      string   `json:"name"`
		Temp      *float64 `json:"temp"`
		Condition string   `json:"condition"`
	}

	if err := p.client.GetJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return weather.Snapshot{}, err
	}
	if payload.Temp == nil {
		return weather.Snapshot{}, errors.New().WithMessage(errors.ErrMalformedResponse, "weather response without temp")
	}

	name := payload.Name
	if name == "" {
		name = coordinateName(coord)
	}

	return normalize(name, *payload.Temp, payload.Condition, p.now()), nil
}
