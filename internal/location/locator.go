package location

import (
	"context"
	"net/http"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/httpx"
)

// StaticLocator always reports a configured coordinate.
type StaticLocator struct {
	Coordinate Coordinate
}

func (s StaticLocator) Locate(context.Context) (Coordinate, error) {
	if !s.Coordinate.Valid() {
		return Coordinate{}, errors.New().WithData(errors.ErrInvalidArgument, s.Coordinate.String())
	}

	return s.Coordinate, nil
}

// DeniedLocator models a user who declined location access.
type DeniedLocator struct{}

func (DeniedLocator) Locate(context.Context) (Coordinate, error) {
	return Coordinate{}, errors.New().New(errors.ErrPermissionDenied)
}

// IPLocator approximates the position from the public IP address using an
// ip-api.com compatible endpoint.
type IPLocator struct {
	client *httpx.Client
	url    string
}

func NewIPLocator(url string, client *http.Client, opts ...httpx.Option) *IPLocator {
	return &IPLocator{
		client: httpx.New("geolocation", client, opts...),
		url:    url,
	}
}

type ipResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context) (Coordinate, error) {
	errFactory := errors.New()

	var resp ipResponse
	if err := l.client.GetJSON(ctx, l.url, &resp); err != nil {
		return Coordinate{}, err
	}

	if resp.Status != "" && resp.Status != "success" {
		return Coordinate{}, errFactory.WithData(errors.ErrSourceUnavailable, resp.Message)
	}
	if resp.Lat == nil || resp.Lon == nil {
		return Coordinate{}, errFactory.WithMessage(errors.ErrMalformedResponse, "geolocation response without coordinates")
	}

	return Coordinate{Lat: *resp.Lat, Lon: *resp.Lon}, nil
}
