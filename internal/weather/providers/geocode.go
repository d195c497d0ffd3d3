package providers

import (
	"context"
	"sync"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/location"
	"github.com/kelvins/geocoder"
)

// Namer turns a coordinate into a human readable place name.
type Namer interface {
	PlaceName(ctx context.Context, coord location.Coordinate) (string, error)
}

// geocoderMu guards the package level API key of the geocoder library.
var geocoderMu sync.Mutex

// GeocoderNamer names places with Google reverse geocoding.
type GeocoderNamer struct {
	apiKey string
	lookup func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGeocoderNamer(apiKey string) *GeocoderNamer {
	return &GeocoderNamer{
		apiKey: apiKey,
		lookup: geocoder.GeocodingReverse,
	}
}

// PlaceName returns the city of the first match, or its formatted address
// when no city is known. The lookup is not cancellable; ctx is only checked
// before it starts.
func (n *GeocoderNamer) PlaceName(ctx context.Context, coord location.Coordinate) (string, error) {
	errFactory := errors.New()

	if err := ctx.Err(); err != nil {
		return "", errFactory.Wrap(errors.ErrSourceUnavailable, err)
	}

	geocoderMu.Lock()
	geocoder.ApiKey = n.apiKey
	addresses, err := n.lookup(geocoder.Location{Latitude: coord.Lat, Longitude: coord.Lon})
	geocoderMu.Unlock()

	if err != nil {
		return "", errFactory.Wrap(errors.ErrSourceUnavailable, err)
	}

	for _, addr := range addresses {
		if addr.City != "" {
			return addr.City, nil
		}
		if addr.FormattedAddress != "" {
			return addr.FormattedAddress, nil
		}
	}

	return "", errFactory.WithMessage(errors.ErrMalformedResponse, "no address for coordinate")
}
