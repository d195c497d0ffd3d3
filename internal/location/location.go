// Package location resolves the coordinate used for ambient weather. It is
// resolved once per session and never fails: any problem yields Fallback.
package location

import (
	"context"
	"fmt"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/logger"
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const (
	fallbackLat = 23.2599
	fallbackLon = 77.4126
)

// Fallback returns the coordinate used whenever the platform cannot provide
// a position.
func Fallback() Coordinate {
	return Coordinate{Lat: fallbackLat, Lon: fallbackLon}
}

// Valid reports whether c lies within the WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lon)
}

// Locator is the platform geolocation capability.
type Locator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

type Resolver struct {
	locator Locator
	log     logger.Logger
}

// NewResolver returns a Resolver backed by locator. A nil locator always
// resolves to Fallback.
func NewResolver(locator Locator, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}

	return &Resolver{locator: locator, log: log}
}

// Resolve returns the device coordinate, or Fallback when it is denied,
// unavailable or out of range.
func (r *Resolver) Resolve(ctx context.Context) Coordinate {
	if r.locator == nil {
		r.log.Debug().Msg("No locator configured, using fallback coordinate")
		return Fallback()
	}

	coord, err := r.locator.Locate(ctx)
	if err != nil {
		if errors.HasCode(err, errors.ErrPermissionDenied) {
			r.log.Debug().Msg("Geolocation denied, using fallback coordinate")
		} else {
			r.log.Warn().Err(err).Msg("Geolocation failed, using fallback coordinate")
		}
		return Fallback()
	}

	if !coord.Valid() {
		r.log.Warn().Str("coordinate", coord.String()).Msg("Geolocation out of range, using fallback coordinate")
		return Fallback()
	}

	r.log.Debug().Str("coordinate", coord.String()).Msg("Resolved location")

	return coord
}
