// Package weather defines the canonical ambient weather reading and the
// provider contract every weather backend is normalised to.
package weather

import (
	"context"
	"time"

	"codeberg.org/mutker/thermosense/internal/location"
)

// Snapshot is the ambient weather at the resolved coordinate.
type Snapshot struct {
	LocationName string    `json:"location_name"`
	Temp         float64   `json:"temp"`
	Condition    string    `json:"condition"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Provider abstracts a weather data source (ThermoSense backend proxy,
// OpenWeatherMap, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, coord location.Coordinate) (Snapshot, error)
}
