package history

import (
	"context"
	"time"
)

// Recorder keeps the advisory history of the current session.
type Recorder interface {
	Record(ctx context.Context, point Point) error
	Recent(ctx context.Context, n int) ([]Point, error)
	Close() error
}

// Repository defines the interface for history storage
type Repository interface {
	Insert(point Point) error
	Select(n int) ([]Point, error)
	Count() (int, error)
	Close() error
}

// Point is one resolved advisory together with the reading it was based on.
type Point struct {
	Timestamp      time.Time `json:"timestamp"`
	DeviceTemp     float64   `json:"device_temp"`
	AmbientTemp    float64   `json:"ambient_temp"`
	DeviceState    string    `json:"device_state"`
	AlertLevel     string    `json:"alert_level"`
	HealthImpact   float64   `json:"predicted_health_impact"`
	StatsVersion   uint64    `json:"stats_version"`
	WeatherVersion uint64    `json:"weather_version"`
}
