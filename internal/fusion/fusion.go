// Package fusion derives the advisory request from the latest telemetry
// and weather snapshots.
package fusion

import (
	"codeberg.org/mutker/thermosense/internal/telemetry"
	"codeberg.org/mutker/thermosense/internal/weather"
)

type DeviceState string

const (
	StateCharging DeviceState = "charging"
	StateIdle     DeviceState = "idle"
)

// Reading is the fused input of one advisory request.
type Reading struct {
	DeviceTemp  float64     `json:"battery_temp"`
	AmbientTemp float64     `json:"ambient_temp"`
	DeviceState DeviceState `json:"device_state" validate:"required,oneof=charging idle discharging"`
}

// DeviceTemp picks the battery temperature, then the CPU temperature, then
// the ambient temperature. A missing sensor never reads as zero.
func DeviceTemp(stats telemetry.Snapshot, ambient float64) float64 {
	switch {
	case stats.BatteryTemp != nil:
		return *stats.BatteryTemp
	case stats.CPUTemp != nil:
		return *stats.CPUTemp
	default:
		return ambient
	}
}

// State reports charging when the device is plugged in, idle otherwise.
// Discharging is never derived here.
func State(stats telemetry.Snapshot) DeviceState {
	if stats.Charging {
		return StateCharging
	}

	return StateIdle
}

func Fuse(stats telemetry.Snapshot, w weather.Snapshot) Reading {
	return Reading{
		DeviceTemp:  DeviceTemp(stats, w.Temp),
		AmbientTemp: w.Temp,
		DeviceState: State(stats),
	}
}
