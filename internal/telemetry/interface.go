package telemetry

import (
	"context"
	"time"
)

// Source produces telemetry snapshots.
type Source interface {
	FetchStats(ctx context.Context) (Snapshot, error)
}

// Snapshot is one poll of the device stats source. Optional readings are
// nil when the source platform does not expose them.
type Snapshot struct {
	BatteryPercent  *float64  `json:"battery_percent"`
	Charging        bool      `json:"charging"`
	BatteryTemp     *float64  `json:"battery_temp"`
	CPUTemp         *float64  `json:"cpu_temp"`
	CPULoad         float64   `json:"cpu_load"`
	MemPercent      float64   `json:"mem_percent"`
	ThermalPressure *Pressure `json:"thermal_pressure"`
	Platform        *string   `json:"platform"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// Pressure is the ordinal thermal pressure level reported by platforms
// without direct temperature sensors.
type Pressure string

const (
	PressureNominal  Pressure = "Nominal"
	PressureElevated Pressure = "Elevated"
	PressureSerious  Pressure = "Serious"
	PressureCritical Pressure = "Critical"
)

var pressureLevels = []Pressure{PressureNominal, PressureElevated, PressureSerious, PressureCritical}

// Float64 returns a pointer to v. Handy for building snapshots by hand.
func Float64(v float64) *float64 {
	return &v
}
