package fusion

import (
	"testing"

	"codeberg.org/mutker/thermosense/internal/telemetry"
	"codeberg.org/mutker/thermosense/internal/weather"
	"github.com/stretchr/testify/assert"
)

func TestDeviceTempPreference(t *testing.T) {
	tests := []struct {
		name    string
		battery *float64
		cpu     *float64
		want    float64
	}{
		{"battery wins", telemetry.Float64(38.2), telemetry.Float64(60), 38.2},
		{"cpu when no battery", nil, telemetry.Float64(60), 60},
		{"ambient when no sensors", nil, nil, 31.0},
		{"zero battery reading is a reading", telemetry.Float64(0), telemetry.Float64(60), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := telemetry.Snapshot{BatteryTemp: tt.battery, CPUTemp: tt.cpu}
			assert.Equal(t, tt.want, DeviceTemp(stats, 31.0))
		})
	}
}

func TestState(t *testing.T) {
	assert.Equal(t, StateCharging, State(telemetry.Snapshot{Charging: true}))
	assert.Equal(t, StateIdle, State(telemetry.Snapshot{Charging: false}))
}

func TestFuseChargingLaptop(t *testing.T) {
	stats := telemetry.Snapshot{
		BatteryTemp: telemetry.Float64(38.2),
		Charging:    true,
	}
	w := weather.Snapshot{LocationName: "Bhopal", Temp: 31.0, Condition: "Clear"}

	assert.Equal(t, Reading{
		DeviceTemp:  38.2,
		AmbientTemp: 31.0,
		DeviceState: StateCharging,
	}, Fuse(stats, w))
}

func TestFuseWithoutSensors(t *testing.T) {
	w := weather.Snapshot{Temp: 24.5}

	r := Fuse(telemetry.Snapshot{}, w)
	assert.Equal(t, 24.5, r.DeviceTemp)
	assert.Equal(t, 24.5, r.AmbientTemp)
	assert.Equal(t, StateIdle, r.DeviceState)
}
