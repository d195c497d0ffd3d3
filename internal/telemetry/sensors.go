package telemetry

import (
	"math"
	"regexp"
	"strconv"
)

// Raw battery temperatures above this value are centi-degrees Celsius
// (Apple silicon); below it they are deci-Kelvin (Intel).
const centiCelsiusThreshold = 2000

var (
	ioregTemperature = regexp.MustCompile(`"Temperature"\s*=\s*(\d+)`)
	ioregCurrent     = regexp.MustCompile(`"CurrentCapacity"\s*=\s*(\d+)`)
	ioregMax         = regexp.MustCompile(`"MaxCapacity"\s*=\s*(\d+)`)
	ioregExternal    = regexp.MustCompile(`"ExternalConnected"\s*=\s*(Yes|No)`)
	pressureLevel    = regexp.MustCompile(`Current pressure level:\s+(\w+)`)
)

// DecodeBatteryTemperature converts a raw AppleSmartBattery reading to
// degrees Celsius rounded to 0.1.
func DecodeBatteryTemperature(raw int) float64 {
	var celsius float64
	if raw > centiCelsiusThreshold {
		celsius = float64(raw) / 100
	} else {
		celsius = float64(raw)/10 - 273.15
	}

	return math.Round(celsius*10) / 10
}

// ParseBatteryTemperature extracts the battery temperature from
// `ioreg -r -n AppleSmartBattery` output. It returns nil when the output
// carries no reading.
func ParseBatteryTemperature(out string) *float64 {
	raw, ok := matchInt(ioregTemperature, out)
	if !ok {
		return nil
	}

	return Float64(DecodeBatteryTemperature(raw))
}

// ParseBatteryPercent derives the charge level from the CurrentCapacity and
// MaxCapacity keys of ioreg output, rounded to 0.1.
func ParseBatteryPercent(out string) *float64 {
	current, ok := matchInt(ioregCurrent, out)
	if !ok {
		return nil
	}
	full, ok := matchInt(ioregMax, out)
	if !ok || full <= 0 {
		return nil
	}

	return Float64(math.Round(float64(current)/float64(full)*1000) / 10)
}

// ParseExternalPower reports whether ioreg shows the adapter connected.
func ParseExternalPower(out string) bool {
	m := ioregExternal.FindStringSubmatch(out)
	return m != nil && m[1] == "Yes"
}

func matchInt(re *regexp.Regexp, out string) (int, bool) {
	m := re.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return v, true
}

// ParseThermalPressure extracts the level from `powermetrics -s thermal`
// output. Unknown or missing levels yield nil.
func ParseThermalPressure(out string) *Pressure {
	m := pressureLevel.FindStringSubmatch(out)
	if m == nil {
		return nil
	}

	p, ok := ParsePressure(m[1])
	if !ok {
		return nil
	}

	return &p
}
