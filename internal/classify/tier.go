package classify

import "codeberg.org/mutker/thermosense/internal/advisory"

// Tier is the card emphasis for a reading.
type Tier string

const (
	TierSafe    Tier = "safe"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

type thresholds struct {
	warning float64
	danger  float64
}

var (
	batteryTempThresholds = thresholds{warning: 30, danger: 40}
	cpuTempThresholds     = thresholds{warning: 50, danger: 70}
	loadThresholds        = thresholds{warning: 50, danger: 80}
	memoryThresholds      = thresholds{warning: 60, danger: 80}
)

func (t thresholds) tier(v float64) Tier {
	switch {
	case v > t.danger:
		return TierDanger
	case v > t.warning:
		return TierWarning
	default:
		return TierSafe
	}
}

func BatteryTempTier(celsius float64) Tier {
	return batteryTempThresholds.tier(celsius)
}

func CPUTempTier(celsius float64) Tier {
	return cpuTempThresholds.tier(celsius)
}

func LoadTier(percent float64) Tier {
	return loadThresholds.tier(percent)
}

func MemoryTier(percent float64) Tier {
	return memoryThresholds.tier(percent)
}

// ChargingTier highlights a charging battery as a warning.
func ChargingTier(charging bool) Tier {
	if charging {
		return TierWarning
	}

	return TierSafe
}

func AlertTier(level advisory.AlertLevel) Tier {
	switch level {
	case advisory.AlertDanger:
		return TierDanger
	case advisory.AlertWarning:
		return TierWarning
	default:
		return TierSafe
	}
}
