package view

import (
	"fmt"
	"time"

	"codeberg.org/mutker/thermosense/internal/advisory"
	"codeberg.org/mutker/thermosense/internal/classify"
	"codeberg.org/mutker/thermosense/internal/location"
	"codeberg.org/mutker/thermosense/internal/orchestrator"
	"codeberg.org/mutker/thermosense/internal/telemetry"
)

const notAvailable = "N/A"

// Dashboard is the derived, presentation-ready view of the orchestrator
// state. Renderers only format it.
type Dashboard struct {
	Battery     Card                 `json:"battery"`
	Temperature Card                 `json:"temperature"`
	CPULoad     Card                 `json:"cpu_load"`
	Memory      Card                 `json:"memory"`
	Weather     *Card                `json:"weather,omitempty"`
	Platform    Card                 `json:"platform"`
	LastUpdate  Card                 `json:"last_update"`
	Status      Card                 `json:"status"`
	Advisory    *Advisory            `json:"advisory,omitempty"`
	Chart       *ChartPoint          `json:"chart,omitempty"`
	Coordinate  *location.Coordinate `json:"coordinate,omitempty"`
	Errors      map[string]string    `json:"errors,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Card is one dashboard tile. Color is only set for thermal pressure.
type Card struct {
	Title string         `json:"title"`
	Value string         `json:"value"`
	Sub   string         `json:"sub"`
	Tier  classify.Tier  `json:"tier,omitempty"`
	Color classify.Color `json:"color,omitempty"`
}

type Advisory struct {
	Icon         string  `json:"icon"`
	Level        string  `json:"alert_level"`
	Tier         string  `json:"tier"`
	Tip          string  `json:"natural_language_tip"`
	Action       *string `json:"optional_action,omitempty"`
	HealthImpact float64 `json:"predicted_health_impact"`
}

// ChartPoint pairs the fused device temperature with the ambient one.
type ChartPoint struct {
	Device  float64 `json:"device"`
	Ambient float64 `json:"ambient"`
}

// Build derives the dashboard from state. It needs a stats snapshot; the
// caller decides what to show before the first one arrives.
func Build(state orchestrator.State, now time.Time, interval time.Duration) Dashboard {
	stats := state.Stats
	if stats == nil {
		stats = &telemetry.Snapshot{}
	}

	d := Dashboard{
		Battery:     batteryCard(stats),
		Temperature: temperatureCard(stats),
		CPULoad: Card{
			Title: "CPU Load",
			Value: fmt.Sprintf("%.1f%%", stats.CPULoad),
			Sub:   "Processing usage",
			Tier:  classify.LoadTier(stats.CPULoad),
		},
		Memory: Card{
			Title: "Memory Usage",
			Value: fmt.Sprintf("%.1f%%", stats.MemPercent),
			Sub:   "RAM utilization",
			Tier:  classify.MemoryTier(stats.MemPercent),
		},
		Platform: Card{
			Title: "System Platform",
			Value: classify.PlatformIcon(stats.Platform),
			Sub:   platformName(stats.Platform),
		},
		LastUpdate: Card{
			Title: "Last Update",
			Value: classify.StalenessText(now, state.LastStatsUpdate),
			Sub:   fmt.Sprintf("Auto-refresh: %s", interval),
		},
		Status:      statusCard(state.Advisory),
		Coordinate:  state.Coordinate,
		GeneratedAt: now,
	}

	if w := state.Weather; w != nil {
		d.Weather = &Card{
			Title: "Weather",
			Value: fmt.Sprintf("%.1f°C", w.Temp),
			Sub:   fmt.Sprintf("%s • %s", w.Condition, w.LocationName),
		}
	}

	if res := state.Advisory; res != nil {
		d.Advisory = &Advisory{
			Icon:         classify.AlertIcon(res.AlertLevel),
			Level:        string(res.AlertLevel),
			Tier:         string(classify.AlertTier(res.AlertLevel)),
			Tip:          res.NarrativeTip,
			Action:       res.OptionalAction,
			HealthImpact: res.PredictedHealthImpact,
		}
	}

	if basis := state.AdvisoryBasis; basis != nil {
		d.Chart = &ChartPoint{Device: basis.Reading.DeviceTemp, Ambient: basis.Reading.AmbientTemp}
	}

	d.Errors = facetErrors(state.Errors)

	return d
}

func batteryCard(stats *telemetry.Snapshot) Card {
	card := Card{
		Title: "Battery Level",
		Value: notAvailable,
		Sub:   "🔋 Idle",
		Tier:  classify.ChargingTier(stats.Charging),
	}
	if stats.BatteryPercent != nil {
		card.Value = fmt.Sprintf("%.0f%%", *stats.BatteryPercent)
	}
	if stats.Charging {
		card.Sub = "⚡ Charging"
	}

	return card
}

// temperatureCard shows the battery sensor, else the CPU sensor, else the
// thermal pressure level.
func temperatureCard(stats *telemetry.Snapshot) Card {
	switch {
	case stats.BatteryTemp != nil:
		return Card{
			Title: "Battery Temperature",
			Value: fmt.Sprintf("%.1f°C", *stats.BatteryTemp),
			Sub:   "Battery sensor",
			Tier:  classify.BatteryTempTier(*stats.BatteryTemp),
		}
	case stats.CPUTemp != nil:
		return Card{
			Title: "CPU Temperature",
			Value: fmt.Sprintf("%.1f°C", *stats.CPUTemp),
			Sub:   "Processor temp",
			Tier:  classify.CPUTempTier(*stats.CPUTemp),
		}
	default:
		value := notAvailable
		if stats.ThermalPressure != nil {
			value = string(*stats.ThermalPressure)
		}
		return Card{
			Title: "Thermal Pressure",
			Value: value,
			Sub:   "System thermal state",
			Color: classify.SeverityColor(stats.ThermalPressure),
		}
	}
}

func statusCard(res *advisory.Result) Card {
	card := Card{
		Title: "System Status",
		Value: "🔍",
		Sub:   classify.StatusText(res),
		Tier:  classify.TierSafe,
	}
	if res != nil {
		card.Value = classify.AlertIcon(res.AlertLevel)
		card.Tier = classify.AlertTier(res.AlertLevel)
	}

	return card
}

func platformName(platform *string) string {
	if platform == nil {
		return "Unknown"
	}

	return *platform
}

func facetErrors(errs orchestrator.FacetErrors) map[string]string {
	out := map[string]string{}
	if errs.Stats != nil {
		out["stats"] = errs.Stats.Error()
	}
	if errs.Weather != nil {
		out["weather"] = errs.Weather.Error()
	}
	if errs.Advisory != nil {
		out["advisory"] = errs.Advisory.Error()
	}
	if len(out) == 0 {
		return nil
	}

	return out
}
