// Package classify maps already-known readings to presentation values. Every
// function is pure and total; unknown or missing inputs map to the safe
// branch.
package classify

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/thermosense/internal/advisory"
	"codeberg.org/mutker/thermosense/internal/telemetry"
)

// Color is a CSS style hex color.
type Color string

const (
	ColorCritical Color = "#d32f2f"
	ColorSerious  Color = "#d98200"
	ColorElevated Color = "#e4c441"
	ColorNominal  Color = "#1c7c1c"
)

const (
	IconDanger  = "⚠"
	IconWarning = "⚡"
	IconSafe    = "✓"

	IconDarwin  = "🍎"
	IconWindows = "🪟"
	IconLinux   = "🐧"
	IconGeneric = "💻"
)

// AnalyzingText stands in for the status until the first advisory arrives.
const AnalyzingText = "Analyzing..."

// SeverityColor returns the color for a thermal pressure level. A nil
// level is Nominal.
func SeverityColor(p *telemetry.Pressure) Color {
	if p == nil {
		return ColorNominal
	}

	switch *p {
	case telemetry.PressureCritical:
		return ColorCritical
	case telemetry.PressureSerious:
		return ColorSerious
	case telemetry.PressureElevated:
		return ColorElevated
	default:
		return ColorNominal
	}
}

func AlertIcon(level advisory.AlertLevel) string {
	switch level {
	case advisory.AlertDanger:
		return IconDanger
	case advisory.AlertWarning:
		return IconWarning
	default:
		return IconSafe
	}
}

func PlatformIcon(platform *string) string {
	if platform == nil {
		return IconGeneric
	}

	switch strings.ToLower(strings.TrimSpace(*platform)) {
	case "darwin":
		return IconDarwin
	case "windows":
		return IconWindows
	case "linux":
		return IconLinux
	default:
		return IconGeneric
	}
}

// StalenessText formats the time since last as "Ns ago", "Nm ago" or
// "Nh ago", truncating toward zero. A last update in the future reads as
// "0s ago".
func StalenessText(now, last time.Time) string {
	seconds := int64(now.Sub(last) / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	default:
		return fmt.Sprintf("%dh ago", seconds/3600)
	}
}

// StatusText is the upper-cased alert level, or AnalyzingText before the
// first advisory.
func StatusText(res *advisory.Result) string {
	if res == nil {
		return AnalyzingText
	}

	return strings.ToUpper(string(res.AlertLevel))
}
