package config

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// Stats sources accepted by stats_source.
const (
	StatsSourceHTTP  = "http"
	StatsSourceLocal = "local"
)

// Weather provider names accepted by weather_provider.
const (
	WeatherBackend     = "backend"
	WeatherOpenWeather = "openweather"
	WeatherOpenMeteo   = "openmeteo"
)

// Geolocation modes accepted by geolocation.
const (
	GeolocationIP     = "ip"
	GeolocationStatic = "static"
	GeolocationOff    = "off"
)
