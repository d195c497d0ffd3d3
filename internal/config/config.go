package config

import (
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix       = "THERMOSENSE"
	EnvConfigPath   = "THERMOSENSE_CONFIG"
	configName      = "thermosense"
	configType      = "toml"
	DefaultLogLevel = "info"

	DefaultBackendURL     = "http://127.0.0.1:8000"
	DefaultInterval       = 30 * time.Second
	DefaultHTTPTimeout    = 10 * time.Second
	DefaultGeolocationURL = "http://ip-api.com/json/"
	DefaultHistorySize    = 120
)

type Config struct {
	BackendURL        string        `mapstructure:"backend_url" validate:"required,url"`
	StatsSource       string        `mapstructure:"stats_source" validate:"oneof=http local"`
	Interval          time.Duration `mapstructure:"interval"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	WeatherProvider   string        `mapstructure:"weather_provider" validate:"oneof=backend openweather openmeteo"`
	OpenWeatherAPIKey string        `mapstructure:"openweather_api_key" validate:"required_if=WeatherProvider openweather"`
	GeocoderAPIKey    string        `mapstructure:"geocoder_api_key"`
	Geolocation       string        `mapstructure:"geolocation" validate:"oneof=ip static off"`
	GeolocationURL    string        `mapstructure:"geolocation_url" validate:"omitempty,url"`
	Latitude          float64       `mapstructure:"latitude" validate:"gte=-90,lte=90"`
	Longitude         float64       `mapstructure:"longitude" validate:"gte=-180,lte=180"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFile           string        `mapstructure:"log_file"`
	Monitor           bool          `mapstructure:"monitor"`
	Listen            string        `mapstructure:"listen"`
	HistorySize       int           `mapstructure:"history_size" validate:"gte=1"`
}

var validate = validator.New()

// flagKeys maps config keys to their command line flag names.
var flagKeys = map[string]string{
	"backend_url":         "backend-url",
	"stats_source":        "stats-source",
	"interval":            "interval",
	"http_timeout":        "http-timeout",
	"weather_provider":    "weather-provider",
	"openweather_api_key": "openweather-api-key",
	"geocoder_api_key":    "geocoder-api-key",
	"geolocation":         "geolocation",
	"geolocation_url":     "geolocation-url",
	"latitude":            "latitude",
	"longitude":           "longitude",
	"log_level":           "log-level",
	"log_file":            "log-file",
	"monitor":             "monitor",
	"listen":              "listen",
	"history_size":        "history-size",
}

// Load reads configuration from (lowest to highest precedence) defaults, the
// TOML config file, THERMOSENSE_* environment variables and command line
// flags. A .env file in the working directory is loaded into the
// environment first.
func Load(args []string) (*Config, error) {
	errFactory := errors.New()

	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("thermosense", pflag.ContinueOnError)
	configPath := fs.String("config", os.Getenv(EnvConfigPath), "Path to the TOML config file")
	fs.String("backend-url", DefaultBackendURL, "Base URL of the ThermoSense backend")
	fs.String("stats-source", StatsSourceHTTP, "Stats source: http (backend) or local (this machine)")
	fs.Duration("interval", DefaultInterval, "Interval between stats polls")
	fs.Duration("http-timeout", DefaultHTTPTimeout, "Timeout for outbound HTTP calls")
	fs.String("weather-provider", WeatherBackend, "Weather provider: backend, openweather or openmeteo")
	fs.String("openweather-api-key", "", "OpenWeatherMap API key")
	fs.String("geocoder-api-key", "", "Google geocoding API key used for location names")
	fs.String("geolocation", GeolocationIP, "Geolocation mode: ip, static or off")
	fs.String("geolocation-url", DefaultGeolocationURL, "IP geolocation endpoint")
	fs.Float64("latitude", 0, "Latitude used when geolocation is static")
	fs.Float64("longitude", 0, "Longitude used when geolocation is static")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	fs.String("log-file", "", "Write logs to this file instead of stdout")
	fs.Bool("monitor", false, "Headless mode: log state changes instead of drawing the dashboard")
	fs.String("listen", "", "Address for the JSON view endpoint, empty to disable")
	fs.Int("history-size", DefaultHistorySize, "Number of fused readings kept for the session chart")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := readConfigFile(v, *configPath); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend_url", DefaultBackendURL)
	v.SetDefault("stats_source", StatsSourceHTTP)
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("weather_provider", WeatherBackend)
	v.SetDefault("openweather_api_key", "")
	v.SetDefault("geocoder_api_key", "")
	v.SetDefault("geolocation", GeolocationIP)
	v.SetDefault("geolocation_url", DefaultGeolocationURL)
	v.SetDefault("latitude", 0.0)
	v.SetDefault("longitude", 0.0)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("monitor", false)
	v.SetDefault("listen", "")
	v.SetDefault("history_size", DefaultHistorySize)
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.AddConfigPath("/etc")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", configName))
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval.String())
	}
	if c.HTTPTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "http_timeout must be positive")
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errFactory.WithData(errors.ErrInvalidConfig, fe.Field()+" failed "+fe.Tag())
		}
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}
