package main

import (
	"net/http"
	"time"

	"codeberg.org/mutker/thermosense/internal/advisory"
	"codeberg.org/mutker/thermosense/internal/config"
	"codeberg.org/mutker/thermosense/internal/history"
	"codeberg.org/mutker/thermosense/internal/httpx"
	"codeberg.org/mutker/thermosense/internal/location"
	"codeberg.org/mutker/thermosense/internal/logger"
	"codeberg.org/mutker/thermosense/internal/orchestrator"
	"codeberg.org/mutker/thermosense/internal/telemetry"
	"codeberg.org/mutker/thermosense/internal/view"
	"codeberg.org/mutker/thermosense/internal/weather/providers"
)

// app holds the wired components of one session.
type app struct {
	cfg     *config.Config
	orch    *orchestrator.Orchestrator
	history history.Recorder
	server  *view.Server
}

func newApp(cfg *config.Config) (*app, error) {
	log := logger.Default()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	openTimeout := httpx.OpenTimeoutFor(cfg.Interval)

	stats, err := newStatsSource(cfg, httpClient, openTimeout)
	if err != nil {
		return nil, err
	}

	provider, err := providers.New(providers.Options{
		Provider:          cfg.WeatherProvider,
		BackendURL:        cfg.BackendURL,
		OpenWeatherAPIKey: cfg.OpenWeatherAPIKey,
		GeocoderAPIKey:    cfg.GeocoderAPIKey,
		Client:            httpClient,
		OpenTimeout:       openTimeout,
	})
	if err != nil {
		return nil, err
	}

	rec, err := history.NewService(history.Config{Size: cfg.HistorySize}, log)
	if err != nil {
		return nil, err
	}

	orch, err := orchestrator.New(orchestrator.Deps{
		Stats:    stats,
		Location: location.NewResolver(newLocator(cfg, httpClient, openTimeout), log),
		Weather:  provider,
		Advisory: advisory.NewClient(cfg.BackendURL, httpClient, httpx.WithOpenTimeout(openTimeout)),
		History:  rec,
		Logger:   log,
	}, orchestrator.Options{
		PollInterval: cfg.Interval,
		RetryWeather: true,
	})
	if err != nil {
		rec.Close()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		orch:    orch,
		history: rec,
	}

	if cfg.Listen != "" {
		a.server = view.New(orch, rec, view.Options{
			PollInterval: cfg.Interval,
			Logger:       log,
		})
	}

	logger.Debug().
		Str("backend_url", cfg.BackendURL).
		Str("stats_source", cfg.StatsSource).
		Str("weather_provider", provider.Name()).
		Str("geolocation", cfg.Geolocation).
		Dur("interval", cfg.Interval).
		Msg("Components initialized")

	return a, nil
}

func newStatsSource(cfg *config.Config, client *http.Client, openTimeout time.Duration) (telemetry.Source, error) {
	if cfg.StatsSource == config.StatsSourceLocal {
		return telemetry.NewLocalSource(), nil
	}

	source, err := telemetry.NewHTTPSource(telemetry.Config{
		BaseURL:     cfg.BackendURL,
		Client:      client,
		OpenTimeout: openTimeout,
	})
	if err != nil {
		return nil, err
	}

	return source, nil
}

func newLocator(cfg *config.Config, client *http.Client, openTimeout time.Duration) location.Locator {
	switch cfg.Geolocation {
	case config.GeolocationStatic:
		return location.StaticLocator{Coordinate: location.Coordinate{Lat: cfg.Latitude, Lon: cfg.Longitude}}
	case config.GeolocationOff:
		return location.DeniedLocator{}
	default:
		return location.NewIPLocator(cfg.GeolocationURL, client, httpx.WithOpenTimeout(openTimeout))
	}
}

// serve starts the view endpoint when one is configured.
func (a *app) serve() {
	if a.server == nil {
		return
	}

	go func() {
		if err := a.server.Listen(a.cfg.Listen); err != nil {
			logger.Error().Err(err).Msg("View endpoint stopped")
		}
	}()
}

func (a *app) close() {
	a.orch.Stop()

	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Failed to shut down view endpoint")
		}
	}

	if err := a.history.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close history")
	}
}
