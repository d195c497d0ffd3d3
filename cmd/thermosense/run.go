package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/mutker/thermosense/internal/classify"
	"codeberg.org/mutker/thermosense/internal/dashboard"
	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/logger"
	"codeberg.org/mutker/thermosense/internal/orchestrator"
	"codeberg.org/mutker/thermosense/internal/pid"
	"codeberg.org/mutker/thermosense/internal/view"
)

func runDashboard(ctx context.Context, a *app) error {
	if err := a.orch.Start(ctx); err != nil {
		return err
	}
	a.serve()

	program := tea.NewProgram(
		dashboard.New(a.orch, a.history, a.cfg.Interval),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	return nil
}

// runMonitor logs every state change until ctx is cancelled.
func runMonitor(ctx context.Context, a *app) error {
	pidFile := pid.Default()
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}()

	logger.Info().Msg("Monitor mode activated. Logging device state...")

	if err := a.orch.Start(ctx); err != nil {
		return err
	}
	a.serve()

	var last logged
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-a.orch.Updates():
			if !ok {
				return nil
			}
			last = logState(a.orch.State(), a.cfg.Interval, last)
		}
	}
}

// logged remembers what was last written so unchanged facets stay quiet.
type logged struct {
	statsVersion uint64
	weather      uint64
	advisoryAt   time.Time
}

func logState(state orchestrator.State, interval time.Duration, last logged) logged {
	if state.Stats != nil && state.StatsVersion != last.statsVersion {
		d := view.Build(state, time.Now(), interval)
		logger.Info().
			Str("battery", d.Battery.Value).
			Bool("charging", state.Stats.Charging).
			Str("temperature", d.Temperature.Title+" "+d.Temperature.Value).
			Str("cpu_load", d.CPULoad.Value).
			Str("memory", d.Memory.Value).
			Str("platform", d.Platform.Sub).
			Msg("Device stats")
		last.statsVersion = state.StatsVersion
	}

	if w := state.Weather; w != nil && state.WeatherVersion != last.weather {
		logger.Info().
			Str("location", w.LocationName).
			Float64("temp", w.Temp).
			Str("condition", w.Condition).
			Msg("Ambient weather")
		last.weather = state.WeatherVersion
	}

	if res := state.Advisory; res != nil && !res.ResolvedAt.Equal(last.advisoryAt) {
		event := logger.Info()
		if classify.AlertTier(res.AlertLevel) != classify.TierSafe {
			event = logger.Warn()
		}
		event.
			Str("status", classify.StatusText(res)).
			Str("tip", res.NarrativeTip).
			Float64("health_impact", res.PredictedHealthImpact).
			Msg("Advisory")
		if res.OptionalAction != nil {
			logger.Info().Str("action", *res.OptionalAction).Msg("Suggested action")
		}
		last.advisoryAt = res.ResolvedAt
	}

	return last
}
