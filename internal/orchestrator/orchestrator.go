// Package orchestrator owns the refresh cycle: it polls telemetry, resolves
// the location and weather once, and requests an advisory whenever a new
// consistent pair of stats and weather is available.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/thermosense/internal/advisory"
	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/fusion"
	"codeberg.org/mutker/thermosense/internal/history"
	"codeberg.org/mutker/thermosense/internal/location"
	"codeberg.org/mutker/thermosense/internal/logger"
	"codeberg.org/mutker/thermosense/internal/telemetry"
	"codeberg.org/mutker/thermosense/internal/weather"
	"github.com/go-co-op/gocron"
)

const DefaultPollInterval = 30 * time.Second

// Resolver yields the coordinate used for weather. It must not fail.
type Resolver interface {
	Resolve(ctx context.Context) location.Coordinate
}

type Deps struct {
	Stats    telemetry.Source
	Location Resolver
	Weather  weather.Provider
	Advisory advisory.Fetcher
	History  history.Recorder
	Logger   logger.Logger
}

type Options struct {
	PollInterval time.Duration
	// RetryWeather refetches weather on poll ticks while the initial fetch
	// has not succeeded.
	RetryWeather bool
	Clock        func() time.Time
}

type Orchestrator struct {
	deps Deps
	opts Options
	log  logger.Logger

	mu              sync.Mutex
	historyMu       sync.Mutex
	state           State
	started         bool
	closed          bool
	weatherInFlight bool
	cancel          context.CancelFunc
	scheduler       *gocron.Scheduler
	updates         chan struct{}
	wg              sync.WaitGroup
	stopOnce        sync.Once
}

// capture is a consistent (stats, weather) pair taken in one critical
// section.
type capture struct {
	basis Basis
}

func New(deps Deps, opts Options) (*Orchestrator, error) {
	errFactory := errors.New()

	switch {
	case deps.Stats == nil:
		return nil, errFactory.WithData(ErrMissingDependency, "stats source")
	case deps.Location == nil:
		return nil, errFactory.WithData(ErrMissingDependency, "location resolver")
	case deps.Weather == nil:
		return nil, errFactory.WithData(ErrMissingDependency, "weather provider")
	case deps.Advisory == nil:
		return nil, errFactory.WithData(ErrMissingDependency, "advisory fetcher")
	}

	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Orchestrator{
		deps:    deps,
		opts:    opts,
		log:     deps.Logger,
		updates: make(chan struct{}, 1),
	}, nil
}

// Start polls stats immediately and then every PollInterval, and starts the
// one-shot location and weather sequence. It returns once both are running.
func (o *Orchestrator) Start(ctx context.Context) error {
	errFactory := errors.New()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return errFactory.New(ErrStopped)
	}
	if o.started {
		o.mu.Unlock()
		return errFactory.New(ErrAlreadyStarted)
	}

	ctx, cancel := context.WithCancel(ctx)

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(o.opts.PollInterval).SingletonMode().Do(func() {
		o.pollStats(ctx)
	}); err != nil {
		o.mu.Unlock()
		cancel()
		return errFactory.Wrap(ErrSchedulerFailed, err)
	}

	o.cancel = cancel
	o.scheduler = scheduler
	o.started = true
	o.weatherInFlight = true

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.loadWeather(ctx)
	}()
	o.mu.Unlock()

	scheduler.StartAsync()

	// A concurrent Stop may have run before the scheduler was started.
	o.mu.Lock()
	stopped := o.closed
	o.mu.Unlock()
	if stopped {
		scheduler.Stop()
		return errFactory.New(ErrStopped)
	}

	o.log.Info().
		Dur("interval", o.opts.PollInterval).
		Msg("Refresh orchestrator started")

	return nil
}

// Stop cancels polling and every in-flight call and waits for them to
// return. No state changes after Stop returns. Calling it again is a no-op.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		cancel := o.cancel
		scheduler := o.scheduler
		close(o.updates)
		o.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if scheduler != nil {
			scheduler.Stop()
		}
		o.wg.Wait()

		o.log.Info().Msg("Refresh orchestrator stopped")
	})
}

// State returns a copy of the held state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state.clone()
}

// Updates signals after every state change. Signals coalesce; the channel
// is closed by Stop.
func (o *Orchestrator) Updates() <-chan struct{} {
	return o.updates
}

func (o *Orchestrator) pollStats(ctx context.Context) {
	snap, err := o.deps.Stats.FetchStats(ctx)
	if err != nil {
		o.fail(facetStats, err)
	} else {
		o.applyStats(ctx, snap)
	}

	if o.opts.RetryWeather {
		o.retryWeather(ctx)
	}
}

func (o *Orchestrator) loadWeather(ctx context.Context) {
	coord := o.deps.Location.Resolve(ctx)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.state.Coordinate = &coord
	o.notifyLocked()
	o.mu.Unlock()

	o.log.Debug().Str("coordinate", coord.String()).Msg("Location resolved")

	o.fetchWeather(ctx, coord)
}

func (o *Orchestrator) fetchWeather(ctx context.Context, coord location.Coordinate) {
	w, err := o.deps.Weather.Fetch(ctx, coord)

	o.mu.Lock()
	o.weatherInFlight = false
	o.mu.Unlock()

	if err != nil {
		o.fail(facetWeather, err)
		return
	}

	o.applyWeather(ctx, w)
}

// retryWeather starts a weather fetch from a poll tick when the location is
// known, weather is still missing and no fetch is running.
func (o *Orchestrator) retryWeather(ctx context.Context) {
	o.mu.Lock()
	if o.closed || o.weatherInFlight || o.state.Weather != nil || o.state.Coordinate == nil {
		o.mu.Unlock()
		return
	}
	coord := *o.state.Coordinate
	o.weatherInFlight = true
	o.mu.Unlock()

	o.log.Debug().Msg("Retrying weather fetch")
	o.fetchWeather(ctx, coord)
}

func (o *Orchestrator) applyStats(ctx context.Context, snap telemetry.Snapshot) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	o.state.StatsVersion++
	version := o.state.StatsVersion
	o.state.Stats = &snap
	o.state.LastStatsUpdate = o.opts.Clock()
	o.state.Errors.Stats = nil
	pair, ok := o.captureLocked()
	if ok {
		o.wg.Add(1)
	}
	o.notifyLocked()
	o.mu.Unlock()

	o.log.Debug().
		Uint64("version", version).
		Float64("cpu_load", snap.CPULoad).
		Bool("charging", snap.Charging).
		Msg("Stats updated")

	if ok {
		go o.requestAdvisory(ctx, pair)
	}
}

func (o *Orchestrator) applyWeather(ctx context.Context, w weather.Snapshot) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	o.state.WeatherVersion++
	o.state.Weather = &w
	o.state.Errors.Weather = nil
	pair, ok := o.captureLocked()
	if ok {
		o.wg.Add(1)
	}
	o.notifyLocked()
	o.mu.Unlock()

	o.log.Debug().
		Str("location", w.LocationName).
		Float64("temp", w.Temp).
		Str("condition", w.Condition).
		Msg("Weather updated")

	if ok {
		go o.requestAdvisory(ctx, pair)
	}
}

// captureLocked fuses the held pair. It must be called with o.mu held.
func (o *Orchestrator) captureLocked() (capture, bool) {
	if !o.state.Ready() {
		return capture{}, false
	}

	return capture{basis: Basis{
		Reading:        fusion.Fuse(*o.state.Stats, *o.state.Weather),
		StatsVersion:   o.state.StatsVersion,
		WeatherVersion: o.state.WeatherVersion,
	}}, true
}

// requestAdvisory runs one advisory call. The caller has already added it
// to o.wg.
func (o *Orchestrator) requestAdvisory(ctx context.Context, pair capture) {
	defer o.wg.Done()

	res, err := o.deps.Advisory.FetchAdvisory(ctx, pair.basis.Reading)
	if err != nil {
		o.fail(facetAdvisory, err)
		return
	}

	o.applyAdvisory(ctx, pair, res)
}

// applyAdvisory installs res regardless of the versions it was computed
// from: the most recently resolved call wins. History is written in the
// same order results are applied.
func (o *Orchestrator) applyAdvisory(ctx context.Context, pair capture, res advisory.Result) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	basis := pair.basis
	at := o.opts.Clock()
	o.state.Advisory = &res
	o.state.AdvisoryBasis = &basis
	o.state.Errors.Advisory = nil
	o.notifyLocked()

	o.historyMu.Lock()
	defer o.historyMu.Unlock()
	o.mu.Unlock()

	if !res.AlertLevel.Known() {
		o.log.Debug().
			Str("alert_level", string(res.AlertLevel)).
			Msg("Unknown alert level, shown as safe")
	}

	o.log.Debug().
		Str("alert_level", string(res.AlertLevel)).
		Uint64("stats_version", basis.StatsVersion).
		Uint64("weather_version", basis.WeatherVersion).
		Msg("Advisory updated")

	if o.deps.History == nil {
		return
	}

	if err := o.deps.History.Record(ctx, history.Point{
		Timestamp:      at,
		DeviceTemp:     basis.Reading.DeviceTemp,
		AmbientTemp:    basis.Reading.AmbientTemp,
		DeviceState:    string(basis.Reading.DeviceState),
		AlertLevel:     string(res.AlertLevel),
		HealthImpact:   res.PredictedHealthImpact,
		StatsVersion:   basis.StatsVersion,
		WeatherVersion: basis.WeatherVersion,
	}); err != nil {
		o.log.Warn().Err(err).Msg("Failed to record advisory history")
	}
}

type facet int

const (
	facetStats facet = iota
	facetWeather
	facetAdvisory
)

func (f facet) String() string {
	switch f {
	case facetStats:
		return "stats"
	case facetWeather:
		return "weather"
	default:
		return "advisory"
	}
}

// fail records err for the facet. Held data is left untouched.
func (o *Orchestrator) fail(f facet, err error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	switch f {
	case facetStats:
		o.state.Errors.Stats = err
	case facetWeather:
		o.state.Errors.Weather = err
	case facetAdvisory:
		o.state.Errors.Advisory = err
	}
	o.notifyLocked()
	o.mu.Unlock()

	o.log.Warn().
		Str("facet", f.String()).
		Str("error_code", string(errors.CodeOf(err))).
		Err(err).
		Msg("Refresh failed, keeping previous data")
}

func (o *Orchestrator) notifyLocked() {
	select {
	case o.updates <- struct{}{}:
	default:
	}
}
