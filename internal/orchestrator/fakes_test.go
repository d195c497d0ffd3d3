package orchestrator

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/thermosense/internal/advisory"
	"codeberg.org/mutker/thermosense/internal/fusion"
	"codeberg.org/mutker/thermosense/internal/history"
	"codeberg.org/mutker/thermosense/internal/location"
	"codeberg.org/mutker/thermosense/internal/telemetry"
	"codeberg.org/mutker/thermosense/internal/weather"
)

type fakeStats struct {
	mu    sync.Mutex
	calls int
	snap  telemetry.Snapshot
	errs  []error
	block bool
}

func (f *fakeStats) FetchStats(ctx context.Context) (telemetry.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return telemetry.Snapshot{}, ctx.Err()
	}
	if call <= len(f.errs) && f.errs[call-1] != nil {
		return telemetry.Snapshot{}, f.errs[call-1]
	}

	return f.snap, nil
}

func (f *fakeStats) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type fakeResolver struct {
	mu    sync.Mutex
	calls int
	coord location.Coordinate
}

func (f *fakeResolver) Resolve(context.Context) location.Coordinate {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.coord
}

func (f *fakeResolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type fakeWeather struct {
	mu     sync.Mutex
	coords []location.Coordinate
	snap   weather.Snapshot
	errs   []error
}

func (f *fakeWeather) Name() string {
	return "fake"
}

func (f *fakeWeather) Fetch(_ context.Context, coord location.Coordinate) (weather.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.coords = append(f.coords, coord)
	if call := len(f.coords); call <= len(f.errs) && f.errs[call-1] != nil {
		return weather.Snapshot{}, f.errs[call-1]
	}

	return f.snap, nil
}

func (f *fakeWeather) Coords() []location.Coordinate {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]location.Coordinate(nil), f.coords...)
}

// fakeAdvisory answers through respond, which may block.
type fakeAdvisory struct {
	mu       sync.Mutex
	readings []fusion.Reading
	respond  func(ctx context.Context, r fusion.Reading) (advisory.Result, error)
}

func (f *fakeAdvisory) FetchAdvisory(ctx context.Context, r fusion.Reading) (advisory.Result, error) {
	f.mu.Lock()
	f.readings = append(f.readings, r)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return advisory.Result{AlertLevel: advisory.AlertSafe}, nil
	}

	return respond(ctx, r)
}

func (f *fakeAdvisory) Readings() []fusion.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]fusion.Reading(nil), f.readings...)
}

func (f *fakeAdvisory) Calls() int {
	return len(f.Readings())
}

// slowRecorder keeps points in memory and delays even stats versions so
// concurrent writers would overtake each other without ordering.
type slowRecorder struct {
	mu     sync.Mutex
	points []history.Point
}

func (r *slowRecorder) Record(_ context.Context, p history.Point) error {
	if p.StatsVersion%2 == 0 {
		time.Sleep(time.Millisecond)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.points = append(r.points, p)

	return nil
}

func (r *slowRecorder) Recent(_ context.Context, n int) ([]history.Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > len(r.points) {
		n = len(r.points)
	}

	return append([]history.Point(nil), r.points[len(r.points)-n:]...), nil
}

func (r *slowRecorder) Close() error {
	return nil
}
