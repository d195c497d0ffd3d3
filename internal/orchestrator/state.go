package orchestrator

import (
	"time"

	"codeberg.org/mutker/thermosense/internal/advisory"
	"codeberg.org/mutker/thermosense/internal/fusion"
	"codeberg.org/mutker/thermosense/internal/location"
	"codeberg.org/mutker/thermosense/internal/telemetry"
	"codeberg.org/mutker/thermosense/internal/weather"
)

// State is a point-in-time copy of everything the orchestrator holds. Nil
// facets have not been received yet.
type State struct {
	Stats           *telemetry.Snapshot
	Weather         *weather.Snapshot
	Advisory        *advisory.Result
	Coordinate      *location.Coordinate
	LastStatsUpdate time.Time

	StatsVersion   uint64
	WeatherVersion uint64

	// AdvisoryBasis is the reading and versions the held advisory was
	// computed from.
	AdvisoryBasis *Basis

	Errors FacetErrors
}

// Basis identifies the consistent (stats, weather) pair behind an advisory.
type Basis struct {
	Reading        fusion.Reading
	StatsVersion   uint64
	WeatherVersion uint64
}

// FacetErrors holds the error of the latest failed call per facet. A
// successful call clears its facet.
type FacetErrors struct {
	Stats    error
	Weather  error
	Advisory error
}

// Ready reports whether both inputs of the advisory are present.
func (s State) Ready() bool {
	return s.Stats != nil && s.Weather != nil
}

func (s State) clone() State {
	out := s
	if s.Stats != nil {
		stats := *s.Stats
		out.Stats = &stats
	}
	if s.Weather != nil {
		w := *s.Weather
		out.Weather = &w
	}
	if s.Advisory != nil {
		res := *s.Advisory
		out.Advisory = &res
	}
	if s.Coordinate != nil {
		coord := *s.Coordinate
		out.Coordinate = &coord
	}
	if s.AdvisoryBasis != nil {
		basis := *s.AdvisoryBasis
		out.AdvisoryBasis = &basis
	}

	return out
}
