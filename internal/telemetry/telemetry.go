package telemetry

import (
	"context"
	"strings"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/httpx"
)

// HTTPSource reads snapshots from GET /system_stats.
type HTTPSource struct {
	client *httpx.Client
	url    string
	now    func() time.Time
}

func NewHTTPSource(cfg Config) (*HTTPSource, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	return &HTTPSource{
		client: httpx.New("stats", cfg.Client, httpx.WithOpenTimeout(cfg.OpenTimeout)),
		url:    strings.TrimRight(cfg.BaseURL, "/") + statsPath,
		now:    time.Now,
	}, nil
}

// wireSnapshot mirrors the /system_stats payload. Every field is a pointer
// so that absent keys and JSON null are told apart from zero values.
type wireSnapshot struct {
	BatteryPercent  *float64 `json:"battery_percent"`
	Charging        *bool    `json:"charging"`
	BatteryTemp     *float64 `json:"battery_temp"`
	CPUTemp         *float64 `json:"cpu_temp"`
	CPULoad         *float64 `json:"cpu_load"`
	MemPercent      *float64 `json:"mem_percent"`
	ThermalPressure *string  `json:"thermal_pressure"`
	Platform        *string  `json:"platform"`
}

// FetchStats performs one stats call. It does not retry.
func (s *HTTPSource) FetchStats(ctx context.Context) (Snapshot, error) {
	var wire wireSnapshot
	if err := s.client.GetJSON(ctx, s.url, &wire); err != nil {
		return Snapshot{}, err
	}

	return wire.normalize(s.now())
}

func (w wireSnapshot) normalize(at time.Time) (Snapshot, error) {
	errFactory := errors.New()

	if w.CPULoad == nil {
		return Snapshot{}, errFactory.Wrap(errors.ErrMalformedResponse, errFactory.WithData(ErrMissingField, "cpu_load"))
	}
	if w.MemPercent == nil {
		return Snapshot{}, errFactory.Wrap(errors.ErrMalformedResponse, errFactory.WithData(ErrMissingField, "mem_percent"))
	}

	snap := Snapshot{
		BatteryPercent: w.BatteryPercent,
		Charging:       w.Charging != nil && *w.Charging,
		BatteryTemp:    w.BatteryTemp,
		CPUTemp:        w.CPUTemp,
		CPULoad:        *w.CPULoad,
		MemPercent:     *w.MemPercent,
		FetchedAt:      at,
	}

	if w.ThermalPressure != nil {
		if p, ok := ParsePressure(*w.ThermalPressure); ok {
			snap.ThermalPressure = &p
		}
	}
	if w.Platform != nil && strings.TrimSpace(*w.Platform) != "" {
		platform := strings.TrimSpace(*w.Platform)
		snap.Platform = &platform
	}

	return snap, nil
}

// ParsePressure maps a reported level name to a Pressure. Matching is
// case-insensitive; unknown names report false.
func ParsePressure(s string) (Pressure, bool) {
	for _, p := range pressureLevels {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}

	return "", false
}
