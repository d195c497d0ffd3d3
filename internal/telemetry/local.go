package telemetry

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// cpuSampleWindow is how long CPU usage is measured per snapshot.
const cpuSampleWindow = 300 * time.Millisecond

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// LocalSource collects snapshots from the machine it runs on. Battery and
// thermal pressure readings come from macOS tools and stay nil elsewhere.
type LocalSource struct {
	run        Runner
	cpuLoad    func(ctx context.Context) (float64, error)
	memPercent func(ctx context.Context) (float64, error)
	platform   string
	now        func() time.Time
}

func NewLocalSource() *LocalSource {
	return &LocalSource{
		run:        runCommand,
		cpuLoad:    sampleCPULoad,
		memPercent: sampleMemPercent,
		platform:   runtime.GOOS,
		now:        time.Now,
	}
}

// FetchStats takes one local reading. CPU and memory are required; the
// battery and thermal tools are optional and their failures leave the
// matching fields nil.
func (s *LocalSource) FetchStats(ctx context.Context) (Snapshot, error) {
	errFactory := errors.New()

	load, err := s.cpuLoad(ctx)
	if err != nil {
		return Snapshot{}, errFactory.Wrap(errors.ErrSourceUnavailable, err)
	}
	memory, err := s.memPercent(ctx)
	if err != nil {
		return Snapshot{}, errFactory.Wrap(errors.ErrSourceUnavailable, err)
	}

	snap := Snapshot{
		CPULoad:    load,
		MemPercent: memory,
		FetchedAt:  s.now(),
	}
	if s.platform != "" {
		platform := s.platform
		snap.Platform = &platform
	}

	if s.platform != "darwin" {
		return snap, nil
	}

	if out, err := s.run(ctx, "ioreg", "-r", "-n", "AppleSmartBattery"); err == nil {
		snap.BatteryTemp = ParseBatteryTemperature(out)
		snap.BatteryPercent = ParseBatteryPercent(out)
		snap.Charging = ParseExternalPower(out)
	}

	// -n keeps sudo from prompting; without a sudoers rule this fails quietly.
	if out, err := s.run(ctx, "sudo", "-n", "powermetrics", "-n", "1", "-s", "thermal"); err == nil {
		snap.ThermalPressure = ParseThermalPressure(out)
	}

	return snap, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}

	return string(out), nil
}

func sampleCPULoad(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errors.New().WithMessage(errors.ErrSourceUnavailable, "no cpu usage reported")
	}

	return percents[0], nil
}

func sampleMemPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}

	return vm.UsedPercent, nil
}
