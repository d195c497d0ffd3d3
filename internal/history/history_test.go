package history

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(i int) Point {
	return Point{
		Timestamp:      time.UnixMilli(1_700_000_000_000 + int64(i)*1000),
		DeviceTemp:     30 + float64(i),
		AmbientTemp:    25,
		DeviceState:    "charging",
		AlertLevel:     "safe",
		HealthImpact:   0.01 * float64(i),
		StatsVersion:   uint64(i),
		WeatherVersion: 1,
	}
}

func newTestService(t *testing.T, size int) Recorder {
	t.Helper()

	rec, err := NewService(Config{Size: size}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	return rec
}

func TestRecordAndRecent(t *testing.T) {
	rec := newTestService(t, 10)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, rec.Record(ctx, point(i)))
	}

	points, err := rec.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, point(1), points[0])
	assert.Equal(t, point(3), points[2])

	points, err = rec.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, uint64(2), points[0].StatsVersion)
	assert.Equal(t, uint64(3), points[1].StatsVersion)
}

func TestHistoryIsCapped(t *testing.T) {
	rec := newTestService(t, 5)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		require.NoError(t, rec.Record(ctx, point(i)))
	}

	points, err := rec.Recent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, points, 5)
	assert.Equal(t, uint64(8), points[0].StatsVersion)
	assert.Equal(t, uint64(12), points[4].StatsVersion)

	count, err := rec.(*service).repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestRecordRejectsUnknownDeviceState(t *testing.T) {
	rec := newTestService(t, 5)

	p := point(1)
	p.DeviceState = "sleeping"

	err := rec.Record(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrRecordFailed))
}

func TestRecordCancelledContext(t *testing.T) {
	rec := newTestService(t, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rec.Record(ctx, point(1))
	assert.True(t, errors.HasCode(err, ErrOperationTimeout))
}

func TestDisabledHistory(t *testing.T) {
	rec, err := NewService(Config{Size: 0}, nil)
	require.NoError(t, err)

	require.NoError(t, rec.Record(context.Background(), point(1)))
	points, err := rec.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, points)
	assert.NoError(t, rec.Close())
}

func TestInvalidConfig(t *testing.T) {
	_, err := NewService(Config{Size: -1}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidSize))
}

func TestSchemaVersionRecorded(t *testing.T) {
	rec := newTestService(t, 5)

	version, err := schemaVersion(rec.(*service).repo.(*repository).db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestEachServiceStartsEmpty(t *testing.T) {
	first := newTestService(t, 5)
	require.NoError(t, first.Record(context.Background(), point(1)))

	second := newTestService(t, 5)
	points, err := second.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, points)

	version, err := schemaVersion(second.(*service).repo.(*repository).db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}
