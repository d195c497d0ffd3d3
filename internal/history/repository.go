package history

import (
	"database/sql"
	"sync"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	size   int
	mu     sync.Mutex
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	db, err := sql.Open("sqlite3", memoryDSN)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	// Every repository starts from an empty database, so there is never an
	// older schema to migrate.
	if err := InitSchema(db, log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "init_schema",
			Error: err.Error(),
		})
	}

	log.Debug().
		Int("schema_version", SchemaVersion).
		Int("size", cfg.Size).
		Msg("History repository initialized")

	return &repository{
		db:     db,
		logger: log,
		size:   cfg.Size,
	}, nil
}

// Insert stores point and drops the oldest rows beyond the configured size.
func (r *repository) Insert(point Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	if _, err := tx.Exec(insertPointSQL,
		point.Timestamp.UnixMilli(),
		point.DeviceTemp,
		point.AmbientTemp,
		point.DeviceState,
		point.AlertLevel,
		point.HealthImpact,
		int64(point.StatsVersion),
		int64(point.WeatherVersion),
	); err != nil {
		r.rollback(tx)
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	if _, err := tx.Exec(trimPointsSQL, r.size); err != nil {
		r.rollback(tx)
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	return nil
}

// Select returns up to n of the newest points, oldest first.
func (r *repository) Select(n int) ([]Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()

	rows, err := r.db.Query(selectRecentSQL, n)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageQuery, err)
	}
	defer rows.Close()

	points := make([]Point, 0, n)
	for rows.Next() {
		var (
			p              Point
			millis         int64
			statsVersion   int64
			weatherVersion int64
		)
		if err := rows.Scan(
			&millis,
			&p.DeviceTemp,
			&p.AmbientTemp,
			&p.DeviceState,
			&p.AlertLevel,
			&p.HealthImpact,
			&statsVersion,
			&weatherVersion,
		); err != nil {
			return nil, errFactory.Wrap(ErrStorageQuery, err)
		}
		p.Timestamp = time.UnixMilli(millis)
		p.StatsVersion = uint64(statsVersion)
		p.WeatherVersion = uint64(weatherVersion)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageQuery, err)
	}

	return points, nil
}

func (r *repository) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	if err := r.db.QueryRow(countPointsSQL).Scan(&n); err != nil {
		return 0, errors.New().Wrap(ErrStorageQuery, err)
	}

	return n, nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Debug().Msg("History repository closed")

	return nil
}

func (r *repository) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.Error().Err(err).Msg("Failed to roll back transaction")
	}
}
