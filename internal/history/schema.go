package history

import (
	"database/sql"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS points (
	       id              INTEGER PRIMARY KEY AUTOINCREMENT,
	       timestamp       INTEGER NOT NULL,
	       device_temp     REAL NOT NULL,
	       ambient_temp    REAL NOT NULL,
	       device_state    TEXT NOT NULL CHECK (device_state IN ('charging', 'idle', 'discharging')),
	       alert_level     TEXT NOT NULL,
	       health_impact   REAL NOT NULL,
	       stats_version   INTEGER NOT NULL,
	       weather_version INTEGER NOT NULL
	   );`

	insertPointSQL = `
    INSERT INTO points (
        timestamp,
        device_temp, ambient_temp, device_state,
        alert_level, health_impact,
        stats_version, weather_version
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	trimPointsSQL = `
    DELETE FROM points
    WHERE id NOT IN (SELECT id FROM points ORDER BY id DESC LIMIT ?)`

	selectRecentSQL = `
    SELECT timestamp, device_temp, ambient_temp, device_state,
           alert_level, health_impact, stats_version, weather_version
    FROM (SELECT * FROM points ORDER BY id DESC LIMIT ?)
    ORDER BY id ASC`

	countPointsSQL = `SELECT COUNT(*) FROM points`
)

// InitSchema creates the schema and records its version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating history schema...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "create_tables",
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Debug().
		Int("version", SchemaVersion).
		Msg("History schema initialized")

	return nil
}

// schemaVersion returns the recorded schema version.
func schemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)
	if err != nil {
		return 0, errors.New().Wrap(ErrSchemaValidationFailed, err)
	}

	return version, nil
}
