package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/hellobakery/internal/errors"
	"codeberg.org/mutker/hellobakery/internal/logger"
)

// SchemaVersion is stored in the database header (PRAGMA user_version).
// Bump it whenever a table definition below changes.
const SchemaVersion = 1

type table struct {
	name string
	ddl  []string
}

// tables is the complete schema, in creation order.
var tables = []table{
	{
		name: "check_runs",
		ddl: []string{
			`CREATE TABLE check_runs (
			    run_id     TEXT PRIMARY KEY,
			    timestamp  INTEGER NOT NULL,
			    service    TEXT NOT NULL,
			    state      INTEGER NOT NULL CHECK (state IN (0, 1, 2, 3)),
			    summary    TEXT NOT NULL,
			    stale      INTEGER NOT NULL CHECK (stale IN (0, 1)),
			    value      REAL
			)`,
			`CREATE INDEX check_runs_service_ts ON check_runs (service, timestamp)`,
		},
	},
}

const (
	insertRunSQL = `
    INSERT INTO check_runs (
        run_id, timestamp, service, state, summary, stale, value
    ) VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectSeriesSQL = `
    SELECT run_id, timestamp, service, state, summary, stale, value
    FROM check_runs
    WHERE service = ? AND timestamp >= ?
    ORDER BY timestamp, rowid`
)

// Version returns the schema version recorded in db, 0 for a database
// this package never initialized.
func Version(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, errors.New().Wrap(ErrSchema, err)
	}
	return version, nil
}

// migrate brings db to SchemaVersion. History is disposable: a database
// with any other version or with foreign tables is copied to backupDir and
// rebuilt empty.
func migrate(db *sql.DB, backupDir string, log logger.Logger) error {
	errFactory := errors.New()

	version, err := Version(db)
	if err != nil {
		return err
	}
	if version == SchemaVersion {
		log.Debug().Int("version", version).Msg("History schema is current")
		return nil
	}

	var existing int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table'`).Scan(&existing); err != nil {
		return errFactory.Wrap(ErrSchema, err)
	}
	if existing > 0 {
		if err := backup(db, version, backupDir, log); err != nil {
			return err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchema, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tables {
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + t.name); err != nil {
			return errFactory.WithData(ErrSchema, t.name+": "+err.Error())
		}
		for _, stmt := range t.ddl {
			if _, err := tx.Exec(stmt); err != nil {
				return errFactory.WithData(ErrSchema, t.name+": "+err.Error())
			}
		}
	}

	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return errFactory.Wrap(ErrSchema, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchema, err)
	}

	log.Info().
		Int("from", version).
		Int("to", SchemaVersion).
		Msg("History schema created")

	return nil
}

// backup copies db to backupDir/history_v<version>_<utc>.db. VACUUM INTO
// must run outside a transaction.
func backup(db *sql.DB, version int, backupDir string, log logger.Logger) error {
	errFactory := errors.New()

	if err := os.MkdirAll(backupDir, defaultDirPerm); err != nil {
		return errFactory.Wrap(ErrBackup, err)
	}

	path := filepath.Join(backupDir,
		fmt.Sprintf("history_v%d_%s.db", version, time.Now().UTC().Format("20060102T150405Z")))

	if _, err := db.Exec("VACUUM INTO '" + strings.ReplaceAll(path, "'", "''") + "'"); err != nil {
		return errFactory.WithData(ErrBackup, path+": "+err.Error())
	}

	log.Info().Str("path", path).Int("version", version).Msg("History database backed up")

	return nil
}
