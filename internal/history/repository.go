package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/hellobakery/internal/check"
	"codeberg.org/mutker/hellobakery/internal/errors"
	"codeberg.org/mutker/hellobakery/internal/logger"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	mu     sync.Mutex
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	backupDir := cfg.BackupDir
	if backupDir == "" {
		backupDir = filepath.Join(filepath.Dir(cfg.DBPath), "backups")
	}

	if err := migrate(db, backupDir, log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("History repository initialized")

	return &repository{
		db:     db,
		logger: log,
	}, nil
}

func (r *repository) Insert(ctx context.Context, s *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var value any
	if s.Value != nil {
		value = *s.Value
	}

	_, err := r.db.ExecContext(ctx, insertRunSQL,
		s.RunID.String(),
		s.Timestamp.Unix(),
		s.Service,
		int64(s.State),
		s.Summary,
		boolToInt(s.Stale),
		value,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to insert check run")
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *repository) Query(ctx context.Context, service string, since time.Time) ([]Sample, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, selectSeriesSQL, service, since.Unix())
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			runID string
			ts    int64
			state int64
			stale int64
			value sql.NullFloat64
			s     Sample
		)
		if err := rows.Scan(&runID, &ts, &s.Service, &state, &s.Summary, &stale, &value); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		id, err := uuid.Parse(runID)
		if err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		s.RunID = id
		s.Timestamp = time.Unix(ts, 0).UTC()
		s.State = check.State(state)
		s.Stale = stale == 1
		if value.Valid {
			v := value.Float64
			s.Value = &v
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return samples, nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("History repository closed gracefully")

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
