package report

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config
	runID  int64
	mu     sync.Mutex
	buffer []cell
}

func newRepository(cfg Config, run Run, log logger.Logger) (*repository, error) {
	errFactory := errors.New()

	// Ensure the directory exists
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

	dsn := cfg.DBPath + "?_journal=WAL&_foreign_keys=1"
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

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		_ = db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := db.Exec(insertRunSQL, run.Trace, run.Start, run.End, created.Unix())
	if err != nil {
		_ = db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		_ = db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.batchSize()).
		Int64("run", runID).
		Msg("Report repository initialized")

	return &repository{
		db:     db,
		logger: log,
		cfg:    cfg,
		runID:  runID,
		buffer: make([]cell, 0, cfg.batchSize()),
	}, nil
}

func (r *repository) record(ctx context.Context, cells []cell) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range cells {
		r.buffer = append(r.buffer, c)
		if len(r.buffer) >= r.cfg.batchSize() {
			if err := r.flush(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *repository) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()

	if err := r.flush(context.Background()); err != nil {
		_ = r.db.Close()
		return errFactory.Wrap(ErrStorageClose, err)
	}

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		_ = r.db.Close()
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Debug().Int64("run", r.runID).Msg("Report repository closed")

	return nil
}

// flush writes the buffer in one transaction. The caller holds r.mu.
func (r *repository) flush(ctx context.Context) error {
	if len(r.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to begin transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertCellSQL)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to prepare statement")
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, c := range r.buffer {
		// NaN is stored as NULL
		value := sql.NullFloat64{Float64: c.value, Valid: !math.IsNaN(c.value)}

		if _, err := stmt.ExecContext(ctx, r.runID, c.ref.Module, c.ref.Namespace, c.ref.Accessor,
			c.label, c.column, value); err != nil {
			r.logger.Error().Err(err).Msg("Failed to execute insert")
			if err := tx.Rollback(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to commit transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	r.logger.Debug().Int("cells", len(r.buffer)).Msg("Flushed results to database")
	r.buffer = r.buffer[:0]

	return nil
}
