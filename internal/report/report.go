package report

import (
	"context"

	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/logger"
	"codeberg.org/mutker/powertrace/internal/table"
)

type service struct {
	repo *repository
}

// No-op implementation
type noopRecorder struct{}

// NewService opens the report store for run. Without a database path it
// returns a recorder that drops everything.
func NewService(cfg Config, run Run, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled() {
		log.Debug().Msg("Report store disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := newRepository(cfg, run, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create report repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Int64("run", repo.runID).
		Msg("Report service initialized successfully")

	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, ref Ref, tbl *table.Table) error {
	errFactory := errors.New()

	if tbl == nil {
		return errFactory.WithMessage(errors.ErrInvalidArgument, "nil result table")
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationCanceled, ctx.Err())
	default:
	}

	cells := make([]cell, 0, tbl.Len()*len(tbl.Columns))
	for _, row := range tbl.Rows {
		for c, col := range tbl.Columns {
			cells = append(cells, cell{ref: ref, label: row.Label, column: col, value: row.Values[c]})
		}
	}

	if err := s.repo.record(ctx, cells); err != nil {
		return errFactory.Wrap(ErrStorageWrite, err)
	}

	return nil
}

func (s *service) Close() error {
	return s.repo.close()
}

// No-op implementation
func (*noopRecorder) Record(_ context.Context, _ Ref, _ *table.Table) error {
	return nil
}

func (*noopRecorder) Close() error {
	return nil
}
