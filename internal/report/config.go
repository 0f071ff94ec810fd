package report

import (
	"path/filepath"

	"codeberg.org/mutker/powertrace/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm   = 0o755
	defaultBatchSize = 100
)

type Config struct {
	DBPath    string
	BatchSize int
	BackupDir string
}

// Enabled reports whether results are recorded at all
func (c Config) Enabled() bool {
	return c.DBPath != ""
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.BatchSize < 0 {
		return errFactory.WithMessage(ErrInvalidConfig, "batch size must not be negative")
	}
	return nil
}

func (c Config) batchSize() int {
	if c.BatchSize == 0 {
		return defaultBatchSize
	}
	return c.BatchSize
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}
