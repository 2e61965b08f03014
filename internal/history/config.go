package history

import (
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
)

const (
	defaultDirPerm      = 0o755
	defaultBatchSize    = 30
	defaultBatchTimeout = 10 * time.Second
)

type Config struct {
	Enabled      bool
	DBPath       string
	BackupDir    string // empty puts backups next to the database
	BatchSize    int
	BatchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate the rest if recording is enabled
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 1 {
		return errFactory.WithMessage(ErrInvalidConfig, "history batch size must be at least 1")
	}

	return nil
}
