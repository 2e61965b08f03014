package scheduler

import "codeberg.org/mutker/hwoled/internal/errors"

const (
	ErrInvalidConfig   = errors.ErrInvalidConfig
	ErrSnapshotFailed  = errors.ErrorCode("scheduler_snapshot_failed")
	ErrReadingNotFound = errors.ErrorCode("scheduler_reading_not_found")
	ErrFormatFailed    = errors.ErrorCode("scheduler_format_failed")
	ErrPushRejected    = errors.ErrorCode("scheduler_push_rejected")
	ErrSetupFailed     = errors.ErrSetupScreens
)
