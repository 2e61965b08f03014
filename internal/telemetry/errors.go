package telemetry

import "codeberg.org/mutker/hwoled/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")

	// Collection Errors
	ErrSourceUnavailable = errors.ErrorCode("telemetry_source_unavailable")
	ErrSourceStatus      = errors.ErrorCode("telemetry_source_status")
	ErrMalformedSnapshot = errors.ErrorCode("telemetry_malformed_snapshot")
	ErrSampleFailed      = errors.ErrorCode("telemetry_sample_failed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrorCode("telemetry_operation_timeout")
	ErrSourceShutdown   = errors.ErrorCode("telemetry_source_shutdown_failed")
)
