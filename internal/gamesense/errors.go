package gamesense

import (
	"fmt"

	"codeberg.org/mutker/hwoled/internal/errors"
)

const (
	// Transport Errors
	ErrInvalidAddress = errors.ErrorCode("gamesense_invalid_address")
	ErrMarshal        = errors.ErrorCode("gamesense_marshal_failed")
	ErrRequest        = errors.ErrorCode("gamesense_request_failed")
	ErrStatus         = errors.ErrorCode("gamesense_unexpected_status")

	// Lifecycle Errors
	ErrInvalidEvent    = errors.ErrorCode("gamesense_invalid_event")
	ErrInvalidBinding  = errors.ErrorCode("gamesense_invalid_binding")
	ErrRegister        = errors.ErrorCode("gamesense_register_failed")
	ErrBind            = errors.ErrorCode("gamesense_bind_failed")
	ErrMetadata        = errors.ErrorCode("gamesense_metadata_failed")
	ErrHeartbeat       = errors.ErrorCode("gamesense_heartbeat_failed")
	ErrNotBound        = errors.ErrorCode("gamesense_event_not_bound")
	ErrIncompleteFrame = errors.ErrorCode("gamesense_incomplete_frame")
	ErrPushInFlight    = errors.ErrorCode("gamesense_push_in_flight")
	ErrPush            = errors.ErrorCode("gamesense_push_failed")
)

// StatusError carries a non-2xx reply from the display service.
type StatusError struct {
	Endpoint   Endpoint
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
