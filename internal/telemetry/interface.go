package telemetry

import "context"

// Source produces a fresh snapshot on every call.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Close() error
}
