package history

import (
	"context"
	"time"
)

// Recorder stores frames that were dispatched to the display.
type Recorder interface {
	Record(ctx context.Context, frame *FrameRecord) error
	Close() error
	Enabled() bool
}

type repository interface {
	Record(frame *FrameRecord) error
	Close() error
}

// FrameRecord is one dispatched frame.
type FrameRecord struct {
	Timestamp time.Time
	Event     string
	View      string
	Labels    string
	Row1      string
	Row2      string
}
