package scheduler

import (
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/gamesense"
)

const (
	EventTemperature gamesense.EventID = "GPU_TEMP"
	EventClock       gamesense.EventID = "GPU_MHZ"
)

// RowReadings names the two readings shown on a view's rows.
type RowReadings struct {
	First  string
	Second string
}

type Config struct {
	Interval      time.Duration
	Hold          int
	FrameDuration time.Duration
	// Group pins the sensor group; empty picks the first group carrying the
	// first temperature reading.
	Group        string
	Temperatures RowReadings
	Clocks       RowReadings
	Metadata     gamesense.Metadata
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithMessage(ErrInvalidConfig, "interval must be positive")
	}
	if c.Hold < 0 {
		return errFactory.New(errors.ErrInvalidHold)
	}
	for _, name := range []string{c.Temperatures.First, c.Temperatures.Second, c.Clocks.First, c.Clocks.Second} {
		if name == "" {
			return errFactory.WithMessage(ErrInvalidConfig, "every view row needs a reading name")
		}
	}

	return nil
}
