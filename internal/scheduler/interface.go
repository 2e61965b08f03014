package scheduler

import (
	"context"

	"codeberg.org/mutker/hwoled/internal/gamesense"
)

// EventManager is the part of gamesense.Manager the scheduler drives.
type EventManager interface {
	Game() string
	RegisterGame(ctx context.Context, meta gamesense.Metadata) error
	Register(ctx context.Context, id gamesense.EventID) error
	Bind(ctx context.Context, b gamesense.Binding) error
	Push(ctx context.Context, id gamesense.EventID, frame gamesense.Frame) *gamesense.Result
	Remove(ctx context.Context, id gamesense.EventID)
	RemoveGame(ctx context.Context)
}

// Observer is told about every tick outcome.
type Observer interface {
	FrameDispatched(view string)
	TickFailed(err error)
}

type nopObserver struct{}

func (nopObserver) FrameDispatched(string) {}
func (nopObserver) TickFailed(error)       {}
