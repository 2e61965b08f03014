// Package scheduler drives the two-view rotation: every tick it captures a
// snapshot, formats the current view and pushes it to its display event.
package scheduler

import (
	"context"
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/gamesense"
	"codeberg.org/mutker/hwoled/internal/history"
	"codeberg.org/mutker/hwoled/internal/logger"
	"codeberg.org/mutker/hwoled/internal/telemetry"
	"codeberg.org/mutker/hwoled/internal/view"
)

type Option func(*Scheduler)

func WithRecorder(r history.Recorder) Option {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

type Scheduler struct {
	cfg      Config
	source   telemetry.Source
	events   EventManager
	recorder history.Recorder
	observer Observer
	logger   logger.Logger
}

func New(cfg Config, source telemetry.Source, events EventManager, log logger.Logger, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		cfg:      cfg,
		source:   source,
		events:   events,
		recorder: history.Noop(),
		observer: nopObserver{},
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Setup announces the game and binds both views. Nothing can be shown
// without the bindings, so any failure is returned.
func (s *Scheduler) Setup(ctx context.Context) error {
	errFactory := errors.New()

	if err := s.events.RegisterGame(ctx, s.cfg.Metadata); err != nil {
		return errFactory.Wrap(ErrSetupFailed, err)
	}

	for _, id := range []gamesense.EventID{EventTemperature, EventClock} {
		if err := s.events.Register(ctx, id); err != nil {
			return errFactory.Wrap(ErrSetupFailed, err)
		}
		binding := gamesense.BuildBinding(s.events.Game(), id, gamesense.ThreeLines(), s.cfg.FrameDuration)
		if err := s.events.Bind(ctx, binding); err != nil {
			return errFactory.Wrap(ErrSetupFailed, err)
		}
		s.logger.Debug().Str("event", id.String()).Msg("Screen bound")
	}

	s.logger.Info().Str("game", s.events.Game()).Msg("Screens ready")

	return nil
}

// Teardown removes both views and the game, plus any per-sensor events
// named after the groups in the current snapshot. Failures are logged by
// the event manager.
func (s *Scheduler) Teardown(ctx context.Context) {
	if snapshot, err := s.source.Snapshot(ctx); err == nil {
		for _, group := range snapshot.Groups() {
			id := gamesense.Sanitize(group)
			if id.IsValid() && id != EventTemperature && id != EventClock {
				s.events.Remove(ctx, id)
			}
		}
	}

	s.events.Remove(ctx, EventTemperature)
	s.events.Remove(ctx, EventClock)
	s.events.RemoveGame(ctx)
	s.logger.Info().Msg("Screens removed")
}

// Run ticks until ctx is cancelled. Tick errors are logged and the loop
// carries on with the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Int("hold", s.cfg.Hold).
		Msg("Rotation started")

	var state RotationState
	for {
		next, err := s.Tick(ctx, state)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.observer.TickFailed(err)
			s.logger.Warn().Err(err).Msg("Tick skipped")
		}
		state = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick renders and pushes one frame. The returned state has advanced only
// if a frame was handed to the event manager.
func (s *Scheduler) Tick(ctx context.Context, state RotationState) (RotationState, error) {
	errFactory := errors.New()

	snapshot, err := s.source.Snapshot(ctx)
	if err != nil {
		return state, errFactory.Wrap(ErrSnapshotFailed, err)
	}

	kind, id, rows := s.current(state)

	group, err := s.resolveGroup(snapshot)
	if err != nil {
		return state, err
	}
	first, err := pair(snapshot, group, rows.First)
	if err != nil {
		return state, err
	}
	second, err := pair(snapshot, group, rows.Second)
	if err != nil {
		return state, err
	}

	frame, err := view.Format(kind, first, second)
	if err != nil {
		return state, errFactory.Wrap(ErrFormatFailed, err)
	}

	if err := s.dispatch(ctx, id, frame); err != nil {
		return state, err
	}

	s.observer.FrameDispatched(kind.String())
	if err := s.recorder.Record(ctx, &history.FrameRecord{
		Timestamp: snapshot.Taken,
		Event:     id.String(),
		View:      kind.String(),
		Labels:    frame[gamesense.KeyLabels],
		Row1:      frame[gamesense.KeyRow1],
		Row2:      frame[gamesense.KeyRow2],
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record frame")
	}

	return state.Advance(s.cfg.Hold), nil
}

func (s *Scheduler) current(state RotationState) (view.Kind, gamesense.EventID, RowReadings) {
	if state.ViewToggle {
		return view.ClockSpeed, EventClock, s.cfg.Clocks
	}
	return view.Temperature, EventTemperature, s.cfg.Temperatures
}

// dispatch hands frame to the manager. Rejections known at call time fail
// the tick; a push dropped because the previous one is still in flight
// does not.
func (s *Scheduler) dispatch(ctx context.Context, id gamesense.EventID, frame gamesense.Frame) error {
	result := s.events.Push(ctx, id, frame)

	select {
	case <-result.Done():
	default:
		return nil
	}

	err := result.Err()
	switch {
	case err == nil:
		return nil
	case errors.HasCode(err, gamesense.ErrPushInFlight):
		s.logger.Debug().Str("event", id.String()).Msg("Previous frame still in flight, dropped")
		return nil
	case errors.HasCode(err, gamesense.ErrNotBound), errors.HasCode(err, gamesense.ErrIncompleteFrame):
		return errors.New().Wrap(ErrPushRejected, err)
	default:
		return nil
	}
}

func (s *Scheduler) resolveGroup(snapshot *telemetry.Snapshot) (string, error) {
	if s.cfg.Group != "" {
		if snapshot.Readings(s.cfg.Group) == nil {
			return "", errors.New().WithMessage(ErrReadingNotFound, "sensor group "+s.cfg.Group+" not in snapshot")
		}
		return s.cfg.Group, nil
	}

	group, ok := snapshot.FindGroupWith(s.cfg.Temperatures.First)
	if !ok {
		return "", errors.New().WithMessage(ErrReadingNotFound, "no sensor group carries "+s.cfg.Temperatures.First)
	}
	return group, nil
}

func pair(snapshot *telemetry.Snapshot, group, name string) (view.Pair, error) {
	r, ok := snapshot.Reading(group, name)
	if !ok {
		return view.Pair{}, errors.New().WithMessage(ErrReadingNotFound, "reading "+name+" not in "+group)
	}
	return view.Pair{Current: r.Current, Average: r.Average}, nil
}
