package gamesense

import (
	"context"
	"sort"
	"sync"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/logger"
)

// indicatorValue fills data.value; the service needs a number for its icon
// indicator even when only the frame text is shown.
const indicatorValue = 24

// State is the lifecycle position of one event.
type State int

const (
	StateUnregistered State = iota
	StateRegistered
	StateBound
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateBound:
		return "bound"
	default:
		return "unregistered"
	}
}

// Metadata describes the game namespace to the display service.
type Metadata struct {
	DisplayName       string
	Developer         string
	DeinitializeTimer int // milliseconds, 0 keeps the service default
}

type metadataDocument struct {
	Game              string `json:"game"`
	DisplayName       string `json:"game_display_name,omitempty"`
	Developer         string `json:"developer,omitempty"`
	DeinitializeTimer int    `json:"deinitialize_timer_length_ms,omitempty"`
}

type registerDocument struct {
	Game          string  `json:"game"`
	Event         EventID `json:"event"`
	ValueOptional bool    `json:"value_optional"`
}

type eventData struct {
	Value int   `json:"value"`
	Frame Frame `json:"frame"`
}

type eventDocument struct {
	Game          string    `json:"game"`
	Event         EventID   `json:"event"`
	ValueOptional bool      `json:"value_optional"`
	Data          eventData `json:"data"`
}

type removeEventDocument struct {
	Game  string  `json:"game"`
	Event EventID `json:"event"`
}

type gameDocument struct {
	Game string `json:"game"`
}

type eventEntry struct {
	state    State
	binding  Binding
	inFlight bool
}

// Manager owns the event lifecycle table of one game and issues the
// register/bind/push/remove calls for it.
type Manager struct {
	poster Poster
	game   string
	logger logger.Logger

	mu     sync.Mutex
	events map[EventID]*eventEntry
	wg     sync.WaitGroup
}

// NewManager returns a Manager for game.
func NewManager(poster Poster, game string, log logger.Logger) *Manager {
	return &Manager{
		poster: poster,
		game:   game,
		logger: log,
		events: make(map[EventID]*eventEntry),
	}
}

// Game returns the game namespace.
func (m *Manager) Game() string {
	return m.game
}

// RegisterGame sends the game metadata.
func (m *Manager) RegisterGame(ctx context.Context, meta Metadata) error {
	doc := metadataDocument{
		Game:              m.game,
		DisplayName:       meta.DisplayName,
		Developer:         meta.Developer,
		DeinitializeTimer: meta.DeinitializeTimer,
	}
	if err := m.poster.Post(ctx, EndpointMetadata, doc); err != nil {
		return errors.New().Wrap(ErrMetadata, err)
	}

	m.logger.Debug().Str("game", m.game).Msg("Game metadata registered")

	return nil
}

// Register registers id. Registering an event twice is harmless.
func (m *Manager) Register(ctx context.Context, id EventID) error {
	errFactory := errors.New()
	if !id.IsValid() {
		return errFactory.WithData(ErrInvalidEvent, string(id))
	}

	doc := registerDocument{Game: m.game, Event: id, ValueOptional: true}
	if err := m.poster.Post(ctx, EndpointRegisterEvent, doc); err != nil {
		return errFactory.Wrap(ErrRegister, err)
	}

	m.mu.Lock()
	entry := m.entry(id)
	if entry.state < StateRegistered {
		entry.state = StateRegistered
	}
	m.mu.Unlock()

	m.logger.Debug().Str("event", string(id)).Msg("Event registered")

	return nil
}

// Bind binds b to its event, replacing any earlier binding.
func (m *Manager) Bind(ctx context.Context, b Binding) error {
	errFactory := errors.New()
	if !b.Event.IsValid() {
		return errFactory.WithData(ErrInvalidEvent, string(b.Event))
	}
	if len(b.Handlers) == 0 {
		return errFactory.WithData(ErrInvalidBinding, "binding has no handlers")
	}
	if b.Game == "" {
		b.Game = m.game
	}

	if err := m.poster.Post(ctx, EndpointBindEvent, b); err != nil {
		return errFactory.Wrap(ErrBind, err)
	}

	m.mu.Lock()
	entry := m.entry(b.Event)
	entry.state = StateBound
	entry.binding = b
	m.mu.Unlock()

	m.logger.Debug().
		Str("event", string(b.Event)).
		Strs("keys", b.FrameKeys()).
		Msg("Event bound")

	return nil
}

// Push sends frame to a bound event without waiting for the reply. Contract
// violations (unbound event, missing placeholder keys) and a push that is
// still in flight for the same event complete the Result immediately; the
// frame is then not sent.
func (m *Manager) Push(ctx context.Context, id EventID, frame Frame) *Result {
	errFactory := errors.New()

	m.mu.Lock()
	entry, ok := m.events[id]
	switch {
	case !ok || entry.state != StateBound:
		m.mu.Unlock()
		err := errFactory.WithData(ErrNotBound, string(id))
		m.logger.Error().Err(err).Str("event", string(id)).Msg("Frame pushed before bind")
		return completedResult(err)
	case len(frame.Missing(entry.binding)) > 0:
		missing := frame.Missing(entry.binding)
		m.mu.Unlock()
		return completedResult(errFactory.WithData(ErrIncompleteFrame, missing))
	case entry.inFlight:
		m.mu.Unlock()
		return completedResult(errFactory.WithData(ErrPushInFlight, string(id)))
	}
	entry.inFlight = true
	m.mu.Unlock()

	doc := eventDocument{
		Game:          m.game,
		Event:         id,
		ValueOptional: true,
		Data: eventData{
			Value: indicatorValue,
			Frame: copyFrame(frame),
		},
	}

	res := newResult()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		err := m.poster.Post(ctx, EndpointGameEvent, doc)

		m.mu.Lock()
		entry.inFlight = false
		m.mu.Unlock()

		if err != nil {
			err = errFactory.Wrap(ErrPush, err)
			m.logger.Warn().Err(err).Str("event", string(id)).Msg("Frame push failed")
		}
		res.complete(err)
	}()

	return res
}

// Remove removes id from the service. Failures are logged, never returned.
func (m *Manager) Remove(ctx context.Context, id EventID) {
	doc := removeEventDocument{Game: m.game, Event: id}
	if err := m.poster.Post(ctx, EndpointRemoveEvent, doc); err != nil {
		m.logger.Debug().Err(err).Str("event", string(id)).Msg("Failed to remove event")
	}

	m.mu.Lock()
	delete(m.events, id)
	m.mu.Unlock()
}

// RemoveGame removes the whole game namespace and clears the table.
// Failures are logged, never returned.
func (m *Manager) RemoveGame(ctx context.Context) {
	if err := m.poster.Post(ctx, EndpointRemoveGame, gameDocument{Game: m.game}); err != nil {
		m.logger.Debug().Err(err).Str("game", m.game).Msg("Failed to remove game")
	}

	m.mu.Lock()
	m.events = make(map[EventID]*eventEntry)
	m.mu.Unlock()
}

// Heartbeat keeps the game alive on the service.
func (m *Manager) Heartbeat(ctx context.Context) error {
	if err := m.poster.Post(ctx, EndpointHeartbeat, gameDocument{Game: m.game}); err != nil {
		return errors.New().Wrap(ErrHeartbeat, err)
	}

	return nil
}

// State returns the lifecycle state of id.
func (m *Manager) State(id EventID) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.events[id]; ok {
		return entry.state
	}

	return StateUnregistered
}

// Events lists the known events in lexical order.
func (m *Manager) Events() []EventID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]EventID, 0, len(m.events))
	for id := range m.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Wait blocks until every push in flight has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// entry must be called with m.mu held.
func (m *Manager) entry(id EventID) *eventEntry {
	entry, ok := m.events[id]
	if !ok {
		entry = &eventEntry{}
		m.events[id] = entry
	}

	return entry
}

func copyFrame(f Frame) Frame {
	out := make(Frame, len(f))
	for k, v := range f {
		out[k] = v
	}

	return out
}
