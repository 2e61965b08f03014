package gamesense_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/gamesense"
	"codeberg.org/mutker/hwoled/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFrame() gamesense.Frame {
	return gamesense.Frame{
		gamesense.KeyLabels: "GPU  Temp  Avg.",
		gamesense.KeyRow1:   "Mem °C 80\t78",
		gamesense.KeyRow2:   "Hot   °C 68\t65",
	}
}

func bindTemp(t *testing.T, m *gamesense.Manager) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, m.Register(ctx, "GPU_TEMP"))
	require.NoError(t, m.Bind(ctx, gamesense.BuildBinding(m.Game(), "GPU_TEMP", gamesense.ThreeLines(), 0)))
}

func TestManagerLifecycle(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())
	ctx := context.Background()

	assert.Equal(t, gamesense.StateUnregistered, m.State("GPU_TEMP"))

	require.NoError(t, m.Register(ctx, "GPU_TEMP"))
	assert.Equal(t, gamesense.StateRegistered, m.State("GPU_TEMP"))

	require.NoError(t, m.Bind(ctx, gamesense.BuildBinding("HWINFO", "GPU_TEMP", gamesense.ThreeLines(), 0)))
	assert.Equal(t, gamesense.StateBound, m.State("GPU_TEMP"))

	// A second register must not downgrade a bound event.
	require.NoError(t, m.Register(ctx, "GPU_TEMP"))
	assert.Equal(t, gamesense.StateBound, m.State("GPU_TEMP"))

	require.NoError(t, m.Push(ctx, "GPU_TEMP", validFrame()).Wait(ctx))

	m.Remove(ctx, "GPU_TEMP")
	assert.Equal(t, gamesense.StateUnregistered, m.State("GPU_TEMP"))
	assert.Empty(t, m.Events())

	reqs := svc.recorded()
	paths := make([]string, 0, len(reqs))
	for _, r := range reqs {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{
		"/register_game_event",
		"/bind_game_event",
		"/register_game_event",
		"/game_event",
		"/remove_game_event",
	}, paths)

	assert.JSONEq(t, `{"game":"HWINFO","event":"GPU_TEMP","value_optional":true}`, reqs[0].Body)
	assert.JSONEq(t, `{"game":"HWINFO","event":"GPU_TEMP","value_optional":true,"data":{"value":24,"frame":{`+
		`"Labels":"GPU  Temp  Avg.","Row1":"Mem °C 80\t78","Row2":"Hot   °C 68\t65"}}}`, reqs[3].Body)
	assert.JSONEq(t, `{"game":"HWINFO","event":"GPU_TEMP"}`, reqs[4].Body)
}

func TestManagerRegisterRejectsInvalidID(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())

	err := m.Register(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, gamesense.ErrInvalidEvent))
	assert.Empty(t, svc.recorded())
}

func TestManagerRegisterSurfacesTransportError(t *testing.T) {
	svc := newFakeService(t)
	svc.setStatus(http.StatusInternalServerError)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())

	err := m.Register(context.Background(), "GPU_TEMP")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, gamesense.ErrRegister))
	assert.True(t, errors.HasCode(err, gamesense.ErrStatus))
	assert.Equal(t, gamesense.StateUnregistered, m.State("GPU_TEMP"))
}

func TestManagerBindRequiresHandlers(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())

	err := m.Bind(context.Background(), gamesense.Binding{Event: "GPU_TEMP"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, gamesense.ErrInvalidBinding))
}

func TestManagerPushBeforeBind(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())
	ctx := context.Background()

	res := m.Push(ctx, "GPU_TEMP", validFrame())
	err := res.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, gamesense.ErrNotBound))
	assert.Equal(t, err, res.Err())

	require.NoError(t, m.Register(ctx, "GPU_TEMP"))
	err = m.Push(ctx, "GPU_TEMP", validFrame()).Wait(ctx)
	assert.True(t, errors.HasCode(err, gamesense.ErrNotBound), "registered is not bound")

	for _, r := range svc.recorded() {
		assert.NotEqual(t, "/game_event", r.Path)
	}
}

func TestManagerPushIncompleteFrame(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())
	bindTemp(t, m)
	ctx := context.Background()

	frame := validFrame()
	delete(frame, gamesense.KeyRow2)

	err := m.Push(ctx, "GPU_TEMP", frame).Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, gamesense.ErrIncompleteFrame))
}

func TestManagerPushFailureIsObservable(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())
	bindTemp(t, m)
	svc.setStatus(http.StatusServiceUnavailable)
	ctx := context.Background()

	res := m.Push(ctx, "GPU_TEMP", validFrame())
	err := res.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, gamesense.ErrPush))

	// The in-flight flag is released after a failure.
	svc.setStatus(http.StatusOK)
	require.NoError(t, m.Push(ctx, "GPU_TEMP", validFrame()).Wait(ctx))
}

// gatedPoster blocks game_event posts until released.
type gatedPoster struct {
	release chan struct{}
	pushes  atomic.Int32
}

func (p *gatedPoster) Post(ctx context.Context, endpoint gamesense.Endpoint, _ any) error {
	if endpoint != gamesense.EndpointGameEvent {
		return nil
	}
	p.pushes.Add(1)
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestManagerAtMostOnePushInFlight(t *testing.T) {
	poster := &gatedPoster{release: make(chan struct{})}
	m := gamesense.NewManager(poster, "HWINFO", logger.Nop())
	bindTemp(t, m)
	require.NoError(t, m.Bind(context.Background(), gamesense.BuildBinding("HWINFO", "GPU_MHZ", gamesense.ThreeLines(), 0)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := m.Push(ctx, "GPU_TEMP", validFrame())
	second := m.Push(ctx, "GPU_TEMP", validFrame())

	err := second.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, gamesense.ErrPushInFlight))

	// Other events are independent.
	other := m.Push(ctx, "GPU_MHZ", validFrame())

	select {
	case <-first.Done():
		t.Fatal("first push finished before release")
	default:
		assert.NoError(t, first.Err())
	}

	close(poster.release)
	require.NoError(t, first.Wait(ctx))
	require.NoError(t, other.Wait(ctx))

	require.NoError(t, m.Push(ctx, "GPU_TEMP", validFrame()).Wait(ctx))
	m.Wait()
	assert.Equal(t, int32(3), poster.pushes.Load())
}

func TestManagerRemoveSwallowsErrors(t *testing.T) {
	svc := newFakeService(t)
	svc.setStatus(http.StatusInternalServerError)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())

	assert.NotPanics(t, func() {
		m.Remove(context.Background(), "NEVER_REGISTERED")
	})
	require.Len(t, svc.recorded(), 1)
	assert.Equal(t, "/remove_game_event", svc.recorded()[0].Path)

	svc.server.Close()
	assert.NotPanics(t, func() {
		m.Remove(context.Background(), "GPU_TEMP")
		m.RemoveGame(context.Background())
	})
}

func TestManagerRemoveGameClearsTable(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())
	bindTemp(t, m)
	require.NoError(t, m.Register(context.Background(), "GPU_MHZ"))
	assert.Equal(t, []gamesense.EventID{"GPU_MHZ", "GPU_TEMP"}, m.Events())

	m.RemoveGame(context.Background())

	assert.Empty(t, m.Events())
	reqs := svc.recorded()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "/remove_game", last.Path)
	assert.JSONEq(t, `{"game":"HWINFO"}`, last.Body)
}

func TestManagerMetadataAndHeartbeat(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())
	ctx := context.Background()

	require.NoError(t, m.RegisterGame(ctx, gamesense.Metadata{
		DisplayName:       "HWiNFO Stats",
		Developer:         "hwoled",
		DeinitializeTimer: 10000,
	}))
	require.NoError(t, m.Heartbeat(ctx))

	reqs := svc.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/game_metadata", reqs[0].Path)
	assert.JSONEq(t, `{"game":"HWINFO","game_display_name":"HWiNFO Stats","developer":"hwoled",`+
		`"deinitialize_timer_length_ms":10000}`, reqs[0].Body)
	assert.Equal(t, "/game_heartbeat", reqs[1].Path)
}

func TestRunHeartbeat(t *testing.T) {
	svc := newFakeService(t)
	m := gamesense.NewManager(svc.client(t), "HWINFO", logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.RunHeartbeat(ctx, 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		return len(svc.recorded()) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()

	for _, r := range svc.recorded() {
		assert.Equal(t, "/game_heartbeat", r.Path)
	}
}
