package telemetry_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/gpu"
	"codeberg.org/mutker/hwoled/internal/logger"
	"codeberg.org/mutker/hwoled/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSampler struct {
	samples  []gpu.Sample
	err      error
	calls    int
	shutdown bool
}

func (f *fakeSampler) Name() string { return "NVIDIA GeForce RTX 3080" }
func (f *fakeSampler) Index() int   { return 0 }

func (f *fakeSampler) Sample() (gpu.Sample, error) {
	if f.err != nil {
		return gpu.Sample{}, f.err
	}
	s := f.samples[f.calls%len(f.samples)]
	f.calls++
	return s, nil
}

func (f *fakeSampler) Shutdown() error {
	f.shutdown = true
	return nil
}

func TestNVMLSourceTracksHistory(t *testing.T) {
	sampler := &fakeSampler{samples: []gpu.Sample{
		{Temperature: 50, GraphicsClock: 1500, MemoryClock: 9500, HasMemoryClock: true},
		{Temperature: 60, GraphicsClock: 1900, MemoryClock: 9500, HasMemoryClock: true},
	}}
	src := telemetry.NewNVMLSource(sampler, 0, logger.Nop())

	_, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	s, err := src.Snapshot(context.Background())
	require.NoError(t, err)

	const group = "GPU [#0]: NVIDIA GeForce RTX 3080"
	assert.Equal(t, []string{group}, s.Groups())
	assert.Equal(t, []string{
		telemetry.ReadingGPUTemperature,
		telemetry.ReadingGPUClock,
		telemetry.ReadingGPUMemoryClock,
	}, s.Readings(group))

	r, ok := s.Reading(group, telemetry.ReadingGPUTemperature)
	require.True(t, ok)
	assert.Equal(t, telemetry.Reading{
		Unit:    "°C",
		Current: "60.000",
		Min:     "50.000",
		Max:     "60.000",
		Average: "55.000",
	}, r)

	require.NoError(t, src.Close())
	assert.True(t, sampler.shutdown)
}

func TestNVMLSourceSampleFailure(t *testing.T) {
	src := telemetry.NewNVMLSource(&fakeSampler{err: errors.New().New(gpu.ErrTemperatureReadFailed)}, 0, logger.Nop())

	_, err := src.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, telemetry.ErrSampleFailed))
	assert.True(t, errors.HasCode(err, gpu.ErrTemperatureReadFailed))
}

func TestStaticSource(t *testing.T) {
	snap := telemetry.NewSnapshot(time.Time{})
	src := telemetry.NewStaticSource(snap)

	got, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
