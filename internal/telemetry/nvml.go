package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/gpu"
	"codeberg.org/mutker/hwoled/internal/logger"
)

// Reading names produced by NVMLSource.
const (
	ReadingGPUTemperature = "GPU Temperature"
	ReadingGPUClock       = "GPU Clock"
	ReadingGPUMemoryClock = "GPU Memory Clock"
	ReadingGPUSMClock     = "GPU SM Clock"
	ReadingGPUFan         = "GPU Fan"
	ReadingGPUPower       = "GPU Power"
)

// NVMLSource turns GPU samples into a one-group snapshot and keeps the
// min/max/average columns itself, since NVML only reports current values.
type NVMLSource struct {
	sampler    gpu.Sampler
	group      string
	windowSize int
	history    map[string]*gpu.History
	logger     logger.Logger
}

// NewNVMLSource wraps sampler. windowSize is the number of samples averaged;
// 0 averages over the whole session.
func NewNVMLSource(sampler gpu.Sampler, windowSize int, log logger.Logger) *NVMLSource {
	return &NVMLSource{
		sampler:    sampler,
		group:      fmt.Sprintf("GPU [#%d]: %s", sampler.Index(), sampler.Name()),
		windowSize: windowSize,
		history:    make(map[string]*gpu.History),
		logger:     log,
	}
}

func (s *NVMLSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	errFactory := errors.New()

	select {
	case <-ctx.Done():
		return nil, errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	sample, err := s.sampler.Sample()
	if err != nil {
		return nil, errFactory.Wrap(ErrSampleFailed, err)
	}

	snapshot := NewSnapshot(time.Now())
	s.add(snapshot, ReadingGPUTemperature, "°C", sample.Temperature)
	s.add(snapshot, ReadingGPUClock, "MHz", sample.GraphicsClock)
	if sample.HasMemoryClock {
		s.add(snapshot, ReadingGPUMemoryClock, "MHz", sample.MemoryClock)
	}
	if sample.HasSMClock {
		s.add(snapshot, ReadingGPUSMClock, "MHz", sample.SMClock)
	}
	if sample.HasFanSpeed {
		s.add(snapshot, ReadingGPUFan, "%", sample.FanSpeed)
	}
	if sample.HasPowerDraw {
		s.add(snapshot, ReadingGPUPower, "W", sample.PowerDraw)
	}

	return snapshot, nil
}

func (s *NVMLSource) add(snapshot *Snapshot, name, unit string, v float64) {
	h, ok := s.history[name]
	if !ok {
		h = gpu.NewHistory(s.windowSize)
		s.history[name] = h
	}

	avg := h.Update(v)
	low, high := h.Bounds()

	snapshot.Add(s.group, name, Reading{
		Unit:    unit,
		Current: formatValue(v),
		Min:     formatValue(low),
		Max:     formatValue(high),
		Average: formatValue(avg),
	})
}

func (s *NVMLSource) Close() error {
	if err := s.sampler.Shutdown(); err != nil {
		return errors.New().Wrap(ErrSourceShutdown, err)
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
