//go:build linux

package gpu

import (
	"sync"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const milliWattsToWatts = 1000

type GPU struct {
	lib    library
	device deviceHandle
	index  int
	name   string
	logger logger.Logger
	mu     sync.Mutex
}

// New initializes NVML and opens the device at index.
func New(index int, log logger.Logger) (*GPU, error) {
	return open(&nvmlLibrary{}, index, log)
}

func open(lib library, index int, log logger.Logger) (*GPU, error) {
	errFactory := errors.New()

	if err := lib.Init(); err != nil {
		return nil, err
	}

	count, err := lib.DeviceCount()
	if err != nil {
		_ = lib.Shutdown()
		return nil, err
	}
	if index < 0 || index >= count {
		_ = lib.Shutdown()
		return nil, errFactory.WithData(ErrDeviceNotFound, struct {
			Index int
			Count int
		}{
			Index: index,
			Count: count,
		})
	}

	device, err := lib.Device(index)
	if err != nil {
		_ = lib.Shutdown()
		return nil, err
	}

	g := &GPU{
		lib:    lib,
		device: device,
		index:  index,
		logger: log,
	}
	g.initialize()

	return g, nil
}

func (g *GPU) initialize() {
	if name, ret := g.device.GetName(); ret == nvml.SUCCESS {
		g.name = name
		g.logger.Info().Msgf("Detected GPU: %v", name)
	} else {
		g.name = "NVIDIA GPU"
		g.logger.Warn().Msgf("Failed to get GPU name: %v", nvml.ErrorString(ret))
	}
}

func (g *GPU) Name() string {
	return g.name
}

func (g *GPU) Index() int {
	return g.index
}

// Sample reads all sensors. Temperature and graphics clock are required;
// the rest are reported when the board supports them.
func (g *GPU) Sample() (Sample, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var s Sample

	temp, ret := g.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if err := check(ErrTemperatureReadFailed, ret); err != nil {
		return Sample{}, err
	}
	s.Temperature = float64(temp)

	clock, ret := g.device.GetClockInfo(nvml.CLOCK_GRAPHICS)
	if err := check(ErrClockReadFailed, ret); err != nil {
		return Sample{}, err
	}
	s.GraphicsClock = float64(clock)

	if v, ok := g.optional("memory clock", func() (uint32, nvml.Return) { return g.device.GetClockInfo(nvml.CLOCK_MEM) }); ok {
		s.MemoryClock, s.HasMemoryClock = float64(v), true
	}
	if v, ok := g.optional("SM clock", func() (uint32, nvml.Return) { return g.device.GetClockInfo(nvml.CLOCK_SM) }); ok {
		s.SMClock, s.HasSMClock = float64(v), true
	}
	if v, ok := g.optional("fan speed", g.device.GetFanSpeed); ok {
		s.FanSpeed, s.HasFanSpeed = float64(v), true
	}
	if v, ok := g.optional("power usage", g.device.GetPowerUsage); ok {
		s.PowerDraw, s.HasPowerDraw = float64(v)/milliWattsToWatts, true
	}

	return s, nil
}

func (g *GPU) optional(what string, read func() (uint32, nvml.Return)) (uint32, bool) {
	v, ret := read()
	switch ret {
	case nvml.SUCCESS:
		return v, true
	case nvml.ERROR_NOT_SUPPORTED:
	default:
		g.logger.Debug().Msgf("Failed to read %s: %s", what, nvml.ErrorString(ret))
	}

	return 0, false
}

func (g *GPU) Shutdown() error {
	return g.lib.Shutdown()
}
