//go:build linux

package gpu

import (
	"testing"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	name     string
	temp     uint32
	tempRet  nvml.Return
	clocks   map[nvml.ClockType]uint32
	fan      uint32
	fanRet   nvml.Return
	power    uint32
	powerRet nvml.Return
}

func (f *fakeHandle) GetName() (string, nvml.Return) {
	return f.name, nvml.SUCCESS
}

func (f *fakeHandle) GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return) {
	return f.temp, f.tempRet
}

func (f *fakeHandle) GetClockInfo(clock nvml.ClockType) (uint32, nvml.Return) {
	v, ok := f.clocks[clock]
	if !ok {
		return 0, nvml.ERROR_NOT_SUPPORTED
	}
	return v, nvml.SUCCESS
}

func (f *fakeHandle) GetFanSpeed() (uint32, nvml.Return) {
	return f.fan, f.fanRet
}

func (f *fakeHandle) GetPowerUsage() (uint32, nvml.Return) {
	return f.power, f.powerRet
}

type fakeLib struct {
	handle   *fakeHandle
	count    int
	shutdown int
}

func (f *fakeLib) Init() error               { return nil }
func (f *fakeLib) Shutdown() error           { f.shutdown++; return nil }
func (f *fakeLib) DeviceCount() (int, error) { return f.count, nil }
func (f *fakeLib) Device(int) (deviceHandle, error) {
	return f.handle, nil
}

func TestSampleReadsAllSensors(t *testing.T) {
	handle := &fakeHandle{
		name: "RTX 4080",
		temp: 61,
		clocks: map[nvml.ClockType]uint32{
			nvml.CLOCK_GRAPHICS: 2505,
			nvml.CLOCK_MEM:      11201,
			nvml.CLOCK_SM:       2505,
		},
		fan:   42,
		power: 215500,
	}
	g, err := open(&fakeLib{handle: handle, count: 1}, 0, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "RTX 4080", g.Name())

	s, err := g.Sample()
	require.NoError(t, err)
	assert.Equal(t, 61.0, s.Temperature)
	assert.Equal(t, 2505.0, s.GraphicsClock)
	assert.True(t, s.HasMemoryClock)
	assert.Equal(t, 11201.0, s.MemoryClock)
	assert.True(t, s.HasFanSpeed)
	assert.True(t, s.HasPowerDraw)
	assert.InDelta(t, 215.5, s.PowerDraw, 1e-9)
}

func TestSampleSkipsUnsupportedSensors(t *testing.T) {
	handle := &fakeHandle{
		name:     "Tesla T4",
		temp:     40,
		clocks:   map[nvml.ClockType]uint32{nvml.CLOCK_GRAPHICS: 585},
		fanRet:   nvml.ERROR_NOT_SUPPORTED,
		powerRet: nvml.ERROR_NOT_SUPPORTED,
	}
	g, err := open(&fakeLib{handle: handle, count: 1}, 0, logger.Nop())
	require.NoError(t, err)

	s, err := g.Sample()
	require.NoError(t, err)
	assert.False(t, s.HasFanSpeed)
	assert.False(t, s.HasPowerDraw)
	assert.False(t, s.HasMemoryClock)
	assert.False(t, s.HasSMClock)
}

func TestSampleFailsWithoutTemperature(t *testing.T) {
	handle := &fakeHandle{
		tempRet: nvml.ERROR_GPU_IS_LOST,
		clocks:  map[nvml.ClockType]uint32{nvml.CLOCK_GRAPHICS: 585},
	}
	g, err := open(&fakeLib{handle: handle, count: 1}, 0, logger.Nop())
	require.NoError(t, err)

	_, err = g.Sample()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrTemperatureReadFailed))
}

func TestOpenRejectsMissingDevice(t *testing.T) {
	lib := &fakeLib{handle: &fakeHandle{}, count: 1}

	_, err := open(lib, 3, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrDeviceNotFound))
	assert.Equal(t, 1, lib.shutdown)
}
