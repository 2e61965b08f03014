//go:build linux

package gpu

import (
	"codeberg.org/mutker/hwoled/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// library is the part of NVML's process-wide lifecycle that GPU uses.
type library interface {
	Init() error
	Shutdown() error
	DeviceCount() (int, error)
	Device(index int) (deviceHandle, error)
}

// deviceHandle is the read-only subset of nvml.Device the sampler needs.
type deviceHandle interface {
	GetName() (string, nvml.Return)
	GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return)
	GetClockInfo(nvml.ClockType) (uint32, nvml.Return)
	GetFanSpeed() (uint32, nvml.Return)
	GetPowerUsage() (uint32, nvml.Return)
}

// nvmlLibrary calls into the real driver. Init and Shutdown are
// reference counted by NVML itself, the flag only keeps this handle
// balanced.
type nvmlLibrary struct {
	loaded bool
}

func (l *nvmlLibrary) Init() error {
	if l.loaded {
		return nil
	}
	if err := check(ErrInitFailed, nvml.Init()); err != nil {
		return err
	}
	l.loaded = true

	return nil
}

func (l *nvmlLibrary) Shutdown() error {
	if !l.loaded {
		return nil
	}
	if err := check(ErrShutdownFailed, nvml.Shutdown()); err != nil {
		return err
	}
	l.loaded = false

	return nil
}

func (l *nvmlLibrary) DeviceCount() (int, error) {
	if !l.loaded {
		return 0, errors.New().New(ErrNotInitialized)
	}
	count, ret := nvml.DeviceGetCount()

	return count, check(ErrDeviceCountFailed, ret)
}

func (l *nvmlLibrary) Device(index int) (deviceHandle, error) {
	if !l.loaded {
		return nil, errors.New().New(ErrNotInitialized)
	}
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if err := check(ErrDeviceNotFound, ret); err != nil {
		return nil, err
	}

	return device, nil
}

// returnError carries an NVML return code as an error.
type returnError nvml.Return

func (r returnError) Error() string {
	return nvml.ErrorString(nvml.Return(r))
}

// check maps a non-success return to an error with the given code.
func check(code errors.ErrorCode, ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}

	return errors.New().Wrap(code, returnError(ret))
}
