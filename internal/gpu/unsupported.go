//go:build !linux

package gpu

import (
	"runtime"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/logger"
)

// GPU is not available where NVML bindings are not built.
type GPU struct{}

func New(int, logger.Logger) (*GPU, error) {
	return nil, errors.New().WithData(ErrUnsupported, runtime.GOOS)
}

func (*GPU) Name() string            { return "" }
func (*GPU) Index() int              { return 0 }
func (*GPU) Sample() (Sample, error) { return Sample{}, errors.New().New(ErrUnsupported) }
func (*GPU) Shutdown() error         { return nil }
