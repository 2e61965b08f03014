package errors_test

import (
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/hwoled/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	errFactory := errors.New()

	assert.Equal(t, "Invalid interval value", errFactory.New(errors.ErrInvalidInterval).Error())
	assert.Equal(t, "custom", errFactory.WithMessage(errors.ErrInternal, "custom").Error())
	assert.Equal(t, "Invalid argument provided: 42", errFactory.WithData(errors.ErrInvalidArgument, 42).Error())
	assert.Equal(t, "unknown_code", errFactory.New(errors.ErrorCode("unknown_code")).Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := errors.New().Wrap(errors.ErrRecordHistory, cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to record frame history: boom", err.Error())
	assert.Equal(t, errors.ErrRecordHistory, err.Code())
}

func TestHasCode(t *testing.T) {
	errFactory := errors.New()
	inner := errFactory.New(errors.ErrTimeout)
	outer := errFactory.Wrap(errors.ErrMainLoop, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrMainLoop))
	assert.True(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(outer, errors.ErrInternal))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrInternal))
	assert.False(t, errors.HasCode(nil, errors.ErrInternal))
}

func TestWithMessagePreservesCode(t *testing.T) {
	err := errors.New().New(errors.ErrDiscovery).WithMessage("no address")

	assert.Equal(t, errors.ErrDiscovery, err.Code())
	assert.Equal(t, "no address", err.Error())
}

func TestIsMatchesByCode(t *testing.T) {
	errFactory := errors.New()
	sentinel := errFactory.New(errors.ErrTimeout)
	err := errFactory.Wrap(errors.ErrMainLoop, errFactory.WithMessage(errors.ErrTimeout, "push took too long"))

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, errFactory.New(errors.ErrDiscovery))
}

func TestDataAndCause(t *testing.T) {
	err := errors.New().Wrap(errors.ErrRecordHistory, stderrors.New("refused")).WithData("GPU_TEMP")

	assert.Equal(t, "Failed to record frame history (GPU_TEMP): refused", err.Error())
	assert.Equal(t, "GPU_TEMP", err.Data())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, errors.ErrDiscovery, errors.CodeOf(errors.New().New(errors.ErrDiscovery)))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(stderrors.New("plain")))
}
