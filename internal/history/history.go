package history

import (
	"context"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/logger"
)

type service struct {
	repo   repository
	cfg    Config
	logger logger.Logger
}

type noopRecorder struct{}

// NewService opens the frame history. A disabled config yields a recorder
// that discards everything.
func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Frame history disabled, using no-op recorder")
		return Noop(), nil
	}

	repo, err := newRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create history repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Int("batch_size", cfg.BatchSize).
		Msg("Frame history initialized")

	return &service{
		repo:   repo,
		cfg:    cfg,
		logger: log,
	}, nil
}

// Noop returns a recorder that discards every frame.
func Noop() Recorder {
	return noopRecorder{}
}

func (s *service) Record(ctx context.Context, frame *FrameRecord) error {
	errFactory := errors.New()

	if frame == nil || frame.Event == "" {
		return errFactory.New(ErrInvalidRecord)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(frame); err != nil {
			return errFactory.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

func (*service) Enabled() bool {
	return true
}

func (noopRecorder) Record(context.Context, *FrameRecord) error {
	return nil
}

func (noopRecorder) Close() error {
	return nil
}

func (noopRecorder) Enabled() bool {
	return false
}
