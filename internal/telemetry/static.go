package telemetry

import "context"

// StaticSource returns the same snapshot on every call.
type StaticSource struct {
	snapshot *Snapshot
	err      error
}

func NewStaticSource(snapshot *Snapshot) *StaticSource {
	return &StaticSource{snapshot: snapshot}
}

// NewFailingSource returns a source whose every Snapshot call fails with err.
func NewFailingSource(err error) *StaticSource {
	return &StaticSource{err: err}
}

func (s *StaticSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func (*StaticSource) Close() error {
	return nil
}
