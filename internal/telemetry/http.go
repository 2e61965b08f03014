package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/logger"
	jsoniter "github.com/json-iterator/go"
)

const (
	defaultHTTPTimeout = 2 * time.Second
	maxSnapshotSize    = 4 << 20

	// unit, current, min, max, average
	readingFields = 5
)

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPSource polls an exporter that serves the sensor tree as
// {"group": {"reading": ["unit", cur, min, max, avg]}}.
type HTTPSource struct {
	url    string
	client *http.Client
	logger logger.Logger
}

func NewHTTPSource(url string, timeout time.Duration, log logger.Logger) (*HTTPSource, error) {
	if url == "" {
		return nil, errors.New().WithMessage(ErrInvalidConfig, "telemetry url is empty")
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: log,
	}, nil
}

func (s *HTTPSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	errFactory := errors.New()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errFactory.Wrap(ErrOperationTimeout, ctx.Err())
		}
		return nil, errFactory.Wrap(ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errFactory.WithMessage(ErrSourceStatus, fmt.Sprintf("%s returned %s", s.url, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, errFactory.Wrap(ErrSourceUnavailable, err)
	}

	snapshot, err := DecodeSnapshot(body, time.Now())
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("groups", snapshot.Len()).Msg("Captured snapshot")

	return snapshot, nil
}

func (s *HTTPSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// DecodeSnapshot parses an exporter document. Group and reading order follow
// the document; numeric fields are kept as their literal text.
func DecodeSnapshot(body []byte, taken time.Time) (*Snapshot, error) {
	errFactory := errors.New()

	if len(body) == 0 || !snapshotJSON.Valid(body) {
		return nil, errFactory.WithMessage(ErrMalformedSnapshot, "snapshot is not valid JSON")
	}

	snapshot := NewSnapshot(taken)
	iter := jsoniter.ParseBytes(snapshotJSON, body)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, errFactory.WithMessage(ErrMalformedSnapshot, "snapshot must be an object of groups")
	}

	iter.ReadObjectCB(func(iter *jsoniter.Iterator, groupName string) bool {
		if iter.WhatIsNext() != jsoniter.ObjectValue {
			iter.ReportError("read group", fmt.Sprintf("group %q is not an object", groupName))
			return false
		}
		return iter.ReadObjectCB(func(iter *jsoniter.Iterator, name string) bool {
			fields := readFields(iter)
			if iter.Error != nil {
				return false
			}
			if len(fields) != readingFields {
				iter.ReportError("read reading", fmt.Sprintf("%s/%s has %d fields, want %d", groupName, name, len(fields), readingFields))
				return false
			}
			snapshot.Add(groupName, name, Reading{
				Unit:    fields[0],
				Current: fields[1],
				Min:     fields[2],
				Max:     fields[3],
				Average: fields[4],
			})
			return true
		})
	})

	if iter.Error != nil && iter.Error != io.EOF {
		return nil, errFactory.Wrap(ErrMalformedSnapshot, iter.Error)
	}

	return snapshot, nil
}

func readFields(iter *jsoniter.Iterator) []string {
	if iter.WhatIsNext() != jsoniter.ArrayValue {
		iter.ReportError("read reading", "reading is not an array")
		return nil
	}

	fields := make([]string, 0, readingFields)
	iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
		switch iter.WhatIsNext() {
		case jsoniter.StringValue:
			fields = append(fields, iter.ReadString())
		case jsoniter.NumberValue:
			fields = append(fields, iter.ReadNumber().String())
		case jsoniter.NilValue:
			iter.ReadNil()
			fields = append(fields, "")
		default:
			iter.ReportError("read reading", "field is neither string nor number")
			return false
		}
		return true
	})

	return fields
}
