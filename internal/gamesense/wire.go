package gamesense

import (
	"io"

	"codeberg.org/mutker/hwoled/internal/errors"
	jsoniter "github.com/json-iterator/go"
)

var wireJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// wireFieldNames maps Go-friendly field names to the hyphenated names the
// display service expects.
var wireFieldNames = map[string]string{
	"device_type":       "device-type",
	"context_frame_key": "context-frame-key",
	"has_text":          "has-text",
	"length_millis":     "length-millis",
}

// Marshal serializes doc and applies the wire field-name rewrite.
func Marshal(doc any) ([]byte, error) {
	raw, err := wireJSON.Marshal(doc)
	if err != nil {
		return nil, errors.New().Wrap(ErrMarshal, err)
	}

	return RewriteKeys(raw)
}

// RewriteKeys renames object keys found in wireFieldNames. String values are
// never touched.
func RewriteKeys(raw []byte) ([]byte, error) {
	if !wireJSON.Valid(raw) {
		return nil, errors.New().WithData(ErrMarshal, "invalid JSON document")
	}

	iter := jsoniter.ParseBytes(wireJSON, raw)
	stream := jsoniter.NewStream(wireJSON, nil, len(raw)+32)

	rewriteValue(iter, stream)

	if iter.Error != nil && iter.Error != io.EOF {
		return nil, errors.New().Wrap(ErrMarshal, iter.Error)
	}
	if stream.Error != nil {
		return nil, errors.New().Wrap(ErrMarshal, stream.Error)
	}

	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())

	return out, nil
}

func rewriteValue(iter *jsoniter.Iterator, stream *jsoniter.Stream) {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		stream.WriteObjectStart()
		first := true
		for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
			if !first {
				stream.WriteMore()
			}
			first = false
			if renamed, ok := wireFieldNames[field]; ok {
				field = renamed
			}
			stream.WriteObjectField(field)
			rewriteValue(iter, stream)
		}
		stream.WriteObjectEnd()
	case jsoniter.ArrayValue:
		stream.WriteArrayStart()
		first := true
		for iter.ReadArray() {
			if !first {
				stream.WriteMore()
			}
			first = false
			rewriteValue(iter, stream)
		}
		stream.WriteArrayEnd()
	default:
		_, _ = stream.Write(iter.SkipAndReturnBytes())
	}
}
