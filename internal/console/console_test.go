package console

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsStopInput(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want bool
	}{
		{name: "escape", in: []byte{keyEscape}, want: true},
		{name: "ctrl-c", in: []byte{keyCtrlC}, want: true},
		{name: "q", in: []byte("q"), want: true},
		{name: "Q", in: []byte("Q"), want: true},
		{name: "arrow up", in: []byte{keyEscape, '[', 'A'}, want: false},
		{name: "other key", in: []byte("x"), want: false},
		{name: "pasted text", in: []byte("hello"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isStopInput(tt.in))
		})
	}
}

func TestWatchStopsOnKey(t *testing.T) {
	r, w := io.Pipe()
	stopped := make(chan struct{})

	go watch(context.Background(), r, func() { close(stopped) })

	_, _ = w.Write([]byte("x"))
	_, _ = w.Write([]byte("q"))

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop was not called")
	}
	_ = w.Close()
}

func TestWatchEndsOnEOF(t *testing.T) {
	called := false
	watch(context.Background(), bytes.NewReader(nil), func() { called = true })
	assert.False(t, called)
}

func TestRawWriter(t *testing.T) {
	var buf bytes.Buffer
	w := RawWriter{W: &buf}

	n, err := w.Write([]byte("one\ntwo\n"))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "one\r\ntwo\r\n", buf.String())
}
