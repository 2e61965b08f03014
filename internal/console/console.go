// Package console stops the process on a keypress when it runs in a
// terminal.
package console

import (
	"bytes"
	"context"
	"io"
	"os"

	"codeberg.org/mutker/hwoled/internal/errors"
	"golang.org/x/term"
)

const ErrRawMode = errors.ErrorCode("console_raw_mode_failed")

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// WatchKeys switches in to raw mode and calls stop on Esc, q or Ctrl-C.
// The returned function restores the terminal.
func WatchKeys(ctx context.Context, in *os.File, stop func()) (func(), error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.New().Wrap(ErrRawMode, err)
	}

	go watch(ctx, in, stop)

	return func() {
		_ = term.Restore(fd, state)
	}, nil
}

func watch(ctx context.Context, r io.Reader, stop func()) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if ctx.Err() != nil {
			return
		}
		if n > 0 && isStopInput(buf[:n]) {
			stop()
			return
		}
		if err != nil {
			return
		}
	}
}

// isStopInput reports whether one read from the terminal is a stop key. A
// lone Esc stops; escape sequences such as arrow keys do not.
func isStopInput(b []byte) bool {
	if len(b) == 1 && b[0] == keyEscape {
		return true
	}
	if len(b) > 0 && b[0] == keyEscape {
		return false
	}
	return bytes.IndexByte(b, keyCtrlC) >= 0 || bytes.IndexByte(b, 'q') >= 0 || bytes.IndexByte(b, 'Q') >= 0
}

// RawWriter turns \n into \r\n so log lines stay aligned while the terminal
// is in raw mode.
type RawWriter struct {
	W io.Writer
}

func (w RawWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return w.W.Write(p)
	}
	out := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	if _, err := w.W.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
