package gamesense

import "context"

// Result is the outcome of an asynchronous push.
type Result struct {
	done chan struct{}
	err  error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

func completedResult(err error) *Result {
	r := newResult()
	r.complete(err)

	return r
}

func (r *Result) complete(err error) {
	r.err = err
	close(r.done)
}

// Done is closed once the push finished.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Err returns the push error once Done is closed, nil before that.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the push finished or ctx is done.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
