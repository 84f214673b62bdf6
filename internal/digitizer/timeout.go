package digitizer

import (
	"context"
	"errors"
	"time"
)

// withTimeout runs fn under a deadline of d and returns as soon as either
// fn finishes or the deadline passes, whichever is first. fn keeps running
// in the background after a timeout; it must honour ctx to stop early.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		select {
		case r := <-done:
			return r.v, r.err
		default:
		}
		var zero T
		return zero, ctx.Err()
	}
}

// stageWarning reports a failed stage. Only a missed deadline counts as a
// timeout.
func stageWarning(stage string, err error) Warning {
	code := WarnStageFailed
	if errors.Is(err, context.DeadlineExceeded) {
		code = WarnStageTimeout
	}
	return Warning{Code: code, Stage: stage, Message: err.Error()}
}
