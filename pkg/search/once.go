package search

import (
	"context"
	"time"
)

// Once runs a single search for term and waits for its outcome. There are
// no keystrokes to coalesce, so the debounce delay is skipped; cache lookups
// and stale-result handling behave as in an interactive search. A term that
// is too short returns an Idle state.
func Once[T any](ctx context.Context, exec Executor[T], opts Options[T], term string) (State[T], error) {
	opts.AfterFunc = immediate
	o := New(exec, opts)
	defer o.Close()

	o.SetSearchTerm(term)
	return o.Await(ctx)
}

func immediate(_ time.Duration, f func()) Timer {
	return time.AfterFunc(0, f)
}
