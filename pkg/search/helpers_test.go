package search

import (
	"context"
	"net/url"
	"sync"
	"time"
)

type fakeTimer struct {
	s       *fakeScheduler
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler records timers and fires them only when told to.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireAll runs every pending timer on the calling goroutine.
func (s *fakeScheduler) fireAll() {
	for _, t := range s.pending() {
		s.mu.Lock()
		t.fired = true
		s.mu.Unlock()
		t.f()
	}
}

type call struct {
	query  string
	params url.Values
	ctx    context.Context
}

// recorder is an Executor that logs calls and delegates to respond.
type recorder[T any] struct {
	mu      sync.Mutex
	calls   []call
	respond func(ctx context.Context, query string) ([]T, error)
}

func (r *recorder[T]) exec(ctx context.Context, query string, params url.Values) ([]T, error) {
	r.mu.Lock()
	r.calls = append(r.calls, call{query: query, params: params, ctx: ctx})
	respond := r.respond
	r.mu.Unlock()
	if respond == nil {
		return nil, nil
	}
	return respond(ctx, query)
}

func (r *recorder[T]) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

type person struct {
	ID   int
	Name string
}
