// Package search implements debounced, cached, cancellable search for
// interactive views.
package search

import (
	"context"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lookup-erp/lookup/pkg/normalize"
)

// Cache stores results by key. Implementations must be safe for concurrent use.
type Cache[T any] interface {
	Get(key string) ([]T, bool)
	Set(key string, data []T)
	Clear()
}

// Executor performs one search for a normalized query. It should return
// promptly with an error once ctx is cancelled.
type Executor[T any] func(ctx context.Context, query string, params url.Values) ([]T, error)

// Options configures an Orchestrator.
type Options[T any] struct {
	// Scope prefixes cache keys, typically the domain name.
	Scope string
	// Params are fixed contextual parameters passed to every executor call.
	Params url.Values
	// Policy defaults to DefaultPolicy when zero.
	Policy Policy
	// Cache is optional and may be shared between orchestrators.
	Cache     Cache[T]
	AfterFunc AfterFunc
	Logger    *zerolog.Logger
	// OnChange receives a snapshot after every state change. It runs on the
	// goroutine that caused the change and must not block.
	OnChange func(State[T])
}

// Orchestrator turns a stream of search terms into at most one useful
// executor call per pause in typing and exposes the result as State.
type Orchestrator[T any] struct {
	exec     Executor[T]
	scope    string
	policy   Policy
	cache    Cache[T]
	log      zerolog.Logger
	onChange func(State[T])
	deb      *Debouncer

	mu      sync.Mutex
	params  url.Values
	state   State[T]
	changed chan struct{}
	closed  bool
}

// New creates an Orchestrator around exec.
func New[T any](exec Executor[T], opts Options[T]) *Orchestrator[T] {
	policy := opts.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "search").Str("scope", opts.Scope).Logger()
	}
	return &Orchestrator[T]{
		exec:     exec,
		scope:    opts.Scope,
		policy:   policy,
		cache:    opts.Cache,
		log:      log,
		onChange: opts.OnChange,
		deb:      NewDebouncer(opts.AfterFunc),
		params:   cloneValues(opts.Params),
		changed:  make(chan struct{}),
	}
}

// SetSearchTerm records term as typed and schedules the search for it.
func (o *Orchestrator[T]) SetSearchTerm(term string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.state.SearchTerm = term
	snap := o.searchLocked(false)
	o.mu.Unlock()
	o.notify(snap)
}

// SetParams replaces the contextual parameters and repeats the current search.
func (o *Orchestrator[T]) SetParams(params url.Values) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.params = cloneValues(params)
	snap := o.searchLocked(true)
	o.mu.Unlock()
	o.notify(snap)
}

// ClearSearch resets term, results and error and cancels pending work.
func (o *Orchestrator[T]) ClearSearch() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.deb.Cancel()
	o.state.SearchTerm = ""
	o.state.Query = ""
	o.state.Results = nil
	o.state.SearchError = nil
	o.state.IsSearching = false
	o.state.FromCache = false
	o.state.Phase = PhaseIdle
	snap := o.bumpLocked()
	o.mu.Unlock()
	o.notify(snap)
}

// State returns the current read model.
func (o *Orchestrator[T]) State() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Await blocks until no search is pending or running, then returns the state.
func (o *Orchestrator[T]) Await(ctx context.Context) (State[T], error) {
	for {
		o.mu.Lock()
		if o.closed || !o.state.Phase.Busy() {
			s := o.state
			o.mu.Unlock()
			return s, nil
		}
		ch := o.changed
		o.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return o.State(), ctx.Err()
		}
	}
}

// Close cancels the timer and any in-flight request. Results arriving later
// are dropped and further calls are ignored.
func (o *Orchestrator[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.deb.Stop()
	if o.state.Phase.Busy() {
		o.state.Phase = PhaseIdle
	}
	o.state.IsSearching = false
	o.bumpLocked()
}

func (o *Orchestrator[T]) searchLocked(force bool) State[T] {
	q := normalize.Query(o.state.SearchTerm)
	if !force && q == o.state.Query && o.state.Phase.Busy() {
		// Only whitespace or case changed; the pending search still applies.
		return o.bumpLocked()
	}
	o.state.Query = q
	o.state.SearchError = nil
	o.state.FromCache = false

	if !o.policy.Searchable(q) {
		o.deb.Cancel()
		o.state.Results = nil
		o.state.IsSearching = false
		o.state.Phase = PhaseIdle
		return o.bumpLocked()
	}

	key := CacheKey(o.scope, q, o.params)
	if o.cache != nil {
		if data, ok := o.cache.Get(key); ok {
			o.deb.Cancel()
			o.log.Debug().Str("query", q).Int("results", len(data)).Msg("served from cache")
			o.state.Results = data
			o.state.IsSearching = false
			o.state.FromCache = true
			o.state.Phase = PhaseSettled
			return o.bumpLocked()
		}
	}

	params := cloneValues(o.params)
	o.deb.Schedule(o.policy.DelayFor(q), func(ctx context.Context, token uint64) {
		o.run(ctx, token, q, key, params)
	})
	o.state.IsSearching = true
	o.state.Phase = PhaseDebouncing
	return o.bumpLocked()
}

func (o *Orchestrator[T]) run(ctx context.Context, token uint64, q, key string, params url.Values) {
	o.mu.Lock()
	if !o.deb.Active(token) {
		o.mu.Unlock()
		return
	}
	o.state.Phase = PhaseInFlight
	snap := o.bumpLocked()
	o.mu.Unlock()
	o.notify(snap)

	o.log.Debug().Str("query", q).Msg("dispatching search")
	data, err := o.exec(ctx, q, params)
	if err == nil && ctx.Err() == nil && o.cache != nil {
		o.cache.Set(key, data)
	}

	o.mu.Lock()
	if !o.deb.Active(token) {
		o.mu.Unlock()
		o.log.Debug().Str("query", q).Err(err).Msg("discarding stale result")
		return
	}
	o.state.IsSearching = false
	if err != nil {
		o.log.Warn().Err(err).Str("query", q).Msg("search failed")
		o.state.Phase = PhaseErrored
		o.state.SearchError = err
		o.state.Results = nil
	} else {
		o.state.Phase = PhaseSettled
		o.state.Results = data
	}
	snap = o.bumpLocked()
	o.mu.Unlock()
	o.notify(snap)
}

// bumpLocked advances the version, wakes Await callers and returns a snapshot.
func (o *Orchestrator[T]) bumpLocked() State[T] {
	o.state.Version++
	close(o.changed)
	o.changed = make(chan struct{})
	return o.state
}

func (o *Orchestrator[T]) notify(s State[T]) {
	if o.onChange != nil {
		o.onChange(s)
	}
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
