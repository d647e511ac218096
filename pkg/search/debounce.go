package search

import (
	"context"
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer delays work until input settles and cancels superseded work.
//
// Every Schedule or Cancel call issues a new token; only work holding the
// current token is active. Cancellation is advisory: the context handed to the
// work is cancelled, but work that ignores it still finishes and must check
// Active before applying its result.
type Debouncer struct {
	mu     sync.Mutex
	after  AfterFunc
	timer  Timer
	cancel context.CancelFunc
	token  uint64
	closed bool
}

// NewDebouncer returns a Debouncer. A nil after uses time.AfterFunc.
func NewDebouncer(after AfterFunc) *Debouncer {
	if after == nil {
		after = realAfterFunc
	}
	return &Debouncer{after: after}
}

// Schedule cancels any pending timer and in-flight work, then runs fn after
// delay with a fresh context and token. It returns the token of this call.
func (d *Debouncer) Schedule(delay time.Duration, fn func(ctx context.Context, token uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	tok := d.resetLocked()
	if d.closed {
		return tok
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = d.after(delay, func() {
		if !d.Active(tok) {
			return
		}
		fn(ctx, tok)
	})
	return tok
}

// Cancel stops pending and in-flight work and returns the new token.
func (d *Debouncer) Cancel() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resetLocked()
}

// Active reports whether token is still the current one.
func (d *Debouncer) Active(token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && d.token == token
}

// Stop cancels everything and makes every later Schedule a no-op.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
	d.closed = true
}

func (d *Debouncer) resetLocked() uint64 {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.token++
	return d.token
}
