package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid calls per key into a single execution after a
// quiet period. Each input-handling scope (a websocket connection, a form
// session) owns its own Debouncer rather than sharing process-wide timers, so
// teardown is deterministic: Flush runs pending work now, Stop drops it.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingCall
	stopped bool
}

type pendingCall struct {
	timer *time.Timer
	fn    func()
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*pendingCall),
	}
}

// Trigger schedules fn to run after the quiet period, replacing any pending
// call for the same key. The last fn wins.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if existing, ok := d.pending[key]; ok {
		existing.timer.Stop()
	}

	call := &pendingCall{fn: fn}
	call.timer = time.AfterFunc(d.delay, func() {
		d.fire(key, call)
	})
	d.pending[key] = call
}

func (d *Debouncer) fire(key string, call *pendingCall) {
	d.mu.Lock()
	current, ok := d.pending[key]
	if !ok || current != call {
		// Replaced or flushed after the timer was already on its way.
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	call.fn()
}

// Flush runs every pending call immediately. Used on teardown so the last
// keystrokes of a closing session still reach the store.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	calls := make([]*pendingCall, 0, len(d.pending))
	for key, call := range d.pending {
		call.timer.Stop()
		calls = append(calls, call)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, call := range calls {
		call.fn()
	}
}

// Stop cancels all pending calls and rejects new triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, call := range d.pending {
		call.timer.Stop()
		delete(d.pending, key)
	}
}
