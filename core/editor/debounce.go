package editor

import (
	"sync"
	"time"
)

// debouncer coalesces writes per key: only the last function scheduled for a
// key within its window runs.
type debouncer struct {
	mu      sync.Mutex
	pending map[string]*pendingCall
	running sync.WaitGroup
}

type pendingCall struct {
	timer *time.Timer
	fn    func()
}

func newDebouncer() *debouncer {
	return &debouncer{pending: make(map[string]*pendingCall)}
}

// Schedule replaces any pending call for key with fn, due after wait.
func (d *debouncer) Schedule(key string, wait time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	call := &pendingCall{fn: fn}
	call.timer = time.AfterFunc(wait, func() { d.fire(key, call) })
	d.pending[key] = call
}

func (d *debouncer) fire(key string, call *pendingCall) {
	d.mu.Lock()
	if d.pending[key] != call {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	call.fn()
}

// Flush runs every pending call now.
func (d *debouncer) Flush() {
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
	d.running.Wait()
}

// Stop drops every pending call and waits for calls already running.
func (d *debouncer) Stop() {
	d.mu.Lock()
	for key, call := range d.pending {
		call.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	d.running.Wait()
}
