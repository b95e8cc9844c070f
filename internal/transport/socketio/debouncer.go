package socketio

import (
	"sync"
	"time"
)

// Kind identifies a broadcast type.
type Kind int

const (
	KindState Kind = iota
	KindProgress
	KindLibrary
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindProgress:
		return "progress"
	case KindLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// BroadcastDebouncer collapses bursts of changes into one broadcast per
// kind. Callbacks run once the window elapses without further triggers,
// in Kind order.
type BroadcastDebouncer struct {
	window    time.Duration
	callbacks map[Kind]func()

	mu      sync.Mutex
	pending map[Kind]bool
	timer   *time.Timer
	stopped bool
}

// NewBroadcastDebouncer creates a debouncer firing callbacks[kind] for each
// triggered kind.
func NewBroadcastDebouncer(window time.Duration, callbacks map[Kind]func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		window:    window,
		callbacks: callbacks,
		pending:   make(map[Kind]bool),
	}
}

// Trigger records a change of kind and restarts the window.
func (d *BroadcastDebouncer) Trigger(kind Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[kind] = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	pending := d.pending
	d.pending = make(map[Kind]bool)
	d.mu.Unlock()

	for _, kind := range []Kind{KindState, KindProgress, KindLibrary} {
		if fn := d.callbacks[kind]; pending[kind] && fn != nil {
			fn()
		}
	}
}

// Stop prevents any further callbacks from firing.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[Kind]bool)
}
