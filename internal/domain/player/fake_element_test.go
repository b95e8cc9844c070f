package player_test

import (
	"fmt"
	"sync"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// fakeElement records the commands it receives.
type fakeElement struct {
	mu      sync.Mutex
	calls   []string
	src     string
	volume  float64
	playErr error
	events  chan player.MediaEvent
}

func newFakeElement() *fakeElement {
	return &fakeElement{events: make(chan player.MediaEvent, 8)}
}

func (f *fakeElement) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeElement) SetSource(src string) error {
	f.mu.Lock()
	f.src = src
	f.mu.Unlock()
	f.record("source " + src)
	return nil
}

func (f *fakeElement) Play() error {
	f.record("play")
	return f.playErr
}

func (f *fakeElement) Pause() error {
	f.record("pause")
	return nil
}

func (f *fakeElement) SetVolume(level float64) error {
	f.mu.Lock()
	f.volume = level
	f.mu.Unlock()
	f.record(fmt.Sprintf("volume %.2f", level))
	return nil
}

func (f *fakeElement) Seek(seconds float64) error {
	f.record(fmt.Sprintf("seek %.0f", seconds))
	return nil
}

func (f *fakeElement) Events() <-chan player.MediaEvent { return f.events }

func (f *fakeElement) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeElement) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
