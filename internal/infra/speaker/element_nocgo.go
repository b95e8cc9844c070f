//go:build !(linux && cgo) && !windows && !darwin

package speaker

import (
	"context"
	"time"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// Available reports whether this build can drive the sound card.
// Audio requires cgo for native sound libraries.
const Available = false

// Element is a silent stand-in for builds without cgo. Sources still
// resolve so misconfiguration surfaces early, but playback always fails.
type Element struct {
	resolver *Resolver
	events   chan player.MediaEvent
}

// NewElement creates a silent element.
func NewElement(mediaRoot string) *Element {
	return &Element{
		resolver: NewResolver(mediaRoot),
		events:   make(chan player.MediaEvent),
	}
}

var _ player.MediaElement = (*Element)(nil)

// SetSource checks that src can be opened.
func (e *Element) SetSource(src string) error {
	if src == "" {
		return nil
	}
	source, err := e.resolver.Open(context.Background(), src)
	if err != nil {
		return err
	}
	return source.Close()
}

// Play always fails with ErrAudioUnavailable.
func (e *Element) Play() error { return ErrAudioUnavailable }

// Pause is a no-op.
func (e *Element) Pause() error { return nil }

// SetVolume is a no-op.
func (e *Element) SetVolume(level float64) error { return nil }

// Seek is a no-op.
func (e *Element) Seek(seconds float64) error { return nil }

// Events returns a stream that never delivers.
func (e *Element) Events() <-chan player.MediaEvent { return e.events }

// Run blocks until ctx is done.
func (e *Element) Run(ctx context.Context, interval time.Duration) { <-ctx.Done() }

// Close is a no-op.
func (e *Element) Close() {}
