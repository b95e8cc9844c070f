//go:build (linux && cgo) || windows || darwin

package speaker

import (
	"context"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// Available reports whether this build can drive the sound card.
const Available = true

// Element plays tracks through the beep speaker.
type Element struct {
	resolver   *Resolver
	sampleRate beep.SampleRate
	events     chan player.MediaEvent

	mu          sync.Mutex
	initialized bool
	track       *playback
	level       float64
	// generation identifies the loaded track so a stale end callback is ignored
	generation int
}

// NewElement creates an element resolving rooted sources against mediaRoot.
func NewElement(mediaRoot string) *Element {
	return &Element{
		resolver:   NewResolver(mediaRoot),
		sampleRate: beep.SampleRate(44100),
		events:     make(chan player.MediaEvent, 32),
		level:      1,
	}
}

var _ player.MediaElement = (*Element)(nil)

// speakerOutput routes a playback to the process-wide speaker.
type speakerOutput struct{}

func (speakerOutput) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerOutput) Lock()                   { speaker.Lock() }
func (speakerOutput) Unlock()                 { speaker.Unlock() }

func (e *Element) initSpeakerLocked() error {
	if e.initialized {
		return nil
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

// SetSource stops the current track and loads src paused.
func (e *Element) SetSource(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	if src == "" {
		return nil
	}

	source, err := e.resolver.Open(context.Background(), src)
	if err != nil {
		return err
	}
	streamer, format, err := Decode(source)
	if err != nil {
		return err
	}
	if err := e.initSpeakerLocked(); err != nil {
		streamer.Close()
		return err
	}

	e.generation++
	gen := e.generation
	e.track = newPlayback(speakerOutput{}, streamer, format, e.sampleRate, e.level, func() {
		// runs on the speaker goroutine; hand off so the speaker is never blocked
		go e.ended(gen)
	})

	duration := e.track.duration()
	log.Debug().Str("src", src).Float64("duration", duration).Msg("Speaker source loaded")
	e.emit(player.DurationChange{Duration: duration})
	return nil
}

// Play unpauses the loaded track, restarting it if it already ended.
func (e *Element) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.track == nil {
		return ErrNoSource
	}
	return e.track.play()
}

// Pause pauses the loaded track.
func (e *Element) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.track != nil {
		e.track.pause()
	}
	return nil
}

// SetVolume sets the output gain (0-1).
func (e *Element) SetVolume(level float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.level = level
	if e.track != nil {
		e.track.setLevel(level)
	}
	return nil
}

// Seek moves to seconds within the loaded track.
func (e *Element) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.track == nil {
		return ErrNoSource
	}
	return e.track.seek(seconds)
}

// Events returns the element's event stream.
func (e *Element) Events() <-chan player.MediaEvent {
	return e.events
}

// Run reports the playback position every interval until ctx is done.
func (e *Element) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pos, ok := e.position(); ok {
				e.emit(player.TimeUpdate{Position: pos})
			}
		}
	}
}

// Close stops playback and releases the loaded track.
func (e *Element) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	if e.initialized {
		speaker.Clear()
	}
}

func (e *Element) position() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.track == nil {
		return 0, false
	}
	return e.track.position()
}

func (e *Element) ended(gen int) {
	e.mu.Lock()
	current := gen == e.generation && e.track != nil
	e.mu.Unlock()

	if current {
		e.emit(player.Ended{})
	}
}

// stopLocked releases the current track (must hold lock).
func (e *Element) stopLocked() {
	e.generation++
	if e.track != nil {
		e.track.close()
		e.track = nil
	}
}

// emit never blocks: progress updates are dropped when the consumer falls
// behind, other events are handed to a goroutine.
func (e *Element) emit(ev player.MediaEvent) {
	select {
	case e.events <- ev:
	default:
		if _, ok := ev.(player.TimeUpdate); ok {
			return
		}
		go func() { e.events <- ev }()
	}
}
