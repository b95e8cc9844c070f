package player

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// MediaElement is the single output device the player drives.
// Implementations report progress and end-of-track through Events.
type MediaElement interface {
	SetSource(src string) error
	Play() error
	Pause() error
	SetVolume(level float64) error
	Seek(seconds float64) error
	Events() <-chan MediaEvent
}

// MediaEvent is emitted by a MediaElement.
type MediaEvent interface {
	mediaEvent()
}

// TimeUpdate reports the current playback position.
type TimeUpdate struct{ Position float64 }

// DurationChange reports that the loaded media length became known.
type DurationChange struct{ Duration float64 }

// Ended reports that the loaded media played to its end.
type Ended struct{}

// Failed reports an asynchronous element error.
type Failed struct{ Err error }

func (TimeUpdate) mediaEvent()     {}
func (DurationChange) mediaEvent() {}
func (Ended) mediaEvent()          {}
func (Failed) mediaEvent()         {}

// Binder keeps a MediaElement in sync with a Store and feeds element
// events back into the store as actions.
type Binder struct {
	store   *Store
	element MediaElement

	scrubbing atomic.Bool

	mu          sync.Mutex
	unsubscribe func()
}

// NewBinder creates a binder for store and element. Call Start to activate it.
func NewBinder(store *Store, element MediaElement) *Binder {
	return &Binder{
		store:   store,
		element: element,
	}
}

// Start subscribes to the store, applies the initial volume and pumps
// element events until ctx is cancelled.
func (b *Binder) Start(ctx context.Context) {
	b.mu.Lock()
	if b.unsubscribe != nil {
		b.mu.Unlock()
		return
	}
	b.unsubscribe = b.store.Subscribe(b.apply)
	b.mu.Unlock()

	if err := b.element.SetVolume(b.store.State().EffectiveVolume()); err != nil {
		log.Warn().Err(err).Msg("Failed to apply initial volume")
	}

	events := b.element.Events()
	if events == nil {
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					log.Debug().Msg("Media element event stream closed")
					return
				}
				b.handleEvent(ev)
			}
		}
	}()
}

// Close detaches the binder from the store.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// SetScrubbing marks whether the user is dragging a seek control.
// Element time updates are ignored while it is set.
func (b *Binder) SetScrubbing(on bool) {
	b.scrubbing.Store(on)
}

// Seek moves the element and updates the clock without waiting for the
// element to report the new position.
func (b *Binder) Seek(seconds float64) {
	if err := b.element.Seek(seconds); err != nil {
		log.Warn().Err(err).Float64("position", seconds).Msg("Seek failed")
	}
	b.store.Dispatch(SetCurrentTime{Seconds: seconds})
}

// apply issues the element commands implied by one transition.
func (b *Binder) apply(c Change) {
	prev, next := c.Prev, c.Next

	switch {
	case c.TrackChanged():
		b.loadTrack(next)
	case prev.IsPlaying != next.IsPlaying:
		if next.IsPlaying {
			b.play(next)
		} else {
			b.pause()
		}
	}

	if prev.EffectiveVolume() != next.EffectiveVolume() {
		if err := b.element.SetVolume(next.EffectiveVolume()); err != nil {
			log.Warn().Err(err).Float64("volume", next.EffectiveVolume()).Msg("SetVolume failed")
		}
	}
}

func (b *Binder) loadTrack(s State) {
	track := s.CurrentTrack
	if track == nil {
		b.pause()
		return
	}
	if !track.Playable() {
		log.Info().Int64("track_id", track.ID).Str("title", track.Title).Msg("No source available for track")
		b.pause()
		return
	}

	src := NormalizeSource(track.Src)
	log.Info().Int64("track_id", track.ID).Str("src", src).Msg("Loading track")
	if err := b.element.SetSource(src); err != nil {
		log.Error().Err(err).Str("src", src).Msg("Failed to load track")
		return
	}
	if s.IsPlaying {
		b.play(s)
	}
}

// play requests playback. Rejections are logged and the logical state is
// left as requested; the next user action retries.
func (b *Binder) play(s State) {
	if !s.PlayableTrack() {
		log.Debug().Msg("Play suppressed, no playable track loaded")
		return
	}
	if err := b.element.Play(); err != nil {
		log.Warn().Err(err).Int64("track_id", s.CurrentTrack.ID).Msg("Playback failed")
	}
}

func (b *Binder) pause() {
	if err := b.element.Pause(); err != nil {
		log.Warn().Err(err).Msg("Pause failed")
	}
}

func (b *Binder) handleEvent(ev MediaEvent) {
	switch ev := ev.(type) {
	case TimeUpdate:
		if b.scrubbing.Load() {
			return
		}
		b.store.Dispatch(SetCurrentTime{Seconds: ev.Position})
	case DurationChange:
		b.store.Dispatch(SetDuration{Seconds: ev.Duration})
	case Ended:
		if b.store.State().Repeat == RepeatOne {
			if err := b.element.Seek(0); err != nil {
				log.Warn().Err(err).Msg("Rewind failed")
			}
			if err := b.element.Play(); err != nil {
				log.Warn().Err(err).Msg("Replay failed")
			}
			return
		}
		b.store.Dispatch(AdvanceTrack{Direction: Forward})
	case Failed:
		log.Error().Err(ev.Err).Msg("Media element error")
	}
}
