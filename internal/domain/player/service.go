package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrPlaybackDenied is returned when the Gate refuses a play request.
var ErrPlaybackDenied = errors.New("playback not allowed")

// ListenRecorder receives a notification each time a track starts playing.
type ListenRecorder interface {
	RecordListen(track Track)
}

// Gate authorizes user-initiated playback, e.g. a free-tier play allowance.
type Gate interface {
	Allow(ctx context.Context, track Track) error
}

// Option configures a Service.
type Option func(*Service)

// WithListenRecorder registers the recorder notified on each track start.
func WithListenRecorder(r ListenRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithGate registers an authorization check consulted before Play and Resume.
func WithGate(g Gate) Option {
	return func(s *Service) { s.gate = g }
}

// Service is the command surface clients use to control playback.
type Service struct {
	store    *Store
	binder   *Binder
	recorder ListenRecorder
	gate     Gate

	// toggleMu keeps the read and the dispatch of a toggle together
	toggleMu sync.Mutex
}

// NewService creates a service over store whose side effects go through binder.
func NewService(store *Store, binder *Binder, opts ...Option) *Service {
	s := &Service{
		store:  store,
		binder: binder,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder != nil {
		store.Subscribe(s.recordListens)
	}
	return s
}

// State returns the current player state.
func (s *Service) State() State {
	return s.store.State()
}

// Subscribe registers fn for every applied transition.
func (s *Service) Subscribe(fn Subscriber) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// Play loads track within playlist and starts it. A nil playlist plays the
// track on its own.
func (s *Service) Play(ctx context.Context, track Track, playlist []Track) error {
	if playlist == nil {
		playlist = []Track{track}
	}
	if err := s.authorize(ctx, track); err != nil {
		return err
	}

	log.Info().
		Int64("track_id", track.ID).
		Str("title", track.Title).
		Int("playlist", len(playlist)).
		Msg("Play")
	s.store.Dispatch(SetCurrentTrack{Track: track, Playlist: playlist})
	return nil
}

// Pause pauses playback.
func (s *Service) Pause() {
	log.Info().Msg("Pause")
	s.store.Dispatch(Pause{})
}

// Resume resumes the current track.
func (s *Service) Resume(ctx context.Context) error {
	if current := s.store.State().CurrentTrack; current != nil {
		if err := s.authorize(ctx, *current); err != nil {
			return err
		}
	}
	log.Info().Msg("Resume")
	s.store.Dispatch(Play{})
	return nil
}

// TogglePlay pauses when playing and resumes otherwise.
func (s *Service) TogglePlay(ctx context.Context) error {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	if s.store.State().IsPlaying {
		s.Pause()
		return nil
	}
	return s.Resume(ctx)
}

// Next advances to the next playable track.
func (s *Service) Next() {
	log.Info().Msg("Next")
	s.store.Dispatch(AdvanceTrack{Direction: Forward})
}

// Previous goes back to the previous playable track.
func (s *Service) Previous() {
	log.Info().Msg("Previous")
	s.store.Dispatch(AdvanceTrack{Direction: Backward})
}

// JumpTo selects the playlist entry at index.
func (s *Service) JumpTo(index int) {
	log.Info().Int("index", index).Msg("JumpTo")
	s.store.Dispatch(SetCurrentIndex{Index: index})
}

// Seek moves playback to seconds.
func (s *Service) Seek(seconds float64) {
	log.Info().Float64("position", seconds).Msg("Seek")
	s.binder.Seek(seconds)
}

// SetScrubbing tells the player whether a seek drag is in progress.
func (s *Service) SetScrubbing(on bool) {
	s.binder.SetScrubbing(on)
}

// SetVolume sets the volume (0-1) and unmutes.
func (s *Service) SetVolume(level float64) {
	log.Info().Float64("volume", level).Msg("SetVolume")
	s.store.Dispatch(SetVolume{Level: level})
}

// ToggleMute mutes or unmutes output.
func (s *Service) ToggleMute() {
	log.Info().Msg("ToggleMute")
	s.store.Dispatch(ToggleMute{})
}

// ToggleShuffle switches shuffle mode.
func (s *Service) ToggleShuffle() {
	log.Info().Msg("ToggleShuffle")
	s.store.Dispatch(ToggleShuffle{})
}

// ToggleRepeat cycles the repeat mode.
func (s *Service) ToggleRepeat() {
	log.Info().Msg("ToggleRepeat")
	s.store.Dispatch(ToggleRepeat{})
}

// SetPlaylist replaces the play context.
func (s *Service) SetPlaylist(playlist []Track) {
	log.Info().Int("playlist", len(playlist)).Msg("SetPlaylist")
	s.store.Dispatch(SetPlaylist{Playlist: playlist})
}

func (s *Service) authorize(ctx context.Context, track Track) error {
	if s.gate == nil {
		return nil
	}
	if err := s.gate.Allow(ctx, track); err != nil {
		log.Info().Err(err).Int64("track_id", track.ID).Msg("Playback denied")
		return fmt.Errorf("%w: %w", ErrPlaybackDenied, err)
	}
	return nil
}

func (s *Service) recordListens(c Change) {
	if !c.TrackChanged() || !c.Next.IsPlaying || !c.Next.PlayableTrack() {
		return
	}
	s.recorder.RecordListen(*c.Next.CurrentTrack)
}
