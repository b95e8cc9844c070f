// Package player provides the playback state machine, the media element
// binding and the command surface used by every client transport.
package player

import "fmt"

// RepeatMode controls what happens at the end of a track and at playlist boundaries.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the wire name of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m in the none -> all -> one cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// ParseRepeatMode parses a wire name produced by String.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "none", "":
		return RepeatNone, nil
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	}
	return RepeatNone, fmt.Errorf("unknown repeat mode %q", s)
}

// Direction is the step used when advancing through the playlist.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// State is a snapshot of the player. Values are treated as immutable:
// transitions build a new State and never mutate the playlist in place.
type State struct {
	CurrentTrack *Track
	Playlist     []Track
	CurrentIndex int // -1 when no track is loaded or it is not in Playlist

	IsPlaying   bool
	CurrentTime float64 // seconds
	Duration    float64 // seconds, 0 until metadata is known

	Volume float64 // 0..1
	Muted  bool

	Shuffle bool
	Repeat  RepeatMode
}

// NewState returns the state a session starts with.
func NewState() State {
	return State{
		CurrentIndex: -1,
		Volume:       1,
		Repeat:       RepeatNone,
	}
}

// EffectiveVolume is the gain the output device should apply.
func (s State) EffectiveVolume() float64 {
	if s.Muted {
		return 0
	}
	return s.Volume
}

// PlayableTrack reports whether a track with a source is loaded.
func (s State) PlayableTrack() bool {
	return s.CurrentTrack != nil && s.CurrentTrack.Playable()
}

// ToJSON returns the state as a map suitable for the pushState event.
func (s State) ToJSON() map[string]interface{} {
	playlist := s.Playlist
	if playlist == nil {
		playlist = []Track{}
	}
	return map[string]interface{}{
		"currentTrack": s.CurrentTrack,
		"playlist":     playlist,
		"currentIndex": s.CurrentIndex,
		"isPlaying":    s.IsPlaying,
		"currentTime":  s.CurrentTime,
		"duration":     s.Duration,
		"volume":       s.Volume,
		"isMuted":      s.Muted,
		"shuffle":      s.Shuffle,
		"repeat":       s.Repeat.String(),
	}
}
