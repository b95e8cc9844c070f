package player

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

// Rand picks shuffle candidates. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand uses the process-wide math/rand/v2 source.
var DefaultRand Rand = globalRand{}

// Reduce computes the state that results from applying a to s.
// It performs no I/O; the Binder applies side effects afterwards.
func Reduce(s State, a Action, rng Rand) State {
	if rng == nil {
		rng = DefaultRand
	}

	switch a := a.(type) {
	case SetCurrentTrack:
		track := a.Track
		s.CurrentTrack = &track
		s.Playlist = slices.Clone(a.Playlist)
		s.CurrentIndex = indexOfTrack(s.Playlist, track.ID)
		s.IsPlaying = true
	case Play:
		s.IsPlaying = true
	case Pause:
		s.IsPlaying = false
	case SetCurrentTime:
		s.CurrentTime = nonNegative(a.Seconds)
	case SetDuration:
		s.Duration = nonNegative(a.Seconds)
	case SetVolume:
		level := a.Level
		if math.IsNaN(level) {
			level = 0
		}
		s.Volume = lo.Clamp(level, 0, 1)
		s.Muted = false
	case ToggleMute:
		s.Muted = !s.Muted
	case ToggleShuffle:
		s.Shuffle = !s.Shuffle
	case ToggleRepeat:
		s.Repeat = s.Repeat.Next()
	case SetPlaylist:
		s.Playlist = slices.Clone(a.Playlist)
		s.CurrentIndex = -1
		if s.CurrentTrack != nil {
			s.CurrentIndex = indexOfTrack(s.Playlist, s.CurrentTrack.ID)
		}
	case SetCurrentIndex:
		if a.Index < 0 || a.Index >= len(s.Playlist) {
			s.CurrentIndex = -1
			s.CurrentTrack = nil
			break
		}
		track := s.Playlist[a.Index]
		s.CurrentIndex = a.Index
		s.CurrentTrack = &track
	case AdvanceTrack:
		return advance(s, a.Direction, rng)
	}
	return s
}

// advance moves to the next playable track in dir. It returns s unchanged
// when nothing is playable or the boundary is reached without repeat.
func advance(s State, dir Direction, rng Rand) State {
	if dir != Backward {
		dir = Forward
	}

	playable := playableIndices(s.Playlist)
	if len(playable) == 0 {
		return s
	}

	if s.Shuffle {
		pool := lo.Without(playable, s.CurrentIndex)
		if len(pool) == 0 {
			pool = playable
		}
		return loadIndex(s, pool[rng.IntN(len(pool))])
	}

	n := len(s.Playlist)
	next := s.CurrentIndex + int(dir)
	for attempts := 0; attempts < n; attempts++ {
		if next >= n || next < 0 {
			if s.Repeat == RepeatNone {
				return s
			}
			if next >= n {
				next = 0
			} else {
				next = n - 1
			}
		}
		if s.Playlist[next].Playable() {
			return loadIndex(s, next)
		}
		next += int(dir)
	}
	return s
}

func loadIndex(s State, i int) State {
	track := s.Playlist[i]
	s.CurrentTrack = &track
	s.CurrentIndex = i
	s.CurrentTime = 0
	s.IsPlaying = true
	return s
}

func playableIndices(playlist []Track) []int {
	return lo.FilterMap(playlist, func(t Track, i int) (int, bool) {
		return i, t.Playable()
	})
}

func indexOfTrack(playlist []Track, id int64) int {
	_, idx, _ := lo.FindIndexOf(playlist, func(t Track) bool {
		return t.ID == id
	})
	return idx
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
