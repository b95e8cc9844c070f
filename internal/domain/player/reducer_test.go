package player_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// fixedRand always returns the same candidate position.
type fixedRand struct{ n int }

func (r fixedRand) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

func track(id int64, src string) player.Track {
	return player.Track{ID: id, Title: "Track", Src: src}
}

func stateAt(playlist []player.Track, index int) player.State {
	s := player.NewState()
	s.Playlist = playlist
	s.CurrentIndex = index
	if index >= 0 {
		t := playlist[index]
		s.CurrentTrack = &t
	}
	return s
}

func assertConsistent(t *testing.T, s player.State) {
	t.Helper()
	if s.CurrentIndex == -1 {
		return
	}
	if s.CurrentTrack == nil {
		t.Fatalf("index %d set without a current track", s.CurrentIndex)
	}
	if s.Playlist[s.CurrentIndex].ID != s.CurrentTrack.ID {
		t.Fatalf("playlist[%d].ID = %d, current track ID = %d",
			s.CurrentIndex, s.Playlist[s.CurrentIndex].ID, s.CurrentTrack.ID)
	}
}

func TestNewState(t *testing.T) {
	s := player.NewState()

	if s.CurrentIndex != -1 {
		t.Errorf("expected index -1, got %d", s.CurrentIndex)
	}
	if s.Volume != 1 {
		t.Errorf("expected volume 1, got %v", s.Volume)
	}
	if s.Repeat != player.RepeatNone {
		t.Errorf("expected repeat none, got %v", s.Repeat)
	}
	if s.IsPlaying || s.Shuffle || s.Muted {
		t.Error("expected a stopped, unshuffled, unmuted state")
	}
}

func TestSetCurrentTrack(t *testing.T) {
	playlist := []player.Track{track(1, "a.mp3"), track(2, "b.mp3"), track(3, "c.mp3")}

	s := player.Reduce(player.NewState(), player.SetCurrentTrack{Track: playlist[1], Playlist: playlist}, nil)

	if s.CurrentIndex != 1 {
		t.Errorf("expected index 1, got %d", s.CurrentIndex)
	}
	if !s.IsPlaying {
		t.Error("expected playing")
	}
	if s.CurrentTrack == nil || s.CurrentTrack.ID != 2 {
		t.Errorf("expected track 2, got %+v", s.CurrentTrack)
	}
	assertConsistent(t, s)
}

func TestSetCurrentTrackNotInPlaylist(t *testing.T) {
	playlist := []player.Track{track(1, "a.mp3")}

	s := player.Reduce(player.NewState(), player.SetCurrentTrack{Track: track(9, "z.mp3"), Playlist: playlist}, nil)

	if s.CurrentIndex != -1 {
		t.Errorf("expected index -1, got %d", s.CurrentIndex)
	}
	if s.CurrentTrack == nil || s.CurrentTrack.ID != 9 {
		t.Error("expected the selected track to be loaded anyway")
	}
}

func TestSetCurrentTrackCopiesPlaylist(t *testing.T) {
	playlist := []player.Track{track(1, "a.mp3"), track(2, "b.mp3")}

	s := player.Reduce(player.NewState(), player.SetCurrentTrack{Track: playlist[0], Playlist: playlist}, nil)
	playlist[0].Title = "mutated"

	if s.Playlist[0].Title == "mutated" {
		t.Error("state playlist should not alias the caller's slice")
	}
}

func TestPlayPause(t *testing.T) {
	s := player.Reduce(player.NewState(), player.Play{}, nil)
	if !s.IsPlaying {
		t.Error("expected playing after Play")
	}
	if s.CurrentTrack != nil || s.CurrentIndex != -1 {
		t.Error("Play must not touch track or index")
	}

	s = player.Reduce(s, player.Pause{}, nil)
	if s.IsPlaying {
		t.Error("expected paused after Pause")
	}
}

func TestClockClamping(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"positive", 12.5, 12.5},
		{"zero", 0, 0},
		{"negative", -3, 0},
		{"NaN", math.NaN(), 0},
		{"infinite", math.Inf(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := player.Reduce(player.NewState(), player.SetCurrentTime{Seconds: tt.input}, nil)
			if s.CurrentTime != tt.expected {
				t.Errorf("SetCurrentTime(%v) = %v, want %v", tt.input, s.CurrentTime, tt.expected)
			}
			s = player.Reduce(player.NewState(), player.SetDuration{Seconds: tt.input}, nil)
			if s.Duration != tt.expected {
				t.Errorf("SetDuration(%v) = %v, want %v", tt.input, s.Duration, tt.expected)
			}
		})
	}
}

func TestSetVolumeClampsAndUnmutes(t *testing.T) {
	tests := []struct {
		name      string
		volume    float64
		effective float64
	}{
		{"below range", -0.5, 0},
		{"above range", 1.7, 1},
		{"in range", 0.4, 0.4},
		{"NaN", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := player.NewState()
			s.Muted = true

			s = player.Reduce(s, player.SetVolume{Level: tt.volume}, nil)

			if s.Muted {
				t.Error("SetVolume should clear mute")
			}
			if s.EffectiveVolume() != tt.effective {
				t.Errorf("effective volume = %v, want %v", s.EffectiveVolume(), tt.effective)
			}
		})
	}
}

func TestToggleMuteTwiceRestores(t *testing.T) {
	s := player.Reduce(player.NewState(), player.SetVolume{Level: 0.6}, nil)
	orig := s

	s = player.Reduce(s, player.ToggleMute{}, nil)
	if !s.Muted || s.EffectiveVolume() != 0 {
		t.Error("expected muted with effective volume 0")
	}
	if s.Volume != 0.6 {
		t.Errorf("mute should not touch volume, got %v", s.Volume)
	}

	s = player.Reduce(s, player.ToggleMute{}, nil)
	if s.Muted != orig.Muted || s.Volume != orig.Volume {
		t.Errorf("expected %v/%v after two toggles, got %v/%v", orig.Muted, orig.Volume, s.Muted, s.Volume)
	}
}

func TestToggleShuffleAndRepeat(t *testing.T) {
	s := player.NewState()

	s = player.Reduce(s, player.ToggleShuffle{}, nil)
	if !s.Shuffle {
		t.Error("expected shuffle on")
	}
	s = player.Reduce(s, player.ToggleShuffle{}, nil)
	if s.Shuffle {
		t.Error("expected shuffle off")
	}

	expected := []player.RepeatMode{player.RepeatAll, player.RepeatOne, player.RepeatNone}
	for _, want := range expected {
		s = player.Reduce(s, player.ToggleRepeat{}, nil)
		if s.Repeat != want {
			t.Errorf("expected repeat %v, got %v", want, s.Repeat)
		}
	}
}

func TestSetPlaylistRelocatesCurrentTrack(t *testing.T) {
	playlist := []player.Track{track(1, "a.mp3"), track(2, "b.mp3")}
	s := stateAt(playlist, 1)
	s.IsPlaying = true

	reordered := []player.Track{track(3, "c.mp3"), track(4, "d.mp3"), track(2, "b.mp3")}
	s = player.Reduce(s, player.SetPlaylist{Playlist: reordered}, nil)

	if s.CurrentIndex != 2 {
		t.Errorf("expected index 2, got %d", s.CurrentIndex)
	}
	if !s.IsPlaying || s.CurrentTrack.ID != 2 {
		t.Error("SetPlaylist must not change track or playing flag")
	}
	assertConsistent(t, s)

	s = player.Reduce(s, player.SetPlaylist{Playlist: []player.Track{track(5, "e.mp3")}}, nil)
	if s.CurrentIndex != -1 {
		t.Errorf("expected index -1 when track is absent, got %d", s.CurrentIndex)
	}
	if s.CurrentTrack == nil || s.CurrentTrack.ID != 2 {
		t.Error("current track should be kept when absent from the new playlist")
	}
}

func TestSetPlaylistWithoutTrack(t *testing.T) {
	s := player.Reduce(player.NewState(), player.SetPlaylist{Playlist: []player.Track{track(1, "a.mp3")}}, nil)

	if s.CurrentIndex != -1 {
		t.Errorf("expected index -1, got %d", s.CurrentIndex)
	}
}

func TestSetCurrentIndex(t *testing.T) {
	playlist := []player.Track{track(1, "a.mp3"), track(2, "b.mp3")}
	s := stateAt(playlist, 0)

	s = player.Reduce(s, player.SetCurrentIndex{Index: 1}, nil)
	if s.CurrentIndex != 1 || s.CurrentTrack.ID != 2 {
		t.Errorf("expected track 2 at index 1, got index %d", s.CurrentIndex)
	}

	s = player.Reduce(s, player.SetCurrentIndex{Index: 7}, nil)
	if s.CurrentIndex != -1 || s.CurrentTrack != nil {
		t.Error("out of range index should unload the track")
	}
}

func TestAdvanceSkipsUnplayable(t *testing.T) {
	playlist := []player.Track{track(1, ""), track(2, "x"), track(3, ""), track(4, "y")}
	s := stateAt(playlist, 0)

	s = player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, nil)

	if s.CurrentIndex != 1 || s.CurrentTrack.ID != 2 {
		t.Fatalf("expected B at index 1, got index %d", s.CurrentIndex)
	}

	s = player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, nil)
	if s.CurrentIndex != 3 {
		t.Errorf("expected D at index 3 after skipping C, got %d", s.CurrentIndex)
	}
	assertConsistent(t, s)
}

func TestAdvanceBoundaryWithoutRepeatIsNoop(t *testing.T) {
	playlist := []player.Track{track(1, "a"), track(2, "b"), track(3, "")}
	s := stateAt(playlist, 1)
	s.IsPlaying = true
	s.CurrentTime = 42

	next := player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, nil)

	if !reflect.DeepEqual(next, s) {
		t.Errorf("expected unchanged state at boundary, got %+v", next)
	}

	first := stateAt(playlist, 0)
	prev := player.Reduce(first, player.AdvanceTrack{Direction: player.Backward}, nil)
	if !reflect.DeepEqual(prev, first) {
		t.Error("expected unchanged state before the first track")
	}
}

func TestAdvanceBoundaryWithRepeatWraps(t *testing.T) {
	playlist := []player.Track{track(1, ""), track(2, "b"), track(3, "c"), track(4, "")}

	for _, mode := range []player.RepeatMode{player.RepeatAll, player.RepeatOne} {
		t.Run(mode.String(), func(t *testing.T) {
			s := stateAt(playlist, 2)
			s.Repeat = mode

			s = player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, nil)
			if s.CurrentIndex != 1 {
				t.Errorf("expected wrap to first playable index 1, got %d", s.CurrentIndex)
			}

			s = player.Reduce(s, player.AdvanceTrack{Direction: player.Backward}, nil)
			if s.CurrentIndex != 2 {
				t.Errorf("expected backward wrap to last playable index 2, got %d", s.CurrentIndex)
			}
		})
	}
}

func TestAdvanceNoPlayableTracks(t *testing.T) {
	tests := []struct {
		name     string
		playlist []player.Track
	}{
		{"empty playlist", nil},
		{"nothing playable", []player.Track{track(1, ""), track(2, "")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, shuffle := range []bool{false, true} {
				s := player.NewState()
				s.Playlist = tt.playlist
				s.Shuffle = shuffle
				s.Repeat = player.RepeatAll
				if len(tt.playlist) > 0 {
					s = stateAt(tt.playlist, 0)
					s.Shuffle = shuffle
				}

				next := player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, fixedRand{0})

				if next.CurrentTrack != s.CurrentTrack || next.CurrentIndex != s.CurrentIndex || next.IsPlaying != s.IsPlaying {
					t.Errorf("shuffle=%v: expected no-op, got index %d", shuffle, next.CurrentIndex)
				}
			}
		})
	}
}

func TestAdvanceFromNoTrackStartsAtFirstPlayable(t *testing.T) {
	playlist := []player.Track{track(1, ""), track(2, "b")}
	s := player.NewState()
	s.Playlist = playlist

	s = player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, nil)

	if s.CurrentIndex != 1 {
		t.Errorf("expected index 1, got %d", s.CurrentIndex)
	}
}

func TestAdvanceShuffleExcludesCurrent(t *testing.T) {
	playlist := []player.Track{track(1, "a"), track(2, ""), track(3, "c"), track(4, "d")}

	for pick := 0; pick < 2; pick++ {
		s := stateAt(playlist, 0)
		s.Shuffle = true

		s = player.Reduce(s, player.AdvanceTrack{Direction: player.Backward}, fixedRand{pick})

		if s.CurrentIndex == 0 || s.CurrentIndex == 1 {
			t.Errorf("pick %d: landed on excluded index %d", pick, s.CurrentIndex)
		}
		if !s.IsPlaying || s.CurrentTime != 0 {
			t.Error("shuffle advance should start playback from zero")
		}
		assertConsistent(t, s)
	}
}

func TestAdvanceShuffleSinglePlayableFallsBack(t *testing.T) {
	playlist := []player.Track{track(1, ""), track(2, "b")}
	s := stateAt(playlist, 1)
	s.Shuffle = true
	s.CurrentTime = 30

	s = player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, fixedRand{0})

	if s.CurrentIndex != 1 {
		t.Errorf("expected the only playable track, got %d", s.CurrentIndex)
	}
	if s.CurrentTime != 0 {
		t.Errorf("expected clock reset, got %v", s.CurrentTime)
	}
}

func TestAdvanceShuffleUsesWholeRange(t *testing.T) {
	playlist := []player.Track{track(1, "a"), track(2, "b"), track(3, "c")}
	seen := map[int]bool{}

	for pick := 0; pick < 3; pick++ {
		s := stateAt(playlist, 1)
		s.Shuffle = true
		s = player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, fixedRand{pick})
		seen[s.CurrentIndex] = true
	}

	if !seen[0] || !seen[2] || seen[1] {
		t.Errorf("expected picks over {0, 2}, got %v", seen)
	}
}

func TestPlaybackScenario(t *testing.T) {
	playlist := []player.Track{track(1, "a.mp3"), track(2, "b.mp3"), track(3, "c.mp3")}

	s := player.Reduce(player.NewState(), player.SetCurrentTrack{Track: playlist[1], Playlist: playlist}, nil)
	if s.CurrentIndex != 1 || !s.IsPlaying {
		t.Fatalf("expected index 1 playing, got %d/%v", s.CurrentIndex, s.IsPlaying)
	}

	s = player.Reduce(s, player.SetCurrentTime{Seconds: 61}, nil)
	s = player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, nil)
	if s.CurrentIndex != 2 || s.CurrentTime != 0 || !s.IsPlaying {
		t.Fatalf("expected index 2 at 0s playing, got %d/%v/%v", s.CurrentIndex, s.CurrentTime, s.IsPlaying)
	}

	again := player.Reduce(s, player.AdvanceTrack{Direction: player.Forward}, nil)
	if !reflect.DeepEqual(again, s) {
		t.Error("expected advancing past the last track to be a no-op")
	}
}

func TestRepeatModeParse(t *testing.T) {
	for _, mode := range []player.RepeatMode{player.RepeatNone, player.RepeatAll, player.RepeatOne} {
		got, err := player.ParseRepeatMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseRepeatMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if _, err := player.ParseRepeatMode("twice"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestStateToJSON(t *testing.T) {
	playlist := []player.Track{track(1, "a.mp3")}
	s := player.Reduce(player.NewState(), player.SetCurrentTrack{Track: playlist[0], Playlist: playlist}, nil)

	json := s.ToJSON()

	if json["isPlaying"] != true {
		t.Errorf("expected isPlaying true, got %v", json["isPlaying"])
	}
	if json["repeat"] != "none" {
		t.Errorf("expected repeat none, got %v", json["repeat"])
	}
	if json["currentIndex"] != 0 {
		t.Errorf("expected currentIndex 0, got %v", json["currentIndex"])
	}
}
