package player

// Action is a command accepted by Reduce. The set is closed: only the
// types declared in this file implement it.
type Action interface {
	// Name identifies the action in logs.
	Name() string
	action()
}

// SetCurrentTrack loads track as the current item of playlist and starts playback.
type SetCurrentTrack struct {
	Track    Track
	Playlist []Track
}

// Play marks playback as active.
type Play struct{}

// Pause marks playback as inactive.
type Pause struct{}

// SetCurrentTime moves the playback clock.
type SetCurrentTime struct{ Seconds float64 }

// SetDuration records the length of the loaded media.
type SetDuration struct{ Seconds float64 }

// SetVolume sets the output level and unmutes.
type SetVolume struct{ Level float64 }

// ToggleMute flips the mute flag.
type ToggleMute struct{}

// ToggleShuffle flips shuffle mode.
type ToggleShuffle struct{}

// ToggleRepeat cycles the repeat mode.
type ToggleRepeat struct{}

// SetPlaylist replaces the play context without changing the current track.
type SetPlaylist struct{ Playlist []Track }

// AdvanceTrack moves to the next or previous playable track.
type AdvanceTrack struct{ Direction Direction }

// SetCurrentIndex jumps directly to a playlist position.
type SetCurrentIndex struct{ Index int }

func (SetCurrentTrack) Name() string { return "SET_CURRENT_TRACK" }
func (Play) Name() string            { return "PLAY" }
func (Pause) Name() string           { return "PAUSE" }
func (SetCurrentTime) Name() string  { return "SET_CURRENT_TIME" }
func (SetDuration) Name() string     { return "SET_DURATION" }
func (SetVolume) Name() string       { return "SET_VOLUME" }
func (ToggleMute) Name() string      { return "TOGGLE_MUTE" }
func (ToggleShuffle) Name() string   { return "TOGGLE_SHUFFLE" }
func (ToggleRepeat) Name() string    { return "TOGGLE_REPEAT" }
func (SetPlaylist) Name() string     { return "SET_PLAYLIST" }
func (a AdvanceTrack) Name() string {
	if a.Direction == Backward {
		return "PREVIOUS_TRACK"
	}
	return "NEXT_TRACK"
}
func (SetCurrentIndex) Name() string { return "SET_CURRENT_INDEX" }

func (SetCurrentTrack) action() {}
func (Play) action()            {}
func (Pause) action()           {}
func (SetCurrentTime) action()  {}
func (SetDuration) action()     {}
func (SetVolume) action()       {}
func (ToggleMute) action()      {}
func (ToggleShuffle) action()   {}
func (ToggleRepeat) action()    {}
func (SetPlaylist) action()     {}
func (AdvanceTrack) action()    {}
func (SetCurrentIndex) action() {}
