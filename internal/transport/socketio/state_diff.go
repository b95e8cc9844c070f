package socketio

import "reflect"

// stateCompareKeys are the pushState fields that warrant a broadcast.
// currentTime is excluded; clock movement goes out as pushProgress.
var stateCompareKeys = []string{
	"currentTrack",
	"playlist",
	"currentIndex",
	"isPlaying",
	"duration",
	"volume",
	"isMuted",
	"shuffle",
	"repeat",
}

func (s *Server) saveLastState(state map[string]interface{}) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.lastState = state
}

// isStateSame reports whether state matches the last broadcast on every
// compared key.
func (s *Server) isStateSame(state map[string]interface{}) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.lastState == nil {
		return false
	}
	for _, key := range stateCompareKeys {
		if !reflect.DeepEqual(s.lastState[key], state[key]) {
			return false
		}
	}
	return true
}
