package player

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Change describes one applied transition.
type Change struct {
	Action Action
	Prev   State
	Next   State
}

// TrackChanged reports whether a new track was loaded. Every load allocates
// a fresh *Track, so reselecting the same item counts as a change.
func (c Change) TrackChanged() bool {
	return c.Prev.CurrentTrack != c.Next.CurrentTrack
}

// Subscriber observes applied transitions.
type Subscriber func(Change)

// Store owns the player state and serializes every transition.
//
// Dispatch reduces the action before it returns, from any goroutine, so a
// caller always reads its own write. Notification behaves like an event
// loop: changes produced while another goroutine (or a subscriber) is
// already notifying are queued and delivered in order by that loop, so
// subscribers see every change exactly once in the order it was applied.
type Store struct {
	mu          sync.Mutex
	state       State
	rng         Rand
	pending     []Change
	draining    bool
	nextSubID   int
	subscribers map[int]Subscriber
	order       []int
}

// NewStore creates a store holding initial. A nil rng uses DefaultRand.
func NewStore(initial State, rng Rand) *Store {
	if rng == nil {
		rng = DefaultRand
	}
	return &Store{
		state:       initial,
		rng:         rng,
		subscribers: make(map[int]Subscriber),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Dispatch applies a to the state and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	prev := s.state
	s.state = Reduce(prev, a, s.rng)
	s.pending = append(s.pending, Change{Action: a, Prev: prev, Next: s.state})
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true

	for len(s.pending) > 0 {
		change := s.pending[0]
		s.pending = s.pending[1:]

		subs := make([]Subscriber, 0, len(s.order))
		for _, id := range s.order {
			subs = append(subs, s.subscribers[id])
		}
		s.mu.Unlock()

		logChange(change)
		for _, fn := range subs {
			fn(change)
		}

		s.mu.Lock()
	}

	s.draining = false
	s.mu.Unlock()
}

func logChange(c Change) {
	if _, ok := c.Action.(SetCurrentTime); ok {
		return
	}
	ev := log.Debug().
		Str("action", c.Action.Name()).
		Int("index", c.Next.CurrentIndex).
		Bool("playing", c.Next.IsPlaying)
	if c.Next.CurrentTrack != nil {
		ev = ev.Int64("track_id", c.Next.CurrentTrack.ID)
	}
	ev.Msg("Player transition")
}
