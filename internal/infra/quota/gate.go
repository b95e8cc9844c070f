// Package quota limits how many tracks a free-tier session may start.
package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// DefaultWindow is how long a play count lives before it resets.
const DefaultWindow = 24 * time.Hour

// ErrLimitReached is returned once the free play allowance is used up.
var ErrLimitReached = errors.New("free play limit reached")

// Counter stores play counts.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Decr(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// Gate allows a fixed number of track starts per window. Resuming or
// restarting the track that was last counted is free.
type Gate struct {
	counter Counter
	limit   int
	key     string
	window  time.Duration

	mu          sync.Mutex
	lastTrackID int64
	counted     bool
}

// NewGate creates a gate allowing limit plays under key. A limit of zero
// or less disables the gate.
func NewGate(counter Counter, limit int, key string) *Gate {
	return &Gate{
		counter: counter,
		limit:   limit,
		key:     "pyramidplay:plays:" + key,
		window:  DefaultWindow,
	}
}

var _ player.Gate = (*Gate)(nil)

// Enabled reports whether plays are being limited.
func (g *Gate) Enabled() bool {
	return g.limit > 0
}

// Allow counts a play of track and fails with ErrLimitReached past the limit.
// Counter failures are logged and the play is allowed.
func (g *Gate) Allow(ctx context.Context, track player.Track) error {
	if !g.Enabled() {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.counted && g.lastTrackID == track.ID {
		return nil
	}

	n, err := g.counter.Incr(ctx, g.key, g.window)
	if err != nil {
		log.Warn().Err(err).Msg("Play counter unavailable, allowing playback")
		return nil
	}
	if n > int64(g.limit) {
		if err := g.counter.Decr(ctx, g.key); err != nil {
			log.Warn().Err(err).Msg("Failed to roll back play count")
		}
		return fmt.Errorf("%w (%d plays)", ErrLimitReached, g.limit)
	}

	g.lastTrackID = track.ID
	g.counted = true
	log.Debug().Int64("plays", n).Int("limit", g.limit).Msg("Free play counted")
	return nil
}

// Remaining returns how many plays are left in the current window.
func (g *Gate) Remaining(ctx context.Context) (int, error) {
	if !g.Enabled() {
		return -1, nil
	}
	n, err := g.counter.Get(ctx, g.key)
	if err != nil {
		return 0, fmt.Errorf("failed to read play count: %w", err)
	}
	return max(0, g.limit-int(n)), nil
}

// Reset clears the play count.
func (g *Gate) Reset(ctx context.Context) error {
	g.mu.Lock()
	g.counted = false
	g.mu.Unlock()

	if err := g.counter.Reset(ctx, g.key); err != nil {
		return fmt.Errorf("failed to reset play count: %w", err)
	}
	return nil
}
