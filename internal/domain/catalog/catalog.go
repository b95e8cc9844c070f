// Package catalog serves the fixed set of tracks the player can browse.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// Catalog is an immutable list of tracks.
type Catalog struct {
	tracks []player.Track
	byID   map[int64]int
}

// New creates a catalog from tracks. Later duplicates of an ID are ignored.
func New(tracks []player.Track) *Catalog {
	c := &Catalog{byID: make(map[int64]int, len(tracks))}
	for _, t := range tracks {
		if _, dup := c.byID[t.ID]; dup {
			log.Warn().Int64("track_id", t.ID).Msg("Duplicate catalog entry ignored")
			continue
		}
		c.byID[t.ID] = len(c.tracks)
		c.tracks = append(c.tracks, t)
	}
	return c
}

// LoadFile reads a JSON array of tracks.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var tracks []player.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	c := New(tracks)
	log.Info().
		Str("path", path).
		Int("tracks", c.Len()).
		Int("playable", len(lo.Filter(c.tracks, func(t player.Track, _ int) bool { return t.Playable() }))).
		Msg("Catalog loaded")
	return c, nil
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	return len(c.tracks)
}

// Tracks returns every track in catalog order.
func (c *Catalog) Tracks() []player.Track {
	tracks := slices.Clone(c.tracks)
	if tracks == nil {
		tracks = []player.Track{}
	}
	return tracks
}

// Find returns the track with id.
func (c *Catalog) Find(id int64) (player.Track, bool) {
	i, ok := c.byID[id]
	if !ok {
		return player.Track{}, false
	}
	return c.tracks[i], true
}

// Search returns tracks whose title, artist or album contains query,
// ignoring case. An empty query matches everything.
func (c *Catalog) Search(query string) []player.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Tracks()
	}
	return lo.Filter(c.tracks, func(t player.Track, _ int) bool {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.ArtistNames()), q) {
			return true
		}
		return t.Album != nil && strings.Contains(strings.ToLower(t.Album.Title), q)
	})
}
