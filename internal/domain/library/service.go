package library

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// Service manages the library in memory and writes every change through to
// the repository. Repository failures are logged; the in-memory view stays
// authoritative for the running session.
//
// Mutations hold saveMu from the in-memory update through the save, so the
// repository receives lists in the order they changed.
type Service struct {
	repo   Repository
	saveMu sync.Mutex

	mu        sync.RWMutex
	favorites []player.Track
	playlists []UserPlaylist
	recents   []player.Track
	listeners []func(Snapshot)

	now   func() time.Time
	newID func() string
}

// NewService loads the library from repo. A nil repo keeps everything in memory.
func NewService(repo Repository) *Service {
	s := &Service{
		repo:      repo,
		favorites: []player.Track{},
		playlists: []UserPlaylist{},
		recents:   []player.Track{},
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	s.load()
	return s
}

func (s *Service) load() {
	if s.repo == nil {
		return
	}
	if favs, err := s.repo.LoadFavorites(); err != nil {
		log.Warn().Err(err).Msg("Failed to load favorites")
	} else if favs != nil {
		s.favorites = favs
	}
	if lists, err := s.repo.LoadPlaylists(); err != nil {
		log.Warn().Err(err).Msg("Failed to load playlists")
	} else if lists != nil {
		s.playlists = lists
	}
	if recents, err := s.repo.LoadRecents(); err != nil {
		log.Warn().Err(err).Msg("Failed to load recents")
	} else if recents != nil {
		s.recents = recents
	}
	log.Info().
		Int("favorites", len(s.favorites)).
		Int("playlists", len(s.playlists)).
		Int("recents", len(s.recents)).
		Msg("Library loaded")
}

// OnChange registers fn to be called with a fresh snapshot after every change.
func (s *Service) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a copy of the library.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() Snapshot {
	return Snapshot{
		Favorites: slices.Clone(s.favorites),
		Playlists: clonePlaylists(s.playlists),
		Recents:   slices.Clone(s.recents),
	}
}

// Favorites returns the favorite tracks, most recently added first.
func (s *Service) Favorites() []player.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.favorites)
}

// IsFavorite reports whether the track with id is a favorite.
func (s *Service) IsFavorite(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsTrack(s.favorites, id)
}

// ToggleFavorite adds track to the favorites or removes it if already there.
// It reports whether the track is a favorite afterwards.
func (s *Service) ToggleFavorite(track player.Track) bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	added := !containsTrack(s.favorites, track.ID)
	if added {
		s.favorites = prepend(s.favorites, track)
	} else {
		s.favorites = removeTrack(s.favorites, track.ID)
	}
	favs := slices.Clone(s.favorites)
	s.mu.Unlock()

	log.Info().Int64("track_id", track.ID).Bool("favorite", added).Msg("Favorite toggled")
	if s.repo != nil {
		if err := s.repo.SaveFavorites(favs); err != nil {
			log.Error().Err(err).Msg("Failed to save favorites")
		}
	}
	s.notify()
	return added
}

// Playlists returns the user's playlists, newest first.
func (s *Service) Playlists() []UserPlaylist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlaylists(s.playlists)
}

// Playlist returns the playlist with id.
func (s *Service) Playlist(id string) (UserPlaylist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := lo.Find(s.playlists, func(p UserPlaylist) bool { return p.ID == id })
	if !ok {
		return UserPlaylist{}, ErrPlaylistNotFound
	}
	p.Tracks = slices.Clone(p.Tracks)
	return p, nil
}

// CreatePlaylist creates a playlist, optionally seeded with first.
func (s *Service) CreatePlaylist(name string, first *player.Track) UserPlaylist {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultPlaylistName
	}
	now := s.now()
	p := UserPlaylist{
		ID:        s.newID(),
		Name:      name,
		Tracks:    []player.Track{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if first != nil {
		p.Tracks = append(p.Tracks, *first)
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.playlists = prepend(s.playlists, p)
	lists := clonePlaylists(s.playlists)
	s.mu.Unlock()

	log.Info().Str("playlist_id", p.ID).Str("name", p.Name).Msg("Playlist created")
	s.savePlaylists(lists)
	s.notify()

	p.Tracks = slices.Clone(p.Tracks)
	return p
}

// AddToPlaylist inserts track at the front of the playlist with id.
// A track already in the playlist is left where it is.
func (s *Service) AddToPlaylist(track player.Track, id string) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	idx := slices.IndexFunc(s.playlists, func(p UserPlaylist) bool { return p.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return ErrPlaylistNotFound
	}
	p := s.playlists[idx]
	if containsTrack(p.Tracks, track.ID) {
		s.mu.Unlock()
		return nil
	}
	p.Tracks = prepend(p.Tracks, track)
	p.UpdatedAt = s.now()
	s.playlists = slices.Clone(s.playlists)
	s.playlists[idx] = p
	lists := clonePlaylists(s.playlists)
	s.mu.Unlock()

	log.Info().Str("playlist_id", id).Int64("track_id", track.ID).Msg("Track added to playlist")
	s.savePlaylists(lists)
	s.notify()
	return nil
}

// Recents returns the recently played tracks, most recent first.
func (s *Service) Recents() []player.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.recents)
}

// RecordListen moves track to the front of the recents list.
func (s *Service) RecordListen(track player.Track) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.recents = prepend(removeTrack(s.recents, track.ID), track)
	if len(s.recents) > MaxRecents {
		s.recents = s.recents[:MaxRecents]
	}
	recents := slices.Clone(s.recents)
	s.mu.Unlock()

	log.Debug().Int64("track_id", track.ID).Msg("Listen recorded")
	if s.repo != nil {
		if err := s.repo.SaveRecents(recents); err != nil {
			log.Error().Err(err).Msg("Failed to save recents")
		}
	}
	s.notify()
}

func (s *Service) savePlaylists(lists []UserPlaylist) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SavePlaylists(lists); err != nil {
		log.Error().Err(err).Msg("Failed to save playlists")
	}
}

func (s *Service) notify() {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func containsTrack(tracks []player.Track, id int64) bool {
	return lo.ContainsBy(tracks, func(t player.Track) bool { return t.ID == id })
}

func removeTrack(tracks []player.Track, id int64) []player.Track {
	return lo.Reject(tracks, func(t player.Track, _ int) bool { return t.ID == id })
}

func prepend[T any](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}

func clonePlaylists(lists []UserPlaylist) []UserPlaylist {
	return lo.Map(lists, func(p UserPlaylist, _ int) UserPlaylist {
		p.Tracks = slices.Clone(p.Tracks)
		return p
	})
}
