// Package library keeps the user's favorites, playlists and recently played tracks.
package library

import (
	"errors"
	"time"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// MaxRecents bounds the recently played list.
const MaxRecents = 50

// DefaultPlaylistName is used when a playlist is created without a name.
const DefaultPlaylistName = "New playlist"

// ErrPlaylistNotFound is returned for operations on an unknown playlist ID.
var ErrPlaylistNotFound = errors.New("playlist not found")

// UserPlaylist is a named list of tracks created by the user.
type UserPlaylist struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Tracks    []player.Track `json:"tracks"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Snapshot is a copy of the whole library, as pushed to clients.
type Snapshot struct {
	Favorites []player.Track `json:"favorites"`
	Playlists []UserPlaylist `json:"playlists"`
	Recents   []player.Track `json:"recents"`
}

// Repository persists the library between sessions.
type Repository interface {
	LoadFavorites() ([]player.Track, error)
	SaveFavorites(tracks []player.Track) error
	LoadPlaylists() ([]UserPlaylist, error)
	SavePlaylists(playlists []UserPlaylist) error
	LoadRecents() ([]player.Track, error)
	SaveRecents(tracks []player.Track) error
}
