package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/pyramidplay/internal/domain/library"
	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// LibraryDAO stores the user library. Each Save replaces the whole list
// in a single transaction.
type LibraryDAO struct {
	db *DB
}

// NewLibraryDAO creates a DAO over db.
func NewLibraryDAO(db *DB) *LibraryDAO {
	return &LibraryDAO{db: db}
}

var _ library.Repository = (*LibraryDAO)(nil)

// --- Favorites ---

// LoadFavorites returns the stored favorites in order.
func (dao *LibraryDAO) LoadFavorites() ([]player.Track, error) {
	return dao.loadTrackList("favorites")
}

// SaveFavorites replaces the stored favorites.
func (dao *LibraryDAO) SaveFavorites(tracks []player.Track) error {
	return dao.saveTrackList("favorites", tracks)
}

// --- Recents ---

// LoadRecents returns the stored recently played tracks in order.
func (dao *LibraryDAO) LoadRecents() ([]player.Track, error) {
	return dao.loadTrackList("recents")
}

// SaveRecents replaces the stored recently played tracks.
func (dao *LibraryDAO) SaveRecents(tracks []player.Track) error {
	return dao.saveTrackList("recents", tracks)
}

// --- Playlists ---

// LoadPlaylists returns all playlists with their tracks.
func (dao *LibraryDAO) LoadPlaylists() ([]library.UserPlaylist, error) {
	var playlists []library.UserPlaylist

	err := dao.db.query(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT id, name, created_at, updated_at FROM playlists ORDER BY position`)
		if err != nil {
			return err
		}
		defer rows.Close()

		index := make(map[string]int)
		for rows.Next() {
			var p library.UserPlaylist
			var createdAt, updatedAt string
			if err := rows.Scan(&p.ID, &p.Name, &createdAt, &updatedAt); err != nil {
				return err
			}
			p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
			p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
			p.Tracks = []player.Track{}
			index[p.ID] = len(playlists)
			playlists = append(playlists, p)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		// single connection pool: release it before the next query
		rows.Close()

		trackRows, err := db.Query(`SELECT playlist_id, track FROM playlist_tracks ORDER BY playlist_id, position`)
		if err != nil {
			return err
		}
		defer trackRows.Close()

		for trackRows.Next() {
			var playlistID, raw string
			if err := trackRows.Scan(&playlistID, &raw); err != nil {
				return err
			}
			i, ok := index[playlistID]
			if !ok {
				continue
			}
			track, err := decodeTrack(raw)
			if err != nil {
				log.Warn().Err(err).Str("playlist_id", playlistID).Msg("Skipping unreadable playlist track")
				continue
			}
			playlists[i].Tracks = append(playlists[i].Tracks, track)
		}
		return trackRows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}
	return playlists, nil
}

// SavePlaylists replaces all stored playlists.
func (dao *LibraryDAO) SavePlaylists(playlists []library.UserPlaylist) error {
	err := dao.db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM playlist_tracks"); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM playlists"); err != nil {
			return err
		}

		playlistStmt, err := tx.Prepare(`
			INSERT INTO playlists (id, position, name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer playlistStmt.Close()

		trackStmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO playlist_tracks (playlist_id, position, track_id, track)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer trackStmt.Close()

		for pos, p := range playlists {
			if _, err := playlistStmt.Exec(p.ID, pos, p.Name,
				p.CreatedAt.UTC().Format(time.RFC3339Nano), p.UpdatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
				return fmt.Errorf("playlist %s: %w", p.ID, err)
			}
			for tpos, t := range p.Tracks {
				raw, err := json.Marshal(t)
				if err != nil {
					return err
				}
				if _, err := trackStmt.Exec(p.ID, tpos, t.ID, string(raw)); err != nil {
					return fmt.Errorf("playlist %s track %d: %w", p.ID, t.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save playlists: %w", err)
	}
	log.Debug().Int("playlists", len(playlists)).Msg("Playlists saved")
	return nil
}

// --- Shared track list helpers ---

func (dao *LibraryDAO) loadTrackList(table string) ([]player.Track, error) {
	tracks := []player.Track{}

	err := dao.db.query(func(db *sql.DB) error {
		rows, err := db.Query("SELECT track FROM " + table + " ORDER BY position")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			track, err := decodeTrack(raw)
			if err != nil {
				log.Warn().Err(err).Str("table", table).Msg("Skipping unreadable track")
				continue
			}
			tracks = append(tracks, track)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	return tracks, nil
}

func (dao *LibraryDAO) saveTrackList(table string, tracks []player.Track) error {
	err := dao.db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
		stmt, err := tx.Prepare("INSERT OR IGNORE INTO " + table + " (position, track_id, track) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for pos, t := range tracks {
			raw, err := json.Marshal(t)
			if err != nil {
				return err
			}
			if _, err := stmt.Exec(pos, t.ID, string(raw)); err != nil {
				return fmt.Errorf("track %d: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", table, err)
	}
	return nil
}

func decodeTrack(raw string) (player.Track, error) {
	var t player.Track
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return player.Track{}, err
	}
	return t, nil
}
