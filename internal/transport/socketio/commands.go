package socketio

import (
	"context"
	"errors"

	"github.com/edumarques81/pyramidplay/internal/domain/library"
	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// replyFunc emits an event back to the requesting client only.
type replyFunc func(event string, payload any)

type command func(ctx context.Context, reply replyFunc, args []any) error

func (s *Server) registerCommands() {
	s.commands = map[string]command{
		// Playback
		"play":       s.cmdPlay,
		"pause":      s.simple(s.player.Pause),
		"resume":     func(ctx context.Context, _ replyFunc, _ []any) error { return s.player.Resume(ctx) },
		"toggle":     func(ctx context.Context, _ replyFunc, _ []any) error { return s.player.TogglePlay(ctx) },
		"next":       s.simple(s.player.Next),
		"prev":       s.simple(s.player.Previous),
		"jumpTo":     s.cmdJumpTo,
		"seek":       s.cmdSeek,
		"scrubStart": s.simple(func() { s.player.SetScrubbing(true) }),
		"scrubEnd":   s.cmdScrubEnd,

		// Settings
		"volume":        s.cmdVolume,
		"mute":          s.simple(s.player.ToggleMute),
		"toggleShuffle": s.simple(s.player.ToggleShuffle),
		"toggleRepeat":  s.simple(s.player.ToggleRepeat),
		"setPlaylist":   s.cmdSetPlaylist,

		// Library
		"toggleFavorite": s.cmdToggleFavorite,
		"createPlaylist": s.cmdCreatePlaylist,
		"addToPlaylist":  s.cmdAddToPlaylist,

		// Queries
		"getState":   s.cmdGetState,
		"getLibrary": s.cmdGetLibrary,
		"getCatalog": s.cmdGetCatalog,
		"search":     s.cmdSearch,
	}
}

// Handle runs the named command as if a client had emitted it.
func (s *Server) Handle(ctx context.Context, event string, reply replyFunc, args ...any) error {
	cmd, ok := s.commands[event]
	if !ok {
		return errors.New("unknown event: " + event)
	}
	if reply == nil {
		reply = func(string, any) {}
	}
	return cmd(ctx, reply, args)
}

func (s *Server) simple(fn func()) command {
	return func(context.Context, replyFunc, []any) error {
		fn()
		return nil
	}
}

func (s *Server) cmdPlay(ctx context.Context, _ replyFunc, args []any) error {
	var p playPayload
	if err := decodeArg(args, &p); err != nil {
		return err
	}

	var track player.Track
	switch {
	case p.Track != nil:
		track = *p.Track
	case p.TrackID != 0 && s.catalog != nil:
		found, ok := s.catalog.Find(p.TrackID)
		if !ok {
			return errUnknownTrack
		}
		track = found
	default:
		return errMissingPayload
	}

	playlist := p.Playlist
	if playlist == nil && p.Track == nil && s.catalog != nil {
		playlist = s.catalog.Tracks()
	}
	return s.player.Play(ctx, track, playlist)
}

func (s *Server) cmdJumpTo(_ context.Context, _ replyFunc, args []any) error {
	var p indexPayload
	if err := decodeArg(args, &p); err != nil {
		if n, numErr := numberArg(args); numErr == nil {
			s.player.JumpTo(int(n))
			return nil
		}
		return err
	}
	if p.Index == nil {
		return errMissingPayload
	}
	s.player.JumpTo(*p.Index)
	return nil
}

func (s *Server) cmdSeek(_ context.Context, _ replyFunc, args []any) error {
	pos, err := numberArg(args)
	if err != nil {
		return err
	}
	s.player.Seek(pos)
	return nil
}

// cmdScrubEnd commits the dragged position and resumes clock updates.
func (s *Server) cmdScrubEnd(_ context.Context, _ replyFunc, args []any) error {
	defer s.player.SetScrubbing(false)

	var p positionPayload
	if err := decodeArg(args, &p); err != nil {
		return err
	}
	s.player.Seek(p.Position)
	return nil
}

func (s *Server) cmdVolume(_ context.Context, _ replyFunc, args []any) error {
	level, err := numberArg(args)
	if err != nil {
		return err
	}
	s.player.SetVolume(level)
	return nil
}

func (s *Server) cmdSetPlaylist(_ context.Context, _ replyFunc, args []any) error {
	var p playlistPayload
	if err := decodeArg(args, &p); err != nil {
		return err
	}
	s.player.SetPlaylist(p.Playlist)
	return nil
}

func (s *Server) cmdToggleFavorite(_ context.Context, _ replyFunc, args []any) error {
	var p trackPayload
	if err := decodeArg(args, &p); err != nil {
		return err
	}
	if p.Track == nil {
		return errMissingPayload
	}
	s.library.ToggleFavorite(*p.Track)
	return nil
}

func (s *Server) cmdCreatePlaylist(_ context.Context, reply replyFunc, args []any) error {
	var p createPlaylistPayload
	if len(args) > 0 {
		if err := decodeArg(args, &p); err != nil {
			return err
		}
	}
	created := s.library.CreatePlaylist(p.Name, p.Track)
	reply("pushPlaylistCreated", created)
	return nil
}

func (s *Server) cmdAddToPlaylist(_ context.Context, _ replyFunc, args []any) error {
	var p addToPlaylistPayload
	if err := decodeArg(args, &p); err != nil {
		return err
	}
	if p.Track == nil || p.PlaylistID == "" {
		return errMissingPayload
	}
	return s.library.AddToPlaylist(*p.Track, p.PlaylistID)
}

func (s *Server) cmdGetState(_ context.Context, reply replyFunc, _ []any) error {
	reply("pushState", s.player.State().ToJSON())
	return nil
}

func (s *Server) cmdGetLibrary(_ context.Context, reply replyFunc, _ []any) error {
	reply("pushLibrary", s.library.Snapshot())
	return nil
}

func (s *Server) cmdGetCatalog(_ context.Context, reply replyFunc, _ []any) error {
	tracks := []player.Track{}
	if s.catalog != nil {
		tracks = s.catalog.Tracks()
	}
	reply("pushCatalog", tracks)
	return nil
}

func (s *Server) cmdSearch(_ context.Context, reply replyFunc, args []any) error {
	var p searchPayload
	if err := decodeArg(args, &p); err != nil {
		return err
	}
	results := []player.Track{}
	if s.catalog != nil {
		results = s.catalog.Search(p.Query)
	}
	reply("pushSearch", map[string]interface{}{
		"query":   p.Query,
		"results": results,
	})
	return nil
}

// errorCode classifies a command error for pushError.
func errorCode(err error) string {
	switch {
	case errors.Is(err, player.ErrPlaybackDenied):
		return "playback_denied"
	case errors.Is(err, errMissingPayload), errors.Is(err, errBadPayload):
		return "bad_request"
	case errors.Is(err, library.ErrPlaylistNotFound), errors.Is(err, errUnknownTrack):
		return "not_found"
	default:
		return "internal"
	}
}
