package socketio

import (
	"context"
	"testing"
	"time"

	"github.com/edumarques81/pyramidplay/internal/domain/catalog"
	"github.com/edumarques81/pyramidplay/internal/domain/library"
	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

type nopElement struct{}

func (nopElement) SetSource(string) error           { return nil }
func (nopElement) Play() error                      { return nil }
func (nopElement) Pause() error                     { return nil }
func (nopElement) SetVolume(float64) error          { return nil }
func (nopElement) Seek(float64) error               { return nil }
func (nopElement) Events() <-chan player.MediaEvent { return nil }

type denyGate struct{ err error }

func (g denyGate) Allow(context.Context, player.Track) error { return g.err }

type reply struct {
	event   string
	payload any
}

type replies []reply

func (r *replies) fn() replyFunc {
	return func(event string, payload any) {
		*r = append(*r, reply{event: event, payload: payload})
	}
}

var testTracks = []player.Track{
	{ID: 1, Title: "Blue in Green", Src: "/media/blue.mp3", Artists: []player.Artist{{ID: 10, Name: "Miles Davis"}}},
	{ID: 2, Title: "Naima", Src: "/media/naima.mp3", Artists: []player.Artist{{ID: 11, Name: "John Coltrane"}}},
	{ID: 3, Title: "Peace Piece", Src: "/media/peace.mp3", Artists: []player.Artist{{ID: 12, Name: "Bill Evans"}}},
}

func newTestServer(t *testing.T, opts ...player.Option) (*Server, *player.Service, *library.Service) {
	t.Helper()

	store := player.NewStore(player.NewState(), nil)
	binder := player.NewBinder(store, nopElement{})
	svc := player.NewService(store, binder, opts...)
	lib := library.NewService(nil)

	s, err := NewServer(svc, lib, Options{
		Catalog:  catalog.New(testTracks),
		Debounce: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, svc, lib
}

// trackArg builds a client payload the way socket.io decodes JSON.
func trackArg(t player.Track) map[string]interface{} {
	return map[string]interface{}{
		"id":    float64(t.ID),
		"title": t.Title,
		"src":   t.Src,
	}
}
