package main

import (
	"errors"
	"testing"

	"github.com/edumarques81/pyramidplay/internal/config"
	"github.com/edumarques81/pyramidplay/internal/domain/catalog"
	"github.com/edumarques81/pyramidplay/internal/domain/library"
	"github.com/edumarques81/pyramidplay/internal/domain/player"
	"github.com/edumarques81/pyramidplay/internal/infra/quota"
	"github.com/edumarques81/pyramidplay/internal/infra/sqlitestore"
)

type nopElement struct{}

func (nopElement) SetSource(string) error           { return nil }
func (nopElement) Play() error                      { return nil }
func (nopElement) Pause() error                     { return nil }
func (nopElement) SetVolume(float64) error          { return nil }
func (nopElement) Seek(float64) error               { return nil }
func (nopElement) Events() <-chan player.MediaEvent { return nil }

var testTracks = []player.Track{
	{ID: 1, Title: "So What", Src: "/media/so-what.flac", Artists: []player.Artist{{ID: 1, Name: "Miles Davis"}}},
	{ID: 2, Title: "Giant Steps", Src: "/media/giant-steps.mp3", Artists: []player.Artist{{ID: 2, Name: "John Coltrane"}}},
	{ID: 3, Title: "Lost Session", Artists: []player.Artist{{ID: 3, Name: "Unknown"}}},
}

type appOption func(*app)

func withGate(limit int) appOption {
	return func(a *app) { a.gate = quota.NewGate(quota.NewMemoryCounter(), limit, "test") }
}

func withDB(t *testing.T) appOption {
	return func(a *app) {
		db := sqlitestore.NewDB(t.TempDir() + "/test.db")
		if err := db.Open(); err != nil {
			t.Fatalf("open db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		a.db = db
		a.library = library.NewService(sqlitestore.NewLibraryDAO(db))
	}
}

func withUnhealthyOutput() appOption {
	return func(a *app) { a.health = func() error { return errors.New("connection refused") } }
}

// newTestApp wires an app the way newApp does, with a silent element.
func newTestApp(t *testing.T, opts ...appOption) *app {
	t.Helper()

	a := &app{
		cfg:     &config.Config{Port: "3001", Output: config.OutputMPD},
		library: library.NewService(nil),
		catalog: catalog.New(testTracks),
		health:  func() error { return nil },
	}
	for _, opt := range opts {
		opt(a)
	}

	playerOpts := []player.Option{player.WithListenRecorder(a.library)}
	if a.gate != nil {
		playerOpts = append(playerOpts, player.WithGate(a.gate))
	}
	store := player.NewStore(player.NewState(), nil)
	a.player = player.NewService(store, player.NewBinder(store, nopElement{}), playerOpts...)
	return a
}
