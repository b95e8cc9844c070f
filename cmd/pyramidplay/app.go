package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/pyramidplay/internal/config"
	"github.com/edumarques81/pyramidplay/internal/domain/catalog"
	"github.com/edumarques81/pyramidplay/internal/domain/library"
	"github.com/edumarques81/pyramidplay/internal/domain/player"
	"github.com/edumarques81/pyramidplay/internal/infra/mpd"
	"github.com/edumarques81/pyramidplay/internal/infra/quota"
	"github.com/edumarques81/pyramidplay/internal/infra/speaker"
	"github.com/edumarques81/pyramidplay/internal/infra/sqlitestore"
)

const speakerTickInterval = 250 * time.Millisecond

// app holds the wired player and its collaborators.
type app struct {
	cfg     *config.Config
	player  *player.Service
	library *library.Service
	catalog *catalog.Catalog
	gate    *quota.Gate // nil when free plays are unlimited
	db      *sqlitestore.DB

	// health reports whether the audio output is reachable.
	health func() error

	closers []func() error
}

// newApp connects the output, opens storage and starts the binder. Element
// goroutines stop when ctx is cancelled.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, health: func() error { return nil }}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	element, err := a.openElement(ctx)
	if err != nil {
		return nil, err
	}

	a.db = sqlitestore.NewDB(cfg.DBPath())
	if err := a.db.Open(); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.db.Close)
	a.library = library.NewService(sqlitestore.NewLibraryDAO(a.db))

	a.catalog = loadCatalog(cfg.Catalog)

	opts := []player.Option{player.WithListenRecorder(a.library)}
	if cfg.FreePlays > 0 {
		counter, err := a.openCounter(ctx)
		if err != nil {
			return nil, err
		}
		a.gate = quota.NewGate(counter, cfg.FreePlays, "local")
		opts = append(opts, player.WithGate(a.gate))
		log.Info().Int("free_plays", cfg.FreePlays).Msg("Free play limit enabled")
	}

	store := player.NewStore(player.NewState(), nil)
	binder := player.NewBinder(store, element)
	binder.Start(ctx)
	a.closers = append(a.closers, func() error { binder.Close(); return nil })

	a.player = player.NewService(store, binder, opts...)
	ready = true
	return a, nil
}

func (a *app) openElement(ctx context.Context) (player.MediaElement, error) {
	switch a.cfg.Output {
	case config.OutputSpeaker:
		if !speaker.Available {
			return nil, speaker.ErrAudioUnavailable
		}
		el := speaker.NewElement(a.cfg.MediaRoot)
		go el.Run(ctx, speakerTickInterval)
		a.closers = append(a.closers, func() error { el.Close(); return nil })
		log.Info().Str("media_root", a.cfg.MediaRoot).Msg("Using local speaker output")
		return el, nil

	default:
		client := mpd.NewClient(a.cfg.MPDHost, a.cfg.MPDPort, a.cfg.MPDPassword)
		if err := client.Connect(); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.health = client.Ping

		el := mpd.NewElement(client)
		if err := el.Prepare(); err != nil {
			return nil, err
		}
		go el.Run(ctx)
		log.Info().Str("host", a.cfg.MPDHost).Int("port", a.cfg.MPDPort).Msg("Using MPD output")
		return el, nil
	}
}

func (a *app) openCounter(ctx context.Context) (quota.Counter, error) {
	if a.cfg.RedisAddr == "" {
		return quota.NewMemoryCounter(), nil
	}
	counter, err := quota.NewRedisCounter(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, counter.Close)
	return counter, nil
}

// loadCatalog falls back to an empty catalog so the player still starts.
func loadCatalog(path string) *catalog.Catalog {
	c, err := catalog.LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", path).Msg("No catalog file, starting with an empty catalog")
		} else {
			log.Error().Err(err).Msg("Failed to load catalog")
		}
		return catalog.New(nil)
	}
	return c
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

var _ io.Closer = (*app)(nil)
