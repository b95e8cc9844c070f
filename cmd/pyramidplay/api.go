package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
	"github.com/edumarques81/pyramidplay/internal/version"
)

// crossOriginHeaders let browser clients served from another origin read
// every response, errors included.
var crossOriginHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
}

// crossOrigin answers preflight requests itself.
func crossOrigin() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range crossOriginHeaders {
				w.Header().Set(k, v)
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// newRouter mounts the Socket.io endpoint and the REST fallbacks.
func newRouter(a *app, socket http.Handler, staticDir string) *mux.Router {
	router := mux.NewRouter()
	router.Use(crossOrigin())

	router.PathPrefix("/socket.io/").Handler(socket)

	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/version", handleVersion).Methods(http.MethodGet)
	api.HandleFunc("/state", a.handleState).Methods(http.MethodGet)
	api.HandleFunc("/library", a.handleLibrary).Methods(http.MethodGet)
	api.HandleFunc("/tracks", a.handleTracks).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id:[0-9]+}", a.handleTrack).Methods(http.MethodGet)
	api.HandleFunc("/quota", a.handleQuota).Methods(http.MethodGet)
	api.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)

	// Preflight requests need a matching route for the middleware to run.
	router.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	if staticDir != "" {
		log.Info().Str("dir", staticDir).Msg("Serving static files")
		router.PathPrefix("/").Handler(spaHandler(staticDir))
	}
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": msg})
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	output := string(a.cfg.Output)
	if err := a.health(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"output": output,
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "output": output})
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.GetInfo())
}

func (a *app) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.player.State().ToJSON())
}

func (a *app) handleLibrary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.library.Snapshot())
}

func (a *app) handleTracks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Search(r.URL.Query().Get("q")))
}

func (a *app) handleTrack(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	track, ok := a.catalog.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		player.Track
		Favorite bool `json:"favorite"`
	}{track, a.library.IsFavorite(id)})
}

func (a *app) handleQuota(w http.ResponseWriter, r *http.Request) {
	if a.gate == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false, "remaining": -1})
		return
	}
	remaining, err := a.gate.Remaining(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enabled": true, "remaining": remaining})
}

func (a *app) handleStats(w http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		writeError(w, http.StatusServiceUnavailable, "library database not open")
		return
	}
	stats, err := a.db.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// spaHandler serves files from dir and falls back to index.html for
// client-side routes.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() && r.URL.Path != "/" {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
