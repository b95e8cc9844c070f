// Package socketio provides the Socket.io server for client communication.
package socketio

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/pyramidplay/internal/domain/catalog"
	"github.com/edumarques81/pyramidplay/internal/domain/library"
	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// DefaultDebounce is the broadcast coalescing window.
const DefaultDebounce = 50 * time.Millisecond

// Options configures a Server.
type Options struct {
	// MaxRemoteClients caps non-loopback connections. Zero disables the cap.
	MaxRemoteClients int
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	// Catalog backs trackId lookups, getCatalog and search. Optional.
	Catalog *catalog.Catalog
}

// Server handles Socket.io connections and events.
type Server struct {
	io        *socket.Server
	player    *player.Service
	library   *library.Service
	catalog   *catalog.Catalog
	limiter   *ConnectionLimiter
	debouncer *BroadcastDebouncer
	commands  map[string]command

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[string]*socket.Socket

	stateMu   sync.Mutex
	lastState map[string]interface{}

	unsubscribe func()
}

// NewServer creates a new Socket.io server over the player and library.
func NewServer(playerService *player.Service, libraryService *library.Service, options Options) (*Server, error) {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	window := options.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		io:      socket.NewServer(nil, opts),
		player:  playerService,
		library: libraryService,
		catalog: options.Catalog,
		limiter: NewConnectionLimiter(options.MaxRemoteClients),
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[string]*socket.Socket),
	}
	s.debouncer = NewBroadcastDebouncer(window, map[Kind]func(){
		KindState:    s.BroadcastState,
		KindProgress: s.BroadcastProgress,
		KindLibrary:  s.BroadcastLibrary,
	})

	s.registerCommands()
	s.setupHandlers()

	s.unsubscribe = playerService.Subscribe(s.onPlayerChange)
	libraryService.OnChange(func(library.Snapshot) { s.debouncer.Trigger(KindLibrary) })

	return s, nil
}

// onPlayerChange schedules the broadcast matching one transition.
func (s *Server) onPlayerChange(c player.Change) {
	if _, ok := c.Action.(player.SetCurrentTime); ok {
		s.debouncer.Trigger(KindProgress)
		return
	}
	s.debouncer.Trigger(KindState)
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		addr := client.Handshake().Address

		log.Info().Str("id", clientID).Str("addr", addr).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		if evicted := s.limiter.Add(clientID, addr); evicted != "" {
			s.evict(evicted)
		}

		// Send initial state after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			client.Emit("pushState", s.player.State().ToJSON())
			client.Emit("pushLibrary", s.library.Snapshot())
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Remove(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		reply := func(event string, payload any) {
			client.Emit(event, payload)
		}
		for name, cmd := range s.commands {
			client.On(name, func(args ...any) {
				log.Debug().Str("id", clientID).Str("event", name).Interface("data", args).Msg("Client event")
				if err := cmd(s.ctx, reply, args); err != nil {
					s.pushError(client, name, err)
				}
			})
		}
	})
}

func (s *Server) evict(clientID string) {
	s.mu.Lock()
	client, ok := s.clients[clientID]
	delete(s.clients, clientID)
	s.mu.Unlock()

	if !ok {
		return
	}
	log.Info().Str("id", clientID).Msg("Evicting oldest remote client")
	client.Emit("pushError", errorPayload{
		Event:   "connection",
		Message: "too many remote clients",
		Code:    "evicted",
	})
	client.Disconnect(true)
}

func (s *Server) pushError(client *socket.Socket, event string, err error) {
	code := errorCode(err)
	if code == "internal" {
		log.Error().Err(err).Str("event", event).Msg("Command failed")
	} else {
		log.Info().Err(err).Str("event", event).Str("code", code).Msg("Command rejected")
	}
	client.Emit("pushError", errorPayload{
		Event:   event,
		Message: err.Error(),
		Code:    code,
	})
}

// BroadcastState sends state to all connected clients unless nothing but
// the clock moved since the last broadcast.
func (s *Server) BroadcastState() {
	state := s.player.State().ToJSON()
	if s.isStateSame(state) {
		return
	}
	s.saveLastState(state)

	s.io.Emit("pushState", state)

	if log.Debug().Enabled() {
		data, _ := json.Marshal(state)
		log.Debug().RawJSON("state", data).Int("clients", s.ClientCount()).Msg("Broadcast state")
	}
}

// BroadcastProgress sends the playback clock to all connected clients.
func (s *Server) BroadcastProgress() {
	state := s.player.State()
	s.io.Emit("pushProgress", map[string]interface{}{
		"currentTime": state.CurrentTime,
		"duration":    state.Duration,
	})
}

// BroadcastLibrary sends the user library to all connected clients.
func (s *Server) BroadcastLibrary() {
	s.io.Emit("pushLibrary", s.library.Snapshot())
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close closes the Socket.io server.
func (s *Server) Close() error {
	s.cancel()
	s.unsubscribe()
	s.debouncer.Stop()
	s.io.Close(nil)
	return nil
}
