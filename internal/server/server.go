// Package server exposes map generation over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lawnchairsociety/openhexmap/internal/config"
	"github.com/lawnchairsociety/openhexmap/internal/database"
	"github.com/lawnchairsociety/openhexmap/internal/hexmap"
	"github.com/lawnchairsociety/openhexmap/internal/logger"
	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

// Palette sources reported by the terrains endpoint.
const (
	SourceDatabase = "database"
	SourceFile     = "file"
	SourceDefault  = "default"
)

const shutdownTimeout = 10 * time.Second

// Store is the persistence the server needs. *database.Database implements it.
type Store interface {
	SaveMap(name string, res hexmap.Result) (*database.SavedMap, error)
	GetMap(id string) (*database.SavedMap, error)
	ListMaps(limit int) ([]database.MapSummary, error)
	DeleteMap(id string) error
	VerifyAPIKey(plaintext string) (*database.APIKey, error)
	Ping() error
}

// Server serves the generation API.
type Server struct {
	cfg           *config.ServerConfig
	palette       *terrain.Palette
	paletteSource string
	store         Store

	connLimiter *ConnLimiter
	keyLimiter  *KeyRateLimiter
	router      chi.Router

	httpServer *http.Server

	clientsMu sync.Mutex
	clients   map[*WebSocketClient]struct{}

	shutdownOnce sync.Once
}

// NewServer wires the routes. store may be nil, in which case the saved-map
// routes answer 503.
func NewServer(cfg *config.ServerConfig, palette *terrain.Palette, source string, store Store) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if palette == nil {
		palette = terrain.DefaultPalette()
		source = SourceDefault
	}

	s := &Server{
		cfg:           cfg,
		palette:       palette,
		paletteSource: source,
		store:         store,
		connLimiter:   NewConnLimiter(cfg.Connections),
		keyLimiter:    NewKeyRateLimiter(cfg.RateLimit),
		clients:       make(map[*WebSocketClient]struct{}),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocketUpgrade)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-hex-map", s.handleGenerate)
		r.Get("/hex-map-terrains", s.handleTerrains)
		r.Get("/test-hex-map", s.handleTestMap)

		r.Route("/maps", func(r chi.Router) {
			r.Get("/", s.handleListMaps)
			r.Get("/{id}", s.handleGetMap)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAPIKey)
				r.Post("/", s.handleCreateMap)
				r.Delete("/{id}", s.handleDeleteMap)
			})
		})
	})

	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.HTTP.ReadTimeout(),
		WriteTimeout: s.cfg.HTTP.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Always("Hex map server listening", "address", ln.Addr().String(), "terrain_source", s.paletteSource)
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Shutdown(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops accepting requests, closes WebSocket sessions and stops
// background work. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		logger.Info("Shutting down hex map server")

		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}

		s.clientsMu.Lock()
		for c := range s.clients {
			c.CloseWith(1001, "server shutting down")
		}
		s.clientsMu.Unlock()

		s.keyLimiter.Stop()
	})
	return err
}

// getRealIP returns the client IP, honoring X-Forwarded-For and X-Real-IP
// from a reverse proxy before falling back to the socket address.
func getRealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return extractIP(r.RemoteAddr)
}

// extractIP strips the port from an ip:port address.
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
