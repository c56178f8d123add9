package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lawnchairsociety/openhexmap/internal/database"
	"github.com/lawnchairsociety/openhexmap/internal/hexmap"
	"github.com/lawnchairsociety/openhexmap/internal/logger"
	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

// APIKeyHeader carries the key for write operations.
const APIKeyHeader = "X-API-Key"

// requireAPIKey admits requests with a valid key and locks out IPs that keep
// presenting bad ones.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			respondError(w, http.StatusServiceUnavailable, "Map storage is not configured")
			return
		}

		ip := getRealIP(r)
		if locked, remaining := s.keyLimiter.Locked(ip); locked {
			w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Seconds())+1))
			respondError(w, http.StatusTooManyRequests, "Too many failed attempts. Please try again later.")
			return
		}

		key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
		if key == "" {
			respondError(w, http.StatusUnauthorized, "API key required")
			return
		}

		apiKey, err := s.store.VerifyAPIKey(key)
		if err != nil {
			if errors.Is(err, database.ErrInvalidAPIKey) {
				if locked, d := s.keyLimiter.RecordFailure(ip); locked {
					logger.Warning("Client locked out after failed API key attempts", "client_ip", ip, "lockout", d.String())
				}
				respondError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			logger.Error("API key verification failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		s.keyLimiter.RecordSuccess(ip)
		logger.Debug("API key accepted", "key", apiKey.Name, "client_ip", ip)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCreateMap(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Map name is required.")
		return
	}

	genReq, msg := s.resolve(req)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	res := hexmap.Generate(s.palette, genReq)
	if !res.Success {
		respondJSON(w, http.StatusInternalServerError, res)
		return
	}

	saved, err := s.store.SaveMap(req.Name, res)
	if err != nil {
		logger.Error("Failed to save map", "name", req.Name, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to save map")
		return
	}

	logger.Info("Saved map", "id", saved.ID, "name", saved.Name, "width", saved.Width, "height", saved.Height)
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "map": saved})
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Map storage is not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit %q", v))
			return
		}
		limit = n
	}

	maps, err := s.store.ListMaps(limit)
	if err != nil {
		logger.Error("Failed to list maps", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list maps")
		return
	}
	if maps == nil {
		maps = []database.MapSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "maps": maps})
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Map storage is not configured")
		return
	}

	m, err := s.store.GetMap(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrMapNotFound) {
			respondError(w, http.StatusNotFound, "Map not found")
			return
		}
		logger.Error("Failed to load map", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load map")
		return
	}

	if r.URL.Query().Get("format") == "ascii" {
		grid, err := m.Result().Grid()
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"ascii_output": hexmap.RenderASCII(grid, s.mapPalette(m.Terrains)),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "map": m})
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteMap(id); err != nil {
		if errors.Is(err, database.ErrMapNotFound) {
			respondError(w, http.StatusNotFound, "Map not found")
			return
		}
		logger.Error("Failed to delete map", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete map")
		return
	}

	logger.Info("Deleted map", "id", id)
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// mapPalette covers a stored map's own terrain set, which may differ from the
// one the server generates with now. Symbols come from the server palette
// where it knows the terrain, else from the built-in defaults.
func (s *Server) mapPalette(terrains []string) *terrain.Palette {
	p, err := terrain.NewPalette(terrains, nil)
	if err != nil {
		return s.palette
	}

	symbols := make(map[string]string, len(terrains))
	for _, t := range terrains {
		if s.palette.Has(t) {
			symbols[t] = s.palette.Symbol(t)
		}
	}
	return p.WithSymbols(symbols)
}
