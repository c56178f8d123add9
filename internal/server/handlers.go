package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lawnchairsociety/openhexmap/internal/hexmap"
	"github.com/lawnchairsociety/openhexmap/internal/logger"
)

const maxBodyBytes = 64 << 10

// generateRequest distinguishes omitted dimensions, which take the configured
// defaults, from explicit values, which are validated.
type generateRequest struct {
	Name   string `json:"name,omitempty"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
	Seed   *int64 `json:"seed"`
}

// resolve applies defaults and bounds. The message is empty when valid.
func (s *Server) resolve(req generateRequest) (hexmap.Request, string) {
	gen := s.cfg.Generation
	out := hexmap.Request{Width: gen.DefaultWidth, Height: gen.DefaultHeight, Seed: req.Seed}
	if req.Width != nil {
		out.Width = *req.Width
	}
	if req.Height != nil {
		out.Height = *req.Height
	}
	return out, gen.ValidateSize(out.Width, out.Height)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	genReq, msg := s.resolve(req)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	res := hexmap.Generate(s.palette, genReq)
	if !res.Success {
		logger.Error("Map generation failed", "width", genReq.Width, "height", genReq.Height, "error", res.Error)
		respondJSON(w, http.StatusInternalServerError, res)
		return
	}

	logger.Debug("Generated map", "width", res.Width, "height", res.Height, "seed", *res.Seed)
	respondJSON(w, http.StatusOK, res)
}

type terrainsResponse struct {
	Success             bool                          `json:"success"`
	Terrains            []string                      `json:"terrains"`
	Symbols             map[string]string             `json:"symbols"`
	CompatibilityMatrix map[string]map[string]float64 `json:"compatibility_matrix"`
	Source              string                        `json:"source"`
}

func (s *Server) handleTerrains(w http.ResponseWriter, r *http.Request) {
	terrains := s.palette.Terrains()
	symbols := make(map[string]string, len(terrains))
	for _, t := range terrains {
		symbols[t] = s.palette.Symbol(t)
	}

	respondJSON(w, http.StatusOK, terrainsResponse{
		Success:             true,
		Terrains:            terrains,
		Symbols:             symbols,
		CompatibilityMatrix: s.palette.Matrix(),
		Source:              s.paletteSource,
	})
}

func (s *Server) handleTestMap(w http.ResponseWriter, r *http.Request) {
	out, err := hexmap.TestMap(s.palette)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"ascii_output": out,
		"legend":       hexmap.Legend(s.palette),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "terrains": s.palette.Len()}
	sessions, _ := s.connLimiter.Stats()
	status["websocket_sessions"] = sessions

	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}
	respondJSON(w, http.StatusOK, status)
}

// decodeBody reads a JSON body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response", "error", err)
	}
}

// respondError writes the failure envelope used by every endpoint.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}
