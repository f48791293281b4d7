package debugserver

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"rtviewer/internal/config"
	"rtviewer/internal/logging"
)

// Stats is a snapshot of the running viewer
type Stats struct {
	FPS            float64 `json:"fps"`
	FrameTimeMS    float64 `json:"frameTimeMs"`
	ViewportWidth  int     `json:"viewportWidth"`
	ViewportHeight int     `json:"viewportHeight"`
	Meshes         int     `json:"meshes"`
	EffectEnabled  bool    `json:"effectEnabled"`
}

// StatsSource provides the values served on /stats
type StatsSource interface {
	Stats() Stats
}

// EffectRequest sets the composite flag; an empty body toggles it
type EffectRequest struct {
	Enabled *bool `json:"enabled"`
}

// Server provides HTTP endpoints for inspecting the viewer
type Server struct {
	source StatsSource
	addr   string
	server *http.Server
}

// NewServer creates a new debug server
func NewServer(source StatsSource, addr string) *Server {
	return &Server{
		source: source,
		addr:   addr,
	}
}

// Handler routes the debug endpoints
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/effect", s.handleEffect)
	return mux
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logging.Info("debug server listening on %s", ln.Addr())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("debug server: %v", err)
		}
	}()
	return nil
}

// Stop stops the debug server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.source.Stats())
}

// handleEffect toggles or sets the screen-space composite
func (s *Server) handleEffect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EffectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var enabled bool
	if req.Enabled != nil {
		config.SetEffectEnabled(*req.Enabled)
		enabled = *req.Enabled
	} else {
		enabled = config.ToggleEffect()
	}
	logging.Info("effect set to %v over http", enabled)

	writeJSON(w, map[string]bool{"effectEnabled": enabled})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("debug server: encoding response: %v", err)
	}
}
