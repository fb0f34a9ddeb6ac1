// Package api serves the capture service's HTTP endpoints: transport
// status, on-demand export, and the archived session catalogue.
package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bodytrace/mocap/internal/broadcast"
	"github.com/bodytrace/mocap/internal/db"
	"github.com/bodytrace/mocap/internal/httputil"
	"github.com/bodytrace/mocap/internal/version"
)

type Server struct {
	hub *broadcast.Hub
	db  *db.DB

	mu      sync.Mutex
	started time.Time
}

// NewServer creates an API server over the broadcast hub and session
// archive.
func NewServer(hub *broadcast.Hub, db *db.DB) *Server {
	return &Server{
		hub:     hub,
		db:      db,
		started: time.Now(),
	}
}

// ServeMux returns the API routes. Callers mount it under a prefix of
// their choosing.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/export", s.exportHandler)
	mux.HandleFunc("/sessions", s.listSessionsHandler)
	mux.HandleFunc("/sessions/", s.sessionFileHandler)
	return mux
}

type statusResponse struct {
	Mode      string  `json:"mode"`
	Clients   int     `json:"clients"`
	Frames    int     `json:"frames"`
	FrameTime float64 `json:"frame_time"`
	Version   string  `json:"version"`
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	acc := s.hub.Accumulator()
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		Mode:      string(s.hub.Mode()),
		Clients:   s.hub.ClientCount(),
		Frames:    acc.Len(),
		FrameTime: acc.FrameTime(),
		Version:   version.Version,
	})
}

type exportResponse struct {
	SessionID string `json:"session_id"`
	Frames    int    `json:"frames"`
}

// exportHandler snapshots the current recording into the archive. With
// reset=true the accumulator starts a fresh session afterwards; the
// archived frames are unaffected either way.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	doc, err := s.hub.ExportSnapshot()
	if err != nil {
		log.Printf("api: export snapshot failed: %v", err)
		httputil.InternalServerError(w, "failed to render snapshot")
		return
	}

	acc := s.hub.Accumulator()
	frames := acc.Len()
	id := uuid.NewString()

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if err := s.db.RecordSession(id, started, frames, acc.FrameTime(), doc); err != nil {
		log.Printf("api: failed to archive session: %v", err)
		httputil.InternalServerError(w, "failed to archive session")
		return
	}

	if r.FormValue("reset") == "true" {
		acc.Reset()
		s.mu.Lock()
		s.started = time.Now()
		s.mu.Unlock()
	}

	httputil.WriteJSON(w, http.StatusOK, exportResponse{SessionID: id, Frames: frames})
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	sessions, err := s.db.Sessions()
	if err != nil {
		log.Printf("api: failed to list sessions: %v", err)
		httputil.InternalServerError(w, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSON(w, http.StatusOK, sessions)
}

// sessionFileHandler serves GET /sessions/{id}/bvh: the raw archived
// motion document.
func (s *Server) sessionFileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	id, ok := strings.CutSuffix(rest, "/bvh")
	if !ok || id == "" || strings.Contains(id, "/") {
		httputil.NotFound(w, "not found")
		return
	}

	doc, err := s.db.SessionBVH(id)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "session not found")
		return
	}
	if err != nil {
		log.Printf("api: failed to fetch session %s: %v", id, err)
		httputil.InternalServerError(w, "failed to fetch session")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+id+".bvh\"")
	io.WriteString(w, doc)
}
