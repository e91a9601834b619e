// Package api exposes the story engine over HTTP: session creation, turn
// processing and a health probe.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/storyloom-dev/storyloom/internal/story"
	"github.com/storyloom-dev/storyloom/pkg/observability"
)

// Server serves the story API.
type Server struct {
	engine     *story.Engine
	httpServer *http.Server
	port       int
}

// NewServer creates an API server around the engine.
func NewServer(engine *story.Engine, port int) *Server {
	return &Server{
		engine: engine,
		port:   port,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /story/start", instrument("/story/start", s.handleStart))
	mux.HandleFunc("POST /story/turn", instrument("/story/turn", s.handleTurn))
	mux.HandleFunc("GET /", instrument("/", s.handleRoot))
	return mux
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // turns block on multiple generation round-trips
		IdleTimeout:  120 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "storyloom backend running",
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}
	if req.Scenario == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "scenario is required"})
		return
	}

	sess, err := s.engine.CreateSession(r.Context(), req.Scenario)
	if err != nil {
		log.Printf("create session: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "failed to create game"})
		return
	}

	writeJSON(w, http.StatusOK, buildResponse(sess))
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "session_id is required"})
		return
	}

	sess, err := s.engine.ProcessTurn(r.Context(), req.SessionID, req.FateIntervention)
	switch {
	case errors.Is(err, story.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "game session not found"})
		return
	case errors.Is(err, story.ErrNoAgents):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "session has no agents"})
		return
	case err != nil:
		log.Printf("process turn: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "failed to process turn"})
		return
	}

	writeJSON(w, http.StatusOK, buildResponse(sess))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// instrument records request count and duration per route.
func instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		observability.RecordHTTPRequest(r.Method, path, strconv.Itoa(sw.status), time.Since(start))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
