package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wricardo/gridpath/pathfind/driver"
	"github.com/wricardo/gridpath/pathfind/search"
	"github.com/wricardo/gridpath/pathfind/service"
	"github.com/wricardo/gridpath/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.SearchService
	hub     *websocket.Hub
	driver  *driver.Driver
	router  *mux.Router
	logger  *slog.Logger
}

// NewServer creates a new API server. hub and drv may be nil, in which case
// snapshots are not pushed and autoplay is unavailable.
func NewServer(searchService service.SearchService, hub *websocket.Hub, drv *driver.Driver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: searchService,
		hub:     hub,
		driver:  drv,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Grid editing
	api.HandleFunc("/sessions/{id}/walls", s.handleToggleWall).Methods("POST")
	api.HandleFunc("/sessions/{id}/export", s.handleExport).Methods("POST")

	// Search operations
	api.HandleFunc("/sessions/{id}/start", s.handleStart).Methods("POST")
	api.HandleFunc("/sessions/{id}/step", s.handleStep).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk-step", s.handleBulkStep).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/play", s.handlePlay).Methods("POST")
	api.HandleFunc("/sessions/{id}/pause", s.handlePause).Methods("POST")

	// Search state
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/path", s.handleGetPath).Methods("GET")
	api.HandleFunc("/sessions/{id}/trace", s.handleGetTrace).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and search errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrInvalidBounds),
		errors.Is(err, search.ErrStartEqualsGoal):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrIllegalStateTransition),
		errors.Is(err, search.ErrEndpointIsWall),
		errors.Is(err, driver.ErrAlreadyPlaying):
		return http.StatusConflict
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body into v. An empty body is not an error.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) broadcast(sessionID, event string, snap *search.Snapshot) {
	if s.hub != nil && snap != nil {
		s.hub.BroadcastSnapshot(sessionID, event, snap)
	}
}

// pauseIfPlaying stops autoplay before an operation that rewinds or removes
// the search
func (s *Server) pauseIfPlaying(sessionID string) {
	if s.driver != nil && s.driver.Pause(sessionID) {
		s.logger.Info("autoplay paused", "session", sessionID)
		if s.hub != nil {
			s.hub.BroadcastEvent(sessionID, websocket.EventPause, nil)
		}
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	s.pauseIfPlaying(sessionID)
	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Grid Handlers

func (s *Server) handleToggleWall(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Row *int `json:"row"`
		Col *int `json:"col"`
	}
	if err := decodeBody(r, &req); err != nil || req.Row == nil || req.Col == nil {
		respondError(w, http.StatusBadRequest, "row and col are required")
		return
	}

	snap, err := s.service.ToggleWall(r.Context(), sessionID, *req.Row, *req.Col)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventSnapshot, snap)
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		ConfigName string `json:"config_name"`
	}
	if err := decodeBody(r, &req); err != nil || req.ConfigName == "" {
		respondError(w, http.StatusBadRequest, "config_name is required")
		return
	}

	config, err := s.service.ExportLayout(r.Context(), sessionID, req.ConfigName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, config)
}

// Search Handlers

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Start(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventSnapshot, result.Snapshot)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		AutoStart bool `json:"auto_start,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Step(r.Context(), sessionID, req.AutoStart)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventStep, result.Snapshot)
	s.logger.Debug("step", "session", sessionID, "run", result.RunID, "status", result.Status, "message", result.Message)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkStep(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Count     int  `json:"count"`
		AutoStart bool `json:"auto_start,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.BulkStep(r.Context(), sessionID, req.Count, req.AutoStart)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventStep, result.Snapshot)
	s.logger.Info("bulk step",
		"session", sessionID,
		"run", result.RunID,
		"executed", result.StepsExecuted,
		"requested", result.RequestedSteps,
		"status", result.Status,
		"truncated", result.Truncated)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	s.pauseIfPlaying(sessionID)
	snap, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventSnapshot, snap)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Search reset",
		"snapshot": snap,
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if s.driver == nil {
		respondError(w, http.StatusNotImplemented, "autoplay is not enabled")
		return
	}
	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	err := s.driver.Play(sessionID, func(id string, result *service.StepResult) {
		s.broadcast(id, websocket.EventStep, result.Snapshot)
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventPlay, map[string]interface{}{
			"interval_ms": s.driver.Interval().Milliseconds(),
		})
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"playing":     true,
		"interval_ms": s.driver.Interval().Milliseconds(),
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if s.driver == nil {
		respondError(w, http.StatusNotImplemented, "autoplay is not enabled")
		return
	}

	wasPlaying := s.driver.Pause(sessionID)
	if wasPlaying && s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventPause, nil)
	}
	respondJSON(w, http.StatusOK, map[string]bool{
		"playing":     false,
		"was_playing": wasPlaying,
	})
}

// State Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	snap, err := s.service.GetSnapshot(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if render, _ := strconv.ParseBool(r.URL.Query().Get("render")); render {
		snap.Render = search.Render(snap)
	}

	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.GetPath(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.TraceOptions{
		Page:  1,
		Limit: 20,
		Order: "asc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	trace, err := s.service.GetTrace(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, trace)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var gridConfig search.GridConfig

	if err := json.NewDecoder(r.Body).Decode(&gridConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if gridConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}
	if err := search.ValidateGridConfig(&gridConfig); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.SaveConfig(r.Context(), gridConfig.Name, &gridConfig); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": gridConfig.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket not enabled", http.StatusNotImplemented)
		return
	}

	snap, err := s.service.GetSnapshot(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)

	// Fresh subscribers get the current state right away
	s.broadcast(sessionID, websocket.EventSnapshot, snap)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
