// Package web serves the resolved knowledge graph over HTTP and streams run
// progress as server-sent events.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/ng-graph/pkg/analysis"
	"github.com/ritzau/ng-graph/pkg/classify"
	"github.com/ritzau/ng-graph/pkg/collect"
	"github.com/ritzau/ng-graph/pkg/lens"
	"github.com/ritzau/ng-graph/pkg/logging"
	"github.com/ritzau/ng-graph/pkg/model"
	"github.com/ritzau/ng-graph/pkg/pubsub"
	"github.com/ritzau/ng-graph/pkg/resolve"
)

// EntityDetail is an entity with the relationships on both sides of it
type EntityDetail struct {
	Entity   *model.Entity        `json:"entity"`
	Outgoing []model.Relationship `json:"outgoing"`
	Incoming []model.Relationship `json:"incoming"`
}

// ReportSummary is the report without the graph itself
type ReportSummary struct {
	Reason       string                     `json:"reason"`
	DurationMs   int64                      `json:"durationMs"`
	Entities     int                        `json:"entities"`
	Stats        model.Stats                `json:"stats"`
	Cycles       int                        `json:"cycles"`
	CrossFeature []analysis.CrossFeatureDep `json:"crossFeature"`
	Ambiguities  []resolve.Ambiguity        `json:"ambiguities"`
	Collisions   []collect.Collision        `json:"collisions"`
	Skipped      []classify.Skipped         `json:"skipped"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher
	refresh   func(reason string)

	mu     sync.RWMutex
	report *analysis.Report

	logger *slog.Logger
}

// NewServer creates a new web server
func NewServer() *Server {
	publisher := pubsub.NewSSEPublisher()

	// run_status: replay only the current state to new subscribers
	publisher.ConfigureTopic(pubsub.TopicRunStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})
	publisher.ConfigureTopic(pubsub.TopicGraph, pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: publisher,
		logger:    logging.New("web"),
	}
	s.setupRoutes()
	return s
}

// OnRefresh registers the callback behind POST /api/refresh
func (s *Server) OnRefresh(fn func(reason string)) {
	s.refresh = fn
}

// PublishStatus implements analysis.Publisher
func (s *Server) PublishStatus(state, message string, step, total int) error {
	status := pubsub.RunStatus{
		State:   state,
		Message: message,
		Step:    step,
		Total:   total,
	}
	return s.publisher.Publish(pubsub.TopicRunStatus, state, status)
}

// SetReport implements analysis.Publisher. The report becomes visible to the
// API and a graph summary is published to subscribers.
func (s *Server) SetReport(report *analysis.Report) {
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()

	summary := pubsub.GraphSummary{
		Reason:        report.Reason,
		Entities:      report.Graph.Entities.Len(),
		Relationships: report.Stats.Total,
		Unresolved:    report.Stats.Unresolved,
		Cycles:        len(report.Cycles),
		Changed:       report.Changes == nil || !report.Changes.Empty(),
		DurationMs:    report.Duration.Milliseconds(),
	}
	if err := s.publisher.Publish(pubsub.TopicGraph, "ready", summary); err != nil {
		s.logger.Debug("Failed to publish graph summary", "error", err)
	}
}

// Handler returns the routes wrapped in request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/report", s.handleReport).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/unresolved", s.handleUnresolved).Methods("GET")
	s.router.HandleFunc("/api/cycles", s.handleCycles).Methods("GET")
	s.router.HandleFunc("/api/entities", s.handleEntities).Methods("GET")
	s.router.HandleFunc("/api/entities/{id:.+}", s.handleEntity).Methods("GET")
	s.router.HandleFunc("/api/focus", s.handleFocus).Methods("GET")
	s.router.HandleFunc("/api/changes", s.handleChanges).Methods("GET")
	s.router.HandleFunc("/api/refresh", s.handleRefresh).Methods("POST")
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicRunStatus && topic != pubsub.TopicGraph {
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream before the first event
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				s.logger.Debug("Error writing SSE event", "topic", topic, "error", err)
				return
			}
			flush(w)
		}
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, ReportSummary{
		Reason:       report.Reason,
		DurationMs:   report.Duration.Milliseconds(),
		Entities:     report.Graph.Entities.Len(),
		Stats:        report.Stats,
		Cycles:       len(report.Cycles),
		CrossFeature: report.CrossFeature,
		Ambiguities:  report.Ambiguities,
		Collisions:   report.Collisions,
		Skipped:      report.Skipped,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.current(w); ok {
		writeJSON(w, report.Graph)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.current(w); ok {
		writeJSON(w, report.Stats)
	}
}

func (s *Server) handleUnresolved(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.current(w); ok {
		writeJSON(w, report.Unresolved())
	}
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.current(w); ok {
		writeJSON(w, report.Cycles)
	}
}

// handleEntities lists entities, optionally filtered by ?type=
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	report, ok := s.current(w)
	if !ok {
		return
	}

	filter := model.EntityType(r.URL.Query().Get("type"))
	entities := []*model.Entity{}
	for _, e := range report.Graph.Entities.Entities() {
		if filter == "" || e.Type == filter {
			entities = append(entities, e)
		}
	}
	writeJSON(w, entities)
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	report, ok := s.current(w)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	entity, found := report.Graph.Entities.Get(id)
	if !found {
		http.Error(w, fmt.Sprintf("entity %q not found", id), http.StatusNotFound)
		return
	}

	writeJSON(w, EntityDetail{
		Entity:   entity,
		Outgoing: report.Outgoing(id),
		Incoming: report.Incoming(id),
	})
}

// handleFocus returns the neighbourhood of one or more entities.
// Query: entity (repeatable), distance (default 1, -1 for unlimited),
// type (repeatable relationship type), hideExternal, hideUnresolved.
func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	report, ok := s.current(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	cfg := lens.FocusConfig{
		Selected:       q["entity"],
		MaxDistance:    1,
		HideExternal:   q.Get("hideExternal") == "true",
		HideUnresolved: q.Get("hideUnresolved") == "true",
	}
	if len(cfg.Selected) == 0 {
		http.Error(w, "missing entity parameter", http.StatusBadRequest)
		return
	}
	if d := q.Get("distance"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < lens.Unlimited {
			http.Error(w, fmt.Sprintf("invalid distance %q", d), http.StatusBadRequest)
			return
		}
		cfg.MaxDistance = n
	}
	for _, t := range q["type"] {
		cfg.Types = append(cfg.Types, model.RelationshipType(t))
	}

	writeJSON(w, lens.Focus(report.Graph, cfg))
}

// handleChanges returns what the latest run changed relative to the one before
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	report, ok := s.current(w)
	if !ok {
		return
	}
	changes := report.Changes
	if changes == nil {
		changes = lens.ComputeDiff(nil, report.Graph)
	}
	writeJSON(w, changes)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		http.Error(w, "refresh not available", http.StatusNotImplemented)
		return
	}
	go s.refresh("requested over http")
	w.WriteHeader(http.StatusAccepted)
}

// current returns the latest report or answers 503 while the first run is pending
func (s *Server) current(w http.ResponseWriter) (*analysis.Report, bool) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()

	if report == nil {
		http.Error(w, "graph not ready", http.StatusServiceUnavailable)
		return nil, false
	}
	return report, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to encode response", "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start serves on the given port until ctx is cancelled
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Closing the publisher ends open event streams so Shutdown does not wait on them
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
