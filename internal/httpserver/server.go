// Package httpserver exposes the pipeline over HTTP: launch a run, poll its
// status, and list recent runs.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/packsight/packsight/internal/models"
	"github.com/packsight/packsight/internal/pipeline"
	"github.com/packsight/packsight/internal/store"
)

// RunDefaults fill in whatever a run request leaves unspecified.
type RunDefaults struct {
	Categories []string
	MaxOrders  int
}

type Server struct {
	registry *pipeline.Registry
	store    store.Store
	verifier *Verifier
	defaults RunDefaults
	logger   *log.Logger
}

func New(registry *pipeline.Registry, st store.Store, verifier *Verifier, defaults RunDefaults, logger *log.Logger) *Server {
	if verifier == nil {
		verifier = NewVerifier("")
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[http] ", log.LstdFlags)
	}
	return &Server{
		registry: registry,
		store:    st,
		verifier: verifier,
		defaults: defaults,
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/pipelines", s.handlePipelines)

	r.Route("/runs", func(r chi.Router) {
		r.Use(s.verifier.Middleware)
		r.Post("/", s.handleCreateRun)
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePipelines(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"pipelines": s.registry.IDs()})
}

type createRunRequest struct {
	Pipeline   string   `json:"pipeline"`
	Categories []string `json:"categories"`
	MaxOrders  *int     `json:"maxOrders"`
}

// handleCreateRun records the run and launches it in the background; the
// response carries the run id for polling. An empty body runs the default
// pipeline with configured defaults.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pipelineID := req.Pipeline
	if pipelineID == "" {
		pipelineID = pipeline.DefaultPipelineID
	}
	coord, ok := s.registry.Get(pipelineID)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown pipeline "+pipelineID)
		return
	}

	categories := req.Categories
	if len(categories) == 0 {
		categories = s.defaults.Categories
	}
	if len(categories) == 0 {
		respondError(w, http.StatusBadRequest, "no categories to process")
		return
	}
	maxOrders := s.defaults.MaxOrders
	if req.MaxOrders != nil {
		maxOrders = *req.MaxOrders
	}

	run, err := s.store.CreateRun(r.Context(), store.RunInput{
		Pipeline:   pipelineID,
		Categories: categories,
		MaxOrders:  maxOrders,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go s.execute(coord, run.ID, categories, maxOrders)

	respondJSON(w, http.StatusAccepted, run)
}

// execute runs the pipeline detached from the request context: the caller
// polls for completion, so an early client disconnect must not cancel work.
func (s *Server) execute(coord *pipeline.Coordinator, id uuid.UUID, categories []string, maxOrders int) {
	ctx := context.Background()
	results, err := coord.Run(ctx, categories, maxOrders)
	status := pipeline.OverallStatus(results)
	if err != nil {
		s.logger.Printf("run %s: %v", id, err)
		status = models.RunStatusFailed
	}
	if _, err := s.store.FinishRun(ctx, id, status, results); err != nil {
		s.logger.Printf("finish run %s: %v", id, err)
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []models.PipelineRun{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
