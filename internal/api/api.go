// Package api serves edge features and fetch manifests over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/edgefeature"
	"github.com/moorhen-labs/hexfeatures/internal/store"
)

// Server exposes the feature caches and the manifest store. Caches are not
// safe for concurrent mutation, so handler access is serialized per cache.
type Server struct {
	distMu   sync.Mutex
	distance *edgefeature.Cache

	costMu sync.Mutex
	cost   *edgefeature.Cache

	store store.Store
}

// Options holds the server's dependencies; any of them may be nil, in
// which case the corresponding endpoints report 503.
type Options struct {
	Distance *edgefeature.Cache
	Cost     *edgefeature.Cache
	Store    store.Store

	AllowedOrigins []string
}

// NewServer builds the router with the given dependencies.
func NewServer(opts Options) (*Server, http.Handler) {
	s := &Server{
		distance: opts.Distance,
		cost:     opts.Cost,
		store:    opts.Store,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/distance", s.handleDistance)
		r.Get("/cost", s.handleCost)
		r.Get("/runs", s.handleRuns)
		r.Get("/artifacts", s.handleArtifacts)
	})

	return s, r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type featureResponse struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Value float64 `json:"value"`
}

func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	s.handleFeature(w, r, s.distance, &s.distMu)
}

func (s *Server) handleCost(w http.ResponseWriter, r *http.Request) {
	s.handleFeature(w, r, s.cost, &s.costMu)
}

func (s *Server) handleFeature(w http.ResponseWriter, r *http.Request, cache *edgefeature.Cache, mu *sync.Mutex) {
	if cache == nil {
		writeError(w, http.StatusServiceUnavailable, "feature cache not configured")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	mu.Lock()
	v, err := cache.Get(from, to)
	mu.Unlock()
	if err != nil {
		if eris.Is(err, edgefeature.ErrUnknownNode) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		zap.L().Error("api: feature lookup failed",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "feature computation failed")
		return
	}

	writeJSON(w, http.StatusOK, featureResponse{From: from, To: to, Value: v})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{
		Status:  q.Get("status"),
		Dataset: q.Get("dataset"),
	}
	if lim := q.Get("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	q := r.URL.Query()
	filter := store.ArtifactFilter{
		RunID: q.Get("run_id"),
		Kind:  q.Get("kind"),
	}
	if year := q.Get("year"); year != "" {
		n, err := strconv.Atoi(year)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		filter.Year = n
	}

	artifacts, err := s.store.ListArtifacts(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list artifacts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list artifacts failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"artifacts": artifacts})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
