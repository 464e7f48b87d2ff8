// Package server exposes the scoring pipelines over HTTP for the web map
// frontend.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
	"github.com/lakeshore-group/coastline-cli/internal/config"
	"github.com/lakeshore-group/coastline-cli/internal/store"
)

// Server wires the pipeline, the run-history store, and the loaded
// coastline into an HTTP API.
type Server struct {
	pipeline  *coast.Pipeline
	history   store.Store
	coastline []geom.Coord
	cfg       config.ServerConfig
	log       *zap.Logger
}

// New builds a server. history may be nil; runs are then not recorded.
func New(pipeline *coast.Pipeline, history store.Store, coastline []geom.Coord, cfg config.ServerConfig) *Server {
	return &Server{
		pipeline:  pipeline,
		history:   history,
		coastline: coastline,
		cfg:       cfg,
		log:       zap.L().With(zap.String("component", "server")),
	}
}

// Router assembles the chi route tree with CORS and rate limiting.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if s.cfg.RateLimit > 0 {
		burst := s.cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst)))
	}

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/units", s.handleUnits)
		r.Post("/similarity", s.handleSimilarity)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/segments", s.handleRunSegments)
	})
	return r
}

// ListenAndServe runs the HTTP server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("starting server", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, eris.New("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// unitsPayload is the wire form of a grouping request. Coordinates are
// [lng, lat] pairs; start and end default to the coastline ends.
type unitsPayload struct {
	Start      []float64 `json:"start,omitempty"`
	End        []float64 `json:"end,omitempty"`
	Resolution float64   `json:"resolution"`
	Unit       string    `json:"unit"`
	Criteria   []string  `json:"criteria"`
	Categories int       `json:"categories"`
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	var payload unitsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
		return
	}

	criteria, err := parseCriteria(payload.Criteria)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req := coast.UnitsRequest{
		Coastline:     s.coastline,
		Start:         s.coastline[0],
		End:           s.coastline[len(s.coastline)-1],
		Resolution:    payload.Resolution,
		Unit:          coast.LengthUnit(payload.Unit),
		Criteria:      criteria,
		CategoryCount: payload.Categories,
	}
	if c, ok := coordFromPair(payload.Start); ok {
		req.Start = c
	}
	if c, ok := coordFromPair(payload.End); ok {
		req.End = c
	}

	res, err := s.pipeline.GenerateUnits(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.recordUnitsRun(r.Context(), req, res)
	writeJSON(w, http.StatusOK, res)
}

type similarityPayload struct {
	Midpoint []float64 `json:"midpoint"`
	Criteria []string  `json:"criteria"`
	From     float64   `json:"from"`
	To       float64   `json:"to"`
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var payload similarityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
		return
	}

	criteria, err := parseCriteria(payload.Criteria)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	midpoint, ok := coordFromPair(payload.Midpoint)
	if !ok {
		writeError(w, http.StatusBadRequest, eris.Wrap(coast.ErrConfig, "midpoint must be a [lng, lat] pair"))
		return
	}

	req := coast.SimilarityRequest{
		Coastline: s.coastline,
		Midpoint:  midpoint,
		Criteria:  criteria,
		From:      payload.From,
		To:        payload.To,
	}
	res, err := s.pipeline.RankBySimilarity(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.recordSimilarityRun(r.Context(), req, res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, eris.New("run history is not enabled"))
		return
	}

	filter := store.RunFilter{Kind: store.RunKind(r.URL.Query().Get("kind"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &filter.Limit)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		fmt.Sscanf(v, "%d", &filter.Offset)
	}

	runs, err := s.history.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, eris.New("run history is not enabled"))
		return
	}

	run, err := s.history.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if eris.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunSegments(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, eris.New("run history is not enabled"))
		return
	}

	scores, err := s.history.SegmentScores(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if scores == nil {
		scores = []store.SegmentScore{}
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) recordUnitsRun(ctx context.Context, req coast.UnitsRequest, res *coast.UnitsResult) {
	if s.history == nil {
		return
	}
	run, err := store.NewUnitsRun(req, res)
	if err == nil {
		err = s.history.SaveRun(ctx, run)
	}
	if err != nil {
		s.log.Warn("record units run failed", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

func (s *Server) recordSimilarityRun(ctx context.Context, req coast.SimilarityRequest, res *coast.SimilarityResult) {
	if s.history == nil {
		return
	}
	run, err := store.NewSimilarityRun(uuid.NewString(), req, res)
	if err == nil {
		err = s.history.SaveRun(ctx, run)
	}
	if err != nil {
		s.log.Warn("record similarity run failed", zap.Error(err))
	}
}

func parseCriteria(names []string) ([]coast.Criterion, error) {
	criteria := make([]coast.Criterion, 0, len(names))
	for _, name := range names {
		c, err := coast.ParseCriterion(name)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	return criteria, nil
}

func coordFromPair(pair []float64) (geom.Coord, bool) {
	if len(pair) != 2 {
		return nil, false
	}
	return geom.Coord{pair[0], pair[1]}, true
}

// statusFor maps pipeline error classes onto HTTP statuses. Range misses
// are client errors distinct from bad configuration so the frontend can
// prompt for a wider window.
func statusFor(err error) int {
	switch {
	case eris.Is(err, coast.ErrConfig):
		return http.StatusBadRequest
	case eris.Is(err, coast.ErrRange):
		return http.StatusUnprocessableEntity
	case eris.Is(err, coast.ErrData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
