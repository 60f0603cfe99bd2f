package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fibersift/fibersift/internal/assist"
	"github.com/fibersift/fibersift/internal/catalog"
	"github.com/fibersift/fibersift/internal/ingest"
	"github.com/fibersift/fibersift/internal/store"
)

// Ingester runs one ingestion target; the pipeline satisfies it. An
// interface here keeps handler tests free of browser machinery.
type Ingester interface {
	Run(ctx context.Context, target ingest.Target) (*ingest.Result, error)
}

// Server exposes the catalog over REST.
type Server struct {
	mux      *http.ServeMux
	port     int
	catalog  store.Catalog
	ingester Ingester
	assist   *assist.Service
	cache    ingest.ResultCache
	logger   *slog.Logger
}

// NewServer creates the API server. The assist service may be disabled;
// only its endpoint degrades.
func NewServer(port int, cat store.Catalog, ing Ingester, as *assist.Service, cache ingest.ResultCache, logger *slog.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		port:     port,
		catalog:  cat,
		ingester: ing,
		assist:   as,
		cache:    cache,
		logger:   logger.With("component", "api_server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/ingest", s.handleIngest)
	s.mux.HandleFunc("GET /api/products", s.handleProducts)
	s.mux.HandleFunc("GET /api/categories", s.handleCategories)
	s.mux.HandleFunc("POST /api/assist", s.handleAssist)
}

// Handler returns the route multiplexer, used directly by tests.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe blocks serving the API until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // ingestion runs can be slow
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"assist_enabled": s.assist != nil && s.assist.Enabled(),
	})
}

// ingestRequest is the body of POST /api/ingest. Exactly one of the three
// target shapes should be populated; they are checked in order.
type ingestRequest struct {
	Category string              `json:"category,omitempty"`
	Gender   string              `json:"gender,omitempty"`
	Query    string              `json:"query,omitempty"`
	URLs     map[string][]string `json:"urls,omitempty"`
	Count    int                 `json:"count,omitempty"`
}

// ingestResponse reports the batch outcome. Partial failure is a normal
// outcome, not an HTTP error.
type ingestResponse struct {
	Accepted int               `json:"accepted"`
	Skipped  int               `json:"skipped"`
	Failed   int               `json:"failed"`
	Products []catalog.Product `json:"products,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	target, cacheKey, err := req.target()
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if s.cache != nil && cacheKey != "" {
		if res, ok := s.cache.Get(cacheKey); ok {
			s.logger.Debug("ingest served from cache", "key", cacheKey)
			s.jsonResponse(w, http.StatusOK, newIngestResponse(res))
			return
		}
	}

	res, runErr := s.ingester.Run(r.Context(), target)
	if res != nil && len(res.Accepted) > 0 {
		if err := s.catalog.UpsertBatch(r.Context(), res.Accepted); err != nil {
			s.logger.Error("persist batch failed", "error", err)
			s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to persist batch"})
			return
		}
	}
	if runErr != nil {
		if res == nil || (len(res.Accepted) == 0 && res.Skipped == 0) {
			s.jsonResponse(w, http.StatusBadGateway, map[string]string{"error": runErr.Error()})
			return
		}
		// Partial results were persisted; report them.
		s.logger.Warn("ingestion finished with errors", "error", runErr)
	}

	if s.cache != nil && cacheKey != "" && runErr == nil {
		s.cache.Set(cacheKey, res)
	}
	s.jsonResponse(w, http.StatusOK, newIngestResponse(res))
}

// target maps the request body to an ingestion target. Query runs are the
// only cached shape; category and curated runs are explicit operator
// actions.
func (r ingestRequest) target() (ingest.Target, string, error) {
	switch {
	case len(r.URLs) > 0:
		return ingest.URLListTarget{Groups: r.URLs}, "", nil
	case r.Category != "":
		return ingest.CategoryTarget{Category: r.Category, Gender: r.Gender, Count: r.Count}, "", nil
	case r.Query != "":
		return ingest.SearchTarget{Query: r.Query, Count: r.Count}, fmt.Sprintf("q:%s:%d", r.Query, r.Count), nil
	default:
		return nil, "", fmt.Errorf("request needs one of category, query or urls")
	}
}

func newIngestResponse(res *ingest.Result) ingestResponse {
	if res == nil {
		return ingestResponse{}
	}
	return ingestResponse{
		Accepted: len(res.Accepted),
		Skipped:  res.Skipped,
		Failed:   res.Failed,
		Products: res.Accepted,
	}
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	products, err := s.catalog.Query(r.Context(), f)
	if err != nil {
		s.logger.Error("catalog query failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "catalog query failed"})
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"count":    len(products),
		"products": products,
	})
}

// filterFromQuery parses ?category=&search=&min_cotton=&max_price=.
func filterFromQuery(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	f := store.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	if v := q.Get("min_cotton"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("min_cotton must be an integer")
		}
		f.MinCotton = &n
	}
	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("max_price must be a number")
		}
		f.MaxPrice = p
	}
	return f, nil
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.logger.Error("list categories failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "list categories failed"})
		return
	}
	if categories == nil {
		categories = []string{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"categories": categories})
}

type assistRequest struct {
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
}

func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	if s.assist == nil || !s.assist.Enabled() {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "assist service disabled"})
		return
	}

	var req assistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Question == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	products, err := s.catalog.Query(r.Context(), store.Filter{Category: req.Category, Search: req.Search})
	if err != nil {
		s.logger.Error("assist catalog query failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "catalog query failed"})
		return
	}

	answer, err := s.assist.Answer(r.Context(), req.Question, products)
	if err != nil {
		if errors.Is(err, assist.ErrAssistDisabled) {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "assist service disabled"})
			return
		}
		s.logger.Error("assist answer failed", "error", err)
		s.jsonResponse(w, http.StatusBadGateway, map[string]string{"error": "assist backend failed"})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"answer":   answer,
		"products": len(products),
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
