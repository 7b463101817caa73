package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

// ProductResponse is the envelope returned by /api/products.
type ProductResponse struct {
	Query    string                `json:"query"`
	Count    int                   `json:"count"`
	Products []types.ProductRecord `json:"products"`
	Cached   bool                  `json:"cached"`
}

// Server exposes the pipeline over HTTP.
type Server struct {
	mux     *http.ServeMux
	httpSrv *http.Server
	cfg     config.API
	svc     Service
	logger  *slog.Logger
}

// NewServer creates the API server around a pipeline service.
func NewServer(cfg config.API, svc Service, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		cfg:    cfg,
		svc:    svc,
		logger: logger.With("component", "api_server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/products", s.handleProducts)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)
}

// Mount attaches an extra handler, e.g. the dashboard.
func (s *Server) Mount(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the server until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"name":    "Nexus Intelligence API",
		"version": config.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   config.Version,
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < 2 {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "query must be at least 2 characters"})
		return
	}

	limit := s.cfg.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.cfg.MaxLimit {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("limit must be an integer in 1..%d", s.cfg.MaxLimit),
			})
			return
		}
		limit = n
	}

	minRating := 0.0
	if raw := r.URL.Query().Get("min_rating"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 || f > 5 {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "min_rating must be in 0..5"})
			return
		}
		minRating = f
	}

	s.logger.Info("products request", "query", query, "limit", limit, "min_rating", minRating)

	ctx := r.Context()
	if s.cfg.PipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PipelineTimeout)
		defer cancel()
	}

	records, cached, err := s.svc.Products(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.jsonResponse(w, http.StatusGatewayTimeout, map[string]string{"error": "timed out, please try again"})
			return
		}
		s.logger.Error("pipeline failed", "query", query, "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if minRating > 0 {
		filtered := records[:0:0]
		for _, rec := range records {
			if rec.Rating >= minRating {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []types.ProductRecord{}
	}

	s.jsonResponse(w, http.StatusOK, ProductResponse{
		Query:    query,
		Count:    len(records),
		Products: records,
		Cached:   cached,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ClearCache()
	if err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": "cleared", "deleted": n})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
