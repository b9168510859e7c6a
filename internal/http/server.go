// Package http serves the gift ledger JSON API, the printable book and
// Prometheus metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"giftbook/internal/core"
	"giftbook/internal/lunar"
	applog "giftbook/internal/log"
	"giftbook/internal/metrics"
	"giftbook/internal/middleware/ratelimit"
	"giftbook/internal/middleware/security"
	"giftbook/internal/middleware/trace"
	"giftbook/internal/render"
	"giftbook/internal/search"
	"giftbook/internal/services"
	"giftbook/internal/sheets"
)

const maxBodyBytes = 1 << 20

// Ledger is the record service behind the API.
type Ledger interface {
	Ready(ctx context.Context) error
	Create(ctx context.Context, in core.RecordInput) (core.Record, error)
	CreateBatch(ctx context.Context, inputs []core.RecordInput) ([]int64, error)
	Get(ctx context.Context, id int64) (core.Record, error)
	List(ctx context.Context, byName bool) ([]core.Record, error)
	ListPage(ctx context.Context, page, size int) (core.Page[core.Record], error)
	RecordPage(ctx context.Context, id int64, size int) (int, error)
	Search(ctx context.Context, c search.Criteria) ([]core.Record, error)
	Update(ctx context.Context, id int64, in core.RecordInput, updatedBy string) (core.Record, error)
	Delete(ctx context.Context, id int64, updatedBy string) error
	History(ctx context.Context, id int64) ([]core.RecordHistory, error)
	AllHistory(ctx context.Context, limit int) ([]core.RecordHistory, error)
	Statistics(ctx context.Context) (core.Statistics, error)
}

// Options wires the server's collaborators. Ledger and Exports are
// required; a nil Sheets disables the spreadsheet export route.
type Options struct {
	Addr           string
	Ledger         Ledger
	Exports        *services.ExportService
	Sheets         sheets.LedgerWriter
	Calendar       *lunar.Converter
	Location       *time.Location
	BookTitle      string
	PrintTheme     string
	RateLimitRPM   int
	AllowedOrigins []string
	Logger         *applog.Logger
	Now            func() time.Time
}

// Server is the ledger HTTP server.
type Server struct {
	http.Server

	ledger    Ledger
	exports   *services.ExportService
	sheets    sheets.LedgerWriter
	calendar  *lunar.Converter
	views     views
	bookTitle string
	theme     render.Theme
	now       func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Calendar == nil {
		opts.Calendar = lunar.Default()
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Exports == nil {
		opts.Exports = services.NewExportService(opts.Location)
	}

	s := &Server{
		ledger:    opts.Ledger,
		exports:   opts.Exports,
		sheets:    opts.Sheets,
		calendar:  opts.Calendar,
		views:     views{loc: opts.Location},
		bookTitle: opts.BookTitle,
		theme:     render.ThemeByName(opts.PrintTheme),
		now:       opts.Now,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector:  security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(applog.Middleware(opts.Logger.WithComponent(applog.ComponentHTTP)))
	r.Use(s.tracer.Middleware)
	r.Use(metrics.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusNotFound, ErrMsgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusMethodNotAllowed, ErrMsgMethodNotAllowed)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(corsMiddleware(opts.AllowedOrigins))
		r.Use(requestSizeLimit(maxBodyBytes))
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			respondMessage(w, http.StatusTooManyRequests, ErrMsgRateLimited)
		}))

		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Post("/batch", s.handleCreateBatch)
			r.Get("/search", s.handleSearchRecords)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRecord)
				r.Put("/", s.handleUpdateRecord)
				r.Delete("/", s.handleDeleteRecord)
				r.Get("/page", s.handleRecordPage)
				r.Get("/history", s.handleRecordHistory)
			})
		})

		r.Get("/history", s.handleAllHistory)
		r.Get("/statistics", s.handleStatistics)

		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export/statistics.csv", s.handleExportStatisticsCSV)
		r.Post("/export/sheets", s.handleExportSheets)
		r.Get("/print", s.handlePrint)

		r.Get("/convert/amount", s.handleConvertAmount)
		r.Get("/lunar", s.handleLunar)
		r.Get("/lunar/today", s.handleLunarToday)
	})

	return r
}

// Shutdown stops the rate limiter and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	if err := s.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// ListenAndServe serves until Shutdown is called. http.ErrServerClosed is
// not reported as an error.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.Ready(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "error", err)
		respondMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondOK(w, map[string]string{"status": "ready"})
}

func requestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows the listed origins, or any origin for "*". With no
// origins configured no CORS headers are sent.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || len(origins) == 0 || (!allowAll && !slices.Contains(origins, origin)) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Set("Access-Control-Expose-Headers", strings.Join([]string{trace.HeaderRequestID, "Content-Disposition"}, ", "))

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderUpdatedBy+", "+trace.HeaderRequestID)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
