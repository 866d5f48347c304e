package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"famledger/internal/cache"
	"famledger/internal/report"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// mutationRateLimit is the per-IP budget for write requests per minute.
const mutationRateLimit = 60

// Server is the JSON API server. Aggregation responses are cached with a
// short TTL and purged on any mutation.
type Server struct {
	http.Server
	deps        Deps
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	summaryCache   *cache.LRUCache[report.Summary]
	breakdownCache *cache.LRUCache[[]report.CategorySummaryItem]
	executionCache *cache.LRUCache[[]report.BudgetExecutionRow]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:             deps,
		rateLimiter:      newRateLimiter(mutationRateLimit),
		metrics:          &securityMetrics{},
		summaryCache:     cache.NewLRUCache[report.Summary](100, 5*time.Minute),
		breakdownCache:   cache.NewLRUCache[[]report.CategorySummaryItem](100, 5*time.Minute),
		executionCache:   cache.NewLRUCache[[]report.BudgetExecutionRow](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/ledgers", s.withMiddleware(s.handleListLedgers))
	mux.HandleFunc("POST /api/ledgers", s.withMiddleware(s.handleAddLedger))
	mux.HandleFunc("PUT /api/ledgers/{id}", s.withMiddleware(s.handleUpdateLedger))
	mux.HandleFunc("DELETE /api/ledgers/{id}", s.withMiddleware(s.handleDeleteLedger))

	mux.HandleFunc("GET /api/members", s.withMiddleware(s.handleListMembers))
	mux.HandleFunc("POST /api/members", s.withMiddleware(s.handleAddMember))
	mux.HandleFunc("PUT /api/members/{id}", s.withMiddleware(s.handleUpdateMember))
	mux.HandleFunc("DELETE /api/members/{id}", s.withMiddleware(s.handleDeleteMember))

	mux.HandleFunc("GET /api/records", s.withMiddleware(s.handleListRecords))
	mux.HandleFunc("POST /api/records", s.withMiddleware(s.handleAddRecord))
	mux.HandleFunc("PUT /api/records/{id}", s.withMiddleware(s.handleUpdateRecord))
	mux.HandleFunc("DELETE /api/records/{id}", s.withMiddleware(s.handleDeleteRecord))
	mux.HandleFunc("GET /api/records/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /api/records/category-summary", s.withMiddleware(s.handleCategorySummary))

	mux.HandleFunc("GET /api/budgets", s.withMiddleware(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withMiddleware(s.handleAddBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withMiddleware(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withMiddleware(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budgets/execution", s.withMiddleware(s.handleBudgetExecution))
	mux.HandleFunc("GET /api/budgets/monthly", s.withMiddleware(s.handleMonthlyBudgets))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))

	return s
}

// withMiddleware adds request IDs, logging, rate limiting on writes, and
// security headers.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request rejected",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.String())
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		// Reads are cheap and cached; only writes are rate limited.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// invalidateCaches drops all cached aggregation responses. Called on every
// mutation so reads never serve stale figures.
func (s *Server) invalidateCaches() {
	s.summaryCache.Purge()
	s.breakdownCache.Purge()
	s.executionCache.Purge()
}

// startCacheCleanup evicts expired aggregation entries periodically.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.summaryCache.CleanExpired() +
				s.breakdownCache.CleanExpired() +
				s.executionCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully stops the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
