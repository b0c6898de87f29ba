// Package http serves the tracker's JSON API on the loopback interface.
// Every route except the health probes goes through the security middleware,
// which handles client IP extraction, rate limiting, and request logging.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/evansmunsha/expense-guard/internal/log"
	"github.com/evansmunsha/expense-guard/internal/services"
)

// Server wires the tracker to its HTTP surface and owns the rate limiter
// for the lifetime of the listener.
type Server struct {
	http.Server
	tracker      *services.Tracker
	logger       *log.Logger
	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, tracker *services.Tracker, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	httpLogger := logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		Server: http.Server{
			Addr: addr,
			// Every request starts out with the base logger in context;
			// the security middleware swaps in a request-scoped one.
			Handler:           log.Middleware(httpLogger)(mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
		tracker:     tracker,
		logger:      httpLogger,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/records", s.withSecurityHeaders(s.handleRecords))
	mux.HandleFunc("/api/stats", s.withSecurityHeaders(s.handleStats))
	mux.HandleFunc("/api/breakdown", s.withSecurityHeaders(s.handleBreakdown))
	mux.HandleFunc("/api/insights", s.withSecurityHeaders(s.handleInsights))
	mux.HandleFunc("/api/subscriptions", s.withSecurityHeaders(s.handleSubscriptions))
	mux.HandleFunc("/api/settings", s.withSecurityHeaders(s.handleSettings))
	mux.HandleFunc("/api/import", s.withSecurityHeaders(s.handleImport))
	mux.HandleFunc("/api/export/csv", s.withSecurityHeaders(s.handleExportCSV))
	mux.HandleFunc("/api/export/backup", s.withSecurityHeaders(s.handleExportBackup))
	mux.HandleFunc("/api/billing/purchase", s.withSecurityHeaders(s.handleBillingPurchase))
	mux.HandleFunc("/api/billing/restore", s.withSecurityHeaders(s.handleBillingRestore))

	return s
}

// Shutdown stops the cleanup goroutines before draining the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging around a handler. Mutating methods are rate limited per client IP.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.WithLogger(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		reqLogger.InfoContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			reqLogger.WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		// Spending data must never land in a shared cache.
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		reqLogger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
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
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
