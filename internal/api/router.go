package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-screener/internal/api/handlers"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Route is one served endpoint
type Route struct {
	Method      string
	Path        string
	Description string
	handler     http.HandlerFunc
}

// routes lists every endpoint in registration order
func routes(screening *handlers.ScreeningHandler) []Route {
	return []Route{
		{"GET", "/", "Liveness message", handlers.Root},
		{"GET", "/health", "Health check", handlers.Health},
		{"GET", "/api/health", "Health check", handlers.Health},
		{"GET", "/api/daily-stocks", "Top ranked stocks (?force_refresh=true)", screening.GetDailyStocks},
		{"GET", "/api/filters", "Filter thresholds and scoring weights", screening.GetFilters},
		{"GET", "/api/screening-progress", "Screening progress (SSE)", screening.StreamProgress},
		{"GET", "/ws/screening-progress", "Screening progress (WebSocket)", screening.StreamProgressWS},
	}
}

// Router is the configured HTTP handler plus its route table
type Router struct {
	http.Handler
	Routes []Route
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(screening *handlers.ScreeningHandler, log *logger.Logger) *Router {
	r := mux.NewRouter()

	table := routes(screening)
	for _, rt := range table {
		r.HandleFunc(rt.Path, rt.handler).Methods(rt.Method)
	}

	// Apply middleware
	r.Use(corsMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	// CORS preflight은 라우트 매칭 전에 처리
	return &Router{Handler: preflight(r), Routes: table}
}

// corsMiddleware allows every origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		next.ServeHTTP(w, r)
	})
}

// preflight answers OPTIONS requests for any path
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			setCORSHeaders(w)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"error":   "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
