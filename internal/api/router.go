package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fcnquote/internal/api/handlers"
	"github.com/wonny/fcnquote/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	quoteHandler *handlers.QuoteHandler,
	marketHandler *handlers.MarketHandler,
	snapshotHandler *handlers.SnapshotHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", marketHandler.Health).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Market data endpoints
	api.HandleFunc("/dates/available", marketHandler.GetDates).Methods("GET")
	api.HandleFunc("/stocks/available", marketHandler.GetStocks).Methods("GET")
	api.HandleFunc("/stocks/details", marketHandler.GetStockDetails).Methods("POST")
	api.HandleFunc("/market/params", marketHandler.GetMarketParams).Methods("GET")

	// Quote endpoints
	api.HandleFunc("/fcn/calculate", quoteHandler.Calculate).Methods("POST")
	api.HandleFunc("/fcn/batch-calculate", quoteHandler.BatchCalculate).Methods("POST")

	// Snapshot admin endpoints
	api.HandleFunc("/snapshots/{date}", snapshotHandler.Upload).Methods("POST")
	api.HandleFunc("/snapshots/{date}", snapshotHandler.Delete).Methods("DELETE")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(corsMiddleware)

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
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
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows cross-origin requests from the web frontend
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
