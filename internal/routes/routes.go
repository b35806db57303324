package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onefourfourk/community-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(reg *handlers.RegistrationHandler, ws *handlers.WebSocketHandler) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Read path
	router.HandleFunc("/api/stats", reg.Stats).Methods(http.MethodGet)
	router.HandleFunc("/api/validate-invite", reg.ValidateInvite).Methods(http.MethodPost)

	// Mutating path
	router.HandleFunc("/api/register", reg.Register).Methods(http.MethodPost)

	// Real-time community channel
	router.HandleFunc("/ws", ws.Serve).Methods(http.MethodGet)

	return router
}
