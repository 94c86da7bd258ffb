// Package api - Router setup
package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router.
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(RecoveryMiddleware)
	r.Use(CORSMiddleware)
	r.Use(LoggingMiddleware)

	// Public routes
	r.HandleFunc("/", h.ServerInfo).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Wallet
	api.HandleFunc("/wallet", h.CreateWallet).Methods("POST")
	api.HandleFunc("/wallet/deposit", h.Deposit).Methods("POST")
	api.HandleFunc("/wallet/withdraw", h.Withdraw).Methods("POST")
	api.HandleFunc("/wallet/{player_id}", h.GetBalance).Methods("GET")

	// Spins
	api.HandleFunc("/spin", h.Spin).Methods("POST")
	api.HandleFunc("/history/{player_id}", h.GetHistory).Methods("GET")

	// Jackpot & game math
	api.HandleFunc("/jackpot", h.GetJackpot).Methods("GET")
	api.HandleFunc("/paytable", h.GetPaytable).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	// WebSocket feed of settled results
	r.HandleFunc("/ws/feed", h.ServeFeed).Methods("GET")

	return r
}

// NotFoundHandler handles 404 errors.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}
