// Package api provides the HTTP embedding of the spin engine: each spin is
// a single request-response unit handled by the engine, and settled results
// are fanned out to the live feed.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/reelhouse/engine/internal/domain"
	"github.com/reelhouse/engine/internal/game"
	"github.com/reelhouse/engine/internal/jackpot"
	"github.com/reelhouse/engine/internal/ledger"
	"github.com/reelhouse/engine/internal/rng"
	"github.com/reelhouse/engine/internal/wallet"
)

// Handler contains all HTTP handlers.
type Handler struct {
	wallet   *wallet.Service
	engine   *game.Engine
	jackpot  *jackpot.Manager
	rng      *rng.Service
	provider game.Provider
	hub      *Hub
	currency string
}

// New creates a new API handler.
func New(walletSvc *wallet.Service, engine *game.Engine, jackpotMgr *jackpot.Manager, rngSvc *rng.Service, provider game.Provider, hub *Hub, currency string) *Handler {
	return &Handler{
		wallet:   walletSvc,
		engine:   engine,
		jackpot:  jackpotMgr,
		rng:      rngSvc,
		provider: provider,
		hub:      hub,
		currency: currency,
	}
}

// Response helpers

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

// === Health & Info ===

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rngHealth, _ := h.rng.HealthCheck()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"rng_status": rngHealth,
		"stats":      h.engine.Stats(),
	})
}

// ServerInfo handles GET /
func (h *Handler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "spin-engine",
		"version":     "1.0.0",
		"description": "Slot machine spin and settlement engine",
	})
}

// === Wallet ===

// GetBalance handles GET /api/v1/wallet/{player_id}
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["player_id"]

	balance, err := h.wallet.GetBalance(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, ledger.ErrPlayerNotFound) {
			respondError(w, http.StatusNotFound, "PLAYER_NOT_FOUND", "Player not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "BALANCE_ERROR", "Failed to get balance")
		return
	}

	respondJSON(w, http.StatusOK, balance)
}

type fundsRequest struct {
	PlayerID string  `json:"player_id"`
	Amount   float64 `json:"amount"` // major units
}

// CreateWallet handles POST /api/v1/wallet
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req fundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.PlayerID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "player_id is required")
		return
	}

	balance, err := h.wallet.CreateWallet(r.Context(), req.PlayerID, domain.NewMoney(req.Amount, h.currency))
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Opening balance cannot be negative")
		default:
			respondError(w, http.StatusConflict, "WALLET_EXISTS", "Wallet could not be created")
		}
		return
	}

	respondJSON(w, http.StatusCreated, balance)
}

// Deposit handles POST /api/v1/wallet/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req fundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	balance, err := h.wallet.Deposit(r.Context(), req.PlayerID, domain.NewMoney(req.Amount, h.currency))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrPlayerNotFound):
			respondError(w, http.StatusNotFound, "PLAYER_NOT_FOUND", "Player not found")
		case errors.Is(err, wallet.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive")
		default:
			respondError(w, http.StatusInternalServerError, "DEPOSIT_FAILED", "Deposit failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, balance)
}

// Withdraw handles POST /api/v1/wallet/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req fundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	balance, err := h.wallet.Withdraw(r.Context(), req.PlayerID, domain.NewMoney(req.Amount, h.currency))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrPlayerNotFound):
			respondError(w, http.StatusNotFound, "PLAYER_NOT_FOUND", "Player not found")
		case errors.Is(err, wallet.ErrInsufficientFunds):
			respondError(w, http.StatusConflict, "INSUFFICIENT_FUNDS", "Insufficient funds")
		case errors.Is(err, wallet.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive")
		default:
			respondError(w, http.StatusInternalServerError, "WITHDRAW_FAILED", "Withdrawal failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, balance)
}

// === Spins ===

// Spin handles POST /api/v1/spin
func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	var req game.SpinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.engine.Play(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrPlayerNotFound):
			respondError(w, http.StatusNotFound, "PLAYER_NOT_FOUND", "Player not found")
		case errors.Is(err, wallet.ErrInsufficientFunds):
			respondError(w, http.StatusConflict, "INSUFFICIENT_FUNDS", "Bet exceeds balance")
		case errors.Is(err, game.ErrInvalidWager):
			respondError(w, http.StatusBadRequest, "INVALID_WAGER", "Wager outside allowed range")
		case errors.Is(err, wallet.ErrInconsistentState):
			respondError(w, http.StatusInternalServerError, "INCONSISTENT_STATE", "Settlement requires reconciliation")
		default:
			respondError(w, http.StatusInternalServerError, "SPIN_FAILED", "Spin failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /api/v1/history/{player_id}
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["player_id"]

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := h.engine.GetHistory(r.Context(), playerID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to get history")
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// === Jackpot & math ===

// GetJackpot handles GET /api/v1/jackpot
func (h *Handler) GetJackpot(w http.ResponseWriter, r *http.Request) {
	pool, err := h.jackpot.Current(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "JACKPOT_ERROR", "Failed to get jackpot pool")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pool":  pool,
		"floor": h.jackpot.Floor(),
	})
}

// GetPaytable handles GET /api/v1/paytable — the current game math view.
func (h *Handler) GetPaytable(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rows":           h.provider.GridRows(),
		"columns":        len(h.provider.ReelSet()),
		"paylines":       h.provider.Paylines(),
		"paytable":       h.provider.PayTable(),
		"symbol_payouts": h.provider.SymbolPayouts(),
		"jackpot":        h.provider.JackpotRule(),
		"bonus":          h.provider.BonusRule(),
	})
}

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Stats())
}
