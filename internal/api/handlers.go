/*
handlers.go - HTTP handlers for the wallet API (spec section 6)

PURPOSE:
  Thin adapter: decode request, validate wire-level shape, call the
  engine, translate the result into a response. No business logic lives
  here - every invariant the handlers could violate is already enforced
  inside internal/wallet.

ENDPOINTS:
  POST /api/v1/wallets/                        create a wallet
  GET  /api/v1/wallets/{id}/balance             read a balance
  PUT  /api/v1/wallets/{id}/deposit             credit a wallet
  PUT  /api/v1/wallets/{source}/transfer/{target} move funds

SEE ALSO:
  - dto.go: request/response shapes and wire-level validation
  - errors.go: error-to-status mapping
  - server.go: route registration
  - internal/wallet/engine.go: the engine every handler calls into
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/wallet-service/internal/wallet"
)

// Handler holds the engine every wallet endpoint calls into.
type Handler struct {
	Engine *wallet.Engine
}

// NewHandler builds a Handler backed by engine.
func NewHandler(engine *wallet.Engine) *Handler {
	return &Handler{Engine: engine}
}

// CreateWallet handles POST /wallets/.
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required", nil)
		return
	}

	walletID, err := h.Engine.Create(r.Context(), req.UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WalletResponse{ID: walletID, Balance: "0"})
}

// GetBalance handles GET /wallets/{id}/balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "id")

	balance, err := h.Engine.GetBalance(r.Context(), walletID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WalletResponse{ID: walletID, Balance: balance.String()})
}

// Deposit handles PUT /wallets/{id}/deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "id")

	amount, ok := decodeAmountRequest(w, r)
	if !ok {
		return
	}

	if err := h.Engine.Deposit(r.Context(), walletID, amount.amount, amount.nonce); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transfer handles PUT /wallets/{source}/transfer/{target}.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "source")
	targetID := chi.URLParam(r, "target")

	amount, ok := decodeAmountRequest(w, r)
	if !ok {
		return
	}

	if err := h.Engine.Transfer(r.Context(), sourceID, targetID, amount.amount, amount.nonce); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type parsedAmount struct {
	amount decimal.Decimal
	nonce  string
}

// decodeAmountRequest decodes and wire-validates an AmountRequest body,
// writing a 422 response and returning ok=false on any failure.
func decodeAmountRequest(w http.ResponseWriter, r *http.Request) (parsedAmount, bool) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body", err)
		return parsedAmount{}, false
	}
	if !validAmountString(req.Amount) {
		writeError(w, http.StatusUnprocessableEntity, "amount must be a digit string of 1-20 characters", nil)
		return parsedAmount{}, false
	}
	if !validNonce(req.Nonce) {
		writeError(w, http.StatusUnprocessableEntity, "nonce must be 8-16 characters", nil)
		return parsedAmount{}, false
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "amount must be numeric", err)
		return parsedAmount{}, false
	}
	return parsedAmount{amount: amount, nonce: req.Nonce}, true
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
