package ledger

import (
	"net/http"

	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/httputil"
	"exchangecore/internal/txlog"
)

type Handler struct {
	ledger *Ledger
	txlog  *txlog.Log
}

func NewHandler(l *Ledger, t *txlog.Log) *Handler {
	return &Handler{ledger: l, txlog: t}
}

type accountResponse struct {
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// Get implements `GET /account`.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	balance, available, err := h.ledger.Get(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accountResponse{Balance: balance, AvailableBalance: available})
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit implements `POST /account/deposits`.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request, userID string) {
	var req amountRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, coreerr.New(coreerr.InvalidAmount, "malformed request body"))
		return
	}
	if err := h.ledger.Credit(r.Context(), userID, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Withdraw implements `POST /account/withdrawals`.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request, userID string) {
	var req amountRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, coreerr.New(coreerr.InvalidAmount, "malformed request body"))
		return
	}
	if err := h.ledger.Reserve(r.Context(), userID, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.SettleDebit(r.Context(), userID, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions implements `GET /account/transactions`.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request, userID string) {
	txs, err := h.txlog.For(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txs)
}
