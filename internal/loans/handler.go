package loans

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/httputil"
	"exchangecore/internal/types"
)

type Handler struct {
	engine *Engine
}

func NewHandler(e *Engine) *Handler {
	return &Handler{engine: e}
}

// Request implements `POST /loans/:type`.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request, userID string) {
	loanType := types.LoanType(chi.URLParam(r, "type"))
	loan, err := h.engine.Request(r.Context(), userID, loanType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, loan)
}

// Get implements `GET /loans`.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	loan, err := h.engine.Get(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}

type repayRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Repay implements `POST /loans/repayments`.
func (h *Handler) Repay(w http.ResponseWriter, r *http.Request, userID string) {
	var req repayRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, coreerr.New(coreerr.InvalidAmount, "malformed request body"))
		return
	}
	loan, err := h.engine.Repay(r.Context(), userID, req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}
