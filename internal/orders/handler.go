package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/httputil"
	"exchangecore/internal/types"
)

type Handler struct {
	registry *Registry
}

func NewHandler(r *Registry) *Handler {
	return &Handler{registry: r}
}

type placeRequest struct {
	Symbol   string           `json:"symbol"`
	Quantity decimal.Decimal  `json:"quantity"`
	Side     types.OrderSide  `json:"side"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// Place implements `POST /orders`.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request, userID string) {
	var req placeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, coreerr.New(coreerr.InvalidAmount, "malformed request body"))
		return
	}
	o, err := h.registry.Place(r.Context(), userID, req.Symbol, req.Quantity, req.Side, req.Price)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, o)
}

// List implements `GET /orders`, returning the caller's pending orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, userID string) {
	orders, err := h.registry.PendingFor(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

// Get implements `GET /orders/:id`.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	o, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

// Cancel implements `DELETE /orders/:id`.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.registry.Cancel(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
