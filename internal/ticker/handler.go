package ticker

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"exchangecore/internal/httputil"
)

type Handler struct {
	oracle *Oracle
}

func NewHandler(oracle *Oracle) *Handler {
	return &Handler{oracle: oracle}
}

// Get implements `GET /tickers/:symbol`.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	t, err := h.oracle.PriceOf(r.Context(), symbol)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}
