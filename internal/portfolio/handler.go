package portfolio

import (
	"net/http"

	"exchangecore/internal/httputil"
)

type Handler struct {
	portfolio *Portfolio
}

func NewHandler(p *Portfolio) *Handler {
	return &Handler{portfolio: p}
}

// Get implements `GET /portfolio`.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	positions, err := h.portfolio.All(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, positions)
}
