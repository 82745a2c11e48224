// Package httputil holds the JSON request/response helpers shared by
// every handler, grounded on the teacher's handler bodies (which
// inline json.NewEncoder/Decoder per-call) factored into a single
// place and extended with the coreerr-to-status mapping spec.md §7
// requires.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"exchangecore/internal/coreerr"
)

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("httputil: encode response", "error", err)
	}
}

// ReadJSON decodes the request body into v, rejecting unknown fields.
func ReadJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ErrorResponse is the wire shape of every `{"error": "..."}` body.
type ErrorResponse struct {
	Error string `json:"error"`
}

type errorBody = ErrorResponse

// WriteError maps err to an HTTP status per spec.md §7's error table
// and writes a `{"error": "..."}` body. Unrecognized errors are logged
// with their detail and returned to the client as a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	ce, ok := coreerr.As(err)
	if !ok {
		slog.Error("httputil: unhandled error", "error", err)
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	status := statusFor(ce.Kind)
	if status >= 500 {
		slog.Error("httputil: internal error", "kind", ce.Kind.String(), "detail", ce.Error())
		WriteJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	WriteJSON(w, status, errorBody{Error: ce.Msg})
}

func statusFor(k coreerr.Kind) int {
	switch k {
	case coreerr.NotFound, coreerr.OrderBookNotFound:
		return http.StatusNotFound
	case coreerr.InvalidAmount,
		coreerr.InsufficientFunds,
		coreerr.InsufficientHoldings,
		coreerr.InvalidOrderStatus,
		coreerr.UserAlreadyHasLoan,
		coreerr.UserDoesNotHaveLoan:
		return http.StatusBadRequest
	case coreerr.NoMatchForOrder:
		return http.StatusInternalServerError
	case coreerr.CSRFMismatch:
		return http.StatusBadRequest
	case coreerr.MissingCookie:
		return http.StatusUnauthorized
	case coreerr.DatabaseError, coreerr.Transport:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
