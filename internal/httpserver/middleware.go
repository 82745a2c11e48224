package httpserver

import (
	"context"
	"net/http"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/httputil"
	"exchangecore/internal/sessions"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// WithAuth resolves the session_id cookie, touches the session, and
// stores the owning user id in the request context. Missing or
// expired cookies surface as MissingCookie (401) per spec.md §7.
func WithAuth(store *sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_id")
			if err != nil || cookie.Value == "" {
				httputil.WriteError(w, coreerr.New(coreerr.MissingCookie, "missing session_id cookie"))
				return
			}
			sess, err := store.Touch(r.Context(), cookie.Value)
			if err != nil {
				httputil.WriteError(w, coreerr.New(coreerr.MissingCookie, "invalid or expired session"))
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id stashed by WithAuth.
func UserID(r *http.Request) (string, bool) {
	v := r.Context().Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
