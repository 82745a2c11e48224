package auth

import (
	"net/http"

	"exchangecore/internal/httputil"
)

type Handler struct {
	svc         *Service
	frontendURL string
}

func NewHandler(svc *Service, frontendURL string) *Handler {
	return &Handler{svc: svc, frontendURL: frontendURL}
}

// Login starts the external OAuth redirect, stashing a signed state
// token that Callback verifies on return.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect_uri")
	if redirect == "" {
		redirect = h.frontendURL
	}
	state, err := h.svc.SignState(redirect)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"state": state})
}

// Callback verifies the state token, upserts the user, issues a
// session, and sets the session_id cookie.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	redirectURI, err := h.svc.VerifyState(state)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	authUserID := r.URL.Query().Get("auth_user_id")
	displayName := r.URL.Query().Get("display_name")
	email := r.URL.Query().Get("email")
	if authUserID == "" {
		http.Error(w, "missing auth_user_id", http.StatusBadRequest)
		return
	}

	_, sess, err := h.svc.CompleteLogin(r.Context(), authUserID, displayName, email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    sess.SessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})

	if redirectURI != "" {
		http.Redirect(w, r, redirectURI, http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}
