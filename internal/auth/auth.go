// Package auth implements the login/callback flow backing spec.md
// §6's `POST /auth/login` and `GET /auth/callback`: login issues a
// short-lived signed state token (CSRF protection for the redirect
// round trip), callback verifies it, upserts the user by
// auth_user_id, and hands back a session. Grounded on the teacher's
// auth/service.go signToken/ParseToken HMAC pattern, stripped of
// Telegram/OAuth-provider specifics (those coordinates are external
// per spec.md §6 and are not this package's concern).
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/model"
	"exchangecore/internal/sessions"
)

type Service struct {
	pool     *pgxpool.Pool
	sessions *sessions.Store
	issuer   string
	secret   []byte
}

func NewService(pool *pgxpool.Pool, sessionStore *sessions.Store, issuer string, secret []byte) *Service {
	return &Service{pool: pool, sessions: sessionStore, issuer: issuer, secret: secret}
}

type stateClaims struct {
	jwt.RegisteredClaims
	RedirectURI string `json:"redirect_uri"`
}

// SignState issues a short-lived signed state token embedding the
// post-login redirect target, to be round-tripped through the
// external OAuth provider and verified on callback.
func (s *Service) SignState(redirectURI string) (string, error) {
	now := time.Now().UTC()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
		RedirectURI: redirectURI,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// VerifyState parses and validates a state token minted by SignState,
// returning a CSRFMismatch error if it is missing, expired, or
// tampered with.
func (s *Service) VerifyState(state string) (redirectURI string, err error) {
	claims := &stateClaims{}
	token, parseErr := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if parseErr != nil || !token.Valid {
		return "", coreerr.New(coreerr.CSRFMismatch, "invalid or expired login state")
	}
	return claims.RedirectURI, nil
}

// CompleteLogin upserts the user identified by authUserID and issues
// a new session for it.
func (s *Service) CompleteLogin(ctx context.Context, authUserID, displayName, email string) (model.User, model.Session, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (user_id, auth_user_id, username, email, balance, available_balance)
		 VALUES (gen_random_uuid(), $1, $2, $3, 0, 0)
		 ON CONFLICT (auth_user_id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email
		 RETURNING user_id, auth_user_id, username, email`,
		authUserID, displayName, email,
	).Scan(&u.UserID, &u.AuthID, &u.DisplayName, &u.Email)
	if err != nil {
		return model.User{}, model.Session{}, coreerr.Wrap(coreerr.DatabaseError, "auth: upsert user", err)
	}

	sess, err := s.sessions.Create(ctx, u.UserID)
	if err != nil {
		return model.User{}, model.Session{}, err
	}
	return u, sess, nil
}

// UserByID loads a user row, NotFound if missing.
func (s *Service) UserByID(ctx context.Context, userID string) (model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, auth_user_id, username, email FROM users WHERE user_id = $1`, userID,
	).Scan(&u.UserID, &u.AuthID, &u.DisplayName, &u.Email)
	if err == pgx.ErrNoRows {
		return model.User{}, coreerr.New(coreerr.NotFound, "user not found")
	}
	if err != nil {
		return model.User{}, coreerr.Wrap(coreerr.DatabaseError, "auth: user_by_id", err)
	}
	return u, nil
}
