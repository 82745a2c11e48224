// Package sessions implements spec.md §3's auth Session entity: a
// session_id cookie backed by a persisted row, touched on every
// authenticated request and expiring after 30 days. Grounded on the
// teacher's pgx store/service split (e.g. internal/accounts), since
// the teacher's own internal/sessions package modeled simulated
// trading-session volatility presets, not auth sessions.
package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/model"
)

const ttl = 30 * 24 * time.Hour

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create issues a new session for user, valid for 30 days.
func (s *Store) Create(ctx context.Context, userID string) (model.Session, error) {
	now := time.Now()
	sess := model.Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (session_id, user_id, created_at, updated_at, expires_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		sess.SessionID, sess.UserID, sess.CreatedAt, sess.UpdatedAt, sess.ExpiresAt)
	if err != nil {
		return model.Session{}, coreerr.Wrap(coreerr.DatabaseError, "sessions: create", err)
	}
	return sess, nil
}

// Touch validates sessionID, rejecting it if missing or expired, and
// bumps updated_at to now.
func (s *Store) Touch(ctx context.Context, sessionID string) (model.Session, error) {
	var sess model.Session
	err := s.pool.QueryRow(ctx,
		`SELECT session_id, user_id, created_at, updated_at, expires_at FROM sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&sess.SessionID, &sess.UserID, &sess.CreatedAt, &sess.UpdatedAt, &sess.ExpiresAt)
	if err == pgx.ErrNoRows {
		return model.Session{}, coreerr.New(coreerr.NotFound, "session not found")
	}
	if err != nil {
		return model.Session{}, coreerr.Wrap(coreerr.DatabaseError, "sessions: touch select", err)
	}
	if time.Now().After(sess.ExpiresAt) {
		return model.Session{}, coreerr.New(coreerr.NotFound, "session expired")
	}

	now := time.Now()
	_, err = s.pool.Exec(ctx, `UPDATE sessions SET updated_at = $2 WHERE session_id = $1`, sessionID, now)
	if err != nil {
		return model.Session{}, coreerr.Wrap(coreerr.DatabaseError, "sessions: touch update", err)
	}
	sess.UpdatedAt = now
	return sess, nil
}

// Delete removes a session row. No route calls it; there is no
// logout endpoint.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "sessions: delete", err)
	}
	return nil
}
