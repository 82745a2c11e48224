// Package txlog is the append-only transaction ledger from spec.md
// §3/§4.7, grounded on the original source's trade_service.rs's
// log_transaction call.
package txlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/model"
	"exchangecore/internal/types"
)

type Log struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Log {
	return &Log{pool: pool}
}

// Append writes one executed-fill record. Never mutates existing rows.
func (l *Log) Append(ctx context.Context, userID, symbol string, side types.OrderSide, qty, price decimal.Decimal, executedAt time.Time) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO transactions (transaction_id, user_id, ticker, order_type, quantity, price_per_share, executed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.NewString(), userID, symbol, side, qty, price, executedAt)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "txlog: append", err)
	}
	return nil
}

// For returns every transaction for user, most recent first.
func (l *Log) For(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT transaction_id, user_id, ticker, order_type, quantity, price_per_share, executed_at
		 FROM transactions WHERE user_id = $1 ORDER BY executed_at DESC`, userID)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.DatabaseError, "txlog: for", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Side, &t.Quantity, &t.PricePerShare, &t.ExecutedAt); err != nil {
			return nil, coreerr.Wrap(coreerr.DatabaseError, "txlog: for scan", err)
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, coreerr.Wrap(coreerr.DatabaseError, "txlog: for rows", rows.Err())
	}
	return out, nil
}
