// Package ledger implements the two-column (balance, available_balance)
// account ledger from spec.md §4.2, grounded on the original source's
// account_management_service.rs (reserve_funds/add_user_balance/
// deduct_user_balance with rows-affected checks) and the teacher's
// pgx transaction-per-operation style used throughout internal/accounts.
package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
)

type Ledger struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Get returns a user's balance and available_balance.
func (l *Ledger) Get(ctx context.Context, userID string) (balance, available decimal.Decimal, err error) {
	err = l.pool.QueryRow(ctx,
		`SELECT balance, available_balance FROM users WHERE user_id = $1`, userID,
	).Scan(&balance, &available)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, decimal.Zero, coreerr.New(coreerr.NotFound, "user not found")
		}
		return decimal.Zero, decimal.Zero, coreerr.Wrap(coreerr.DatabaseError, "ledger: get", err)
	}
	return balance, available, nil
}

// Reserve moves amount out of available_balance, conditional on
// available_balance >= amount. Does not touch balance.
func (l *Ledger) Reserve(ctx context.Context, userID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return coreerr.New(coreerr.InvalidAmount, "reserve amount must be positive")
	}
	tag, err := l.pool.Exec(ctx,
		`UPDATE users SET available_balance = available_balance - $2
		 WHERE user_id = $1 AND available_balance >= $2`,
		userID, amount)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "ledger: reserve", err)
	}
	if tag.RowsAffected() == 0 {
		return coreerr.New(coreerr.InsufficientFunds, "insufficient available balance")
	}
	return nil
}

// SettleDebit moves amount out of balance, conditional on
// balance >= amount. Used when a buy fills: the reserved amount was
// already removed from available_balance by Reserve.
func (l *Ledger) SettleDebit(ctx context.Context, userID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return coreerr.New(coreerr.InvalidAmount, "settle amount must be positive")
	}
	tag, err := l.pool.Exec(ctx,
		`UPDATE users SET balance = balance - $2
		 WHERE user_id = $1 AND balance >= $2`,
		userID, amount)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "ledger: settle_debit", err)
	}
	if tag.RowsAffected() == 0 {
		return coreerr.New(coreerr.InsufficientFunds, "insufficient balance")
	}
	return nil
}

// Credit adds amount to both balance and available_balance. Used on
// sell fills, loan disbursement, and deposits.
func (l *Ledger) Credit(ctx context.Context, userID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return coreerr.New(coreerr.InvalidAmount, "credit amount must be positive")
	}
	tag, err := l.pool.Exec(ctx,
		`UPDATE users SET balance = balance + $2, available_balance = available_balance + $2
		 WHERE user_id = $1`,
		userID, amount)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "ledger: credit", err)
	}
	if tag.RowsAffected() == 0 {
		return coreerr.New(coreerr.NotFound, "user not found")
	}
	return nil
}

// Reset zeroes both columns. Used by bankruptcy liquidation.
func (l *Ledger) Reset(ctx context.Context, userID string) error {
	tag, err := l.pool.Exec(ctx,
		`UPDATE users SET balance = 0, available_balance = 0 WHERE user_id = $1`,
		userID)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "ledger: reset", err)
	}
	if tag.RowsAffected() == 0 {
		return coreerr.New(coreerr.NotFound, "user not found")
	}
	return nil
}

// Bootstrap sets (not adds) the system user's balance and
// available_balance to amount, so re-running startup re-upserts a
// fixed synthetic balance instead of accumulating it across restarts.
func (l *Ledger) Bootstrap(ctx context.Context, userID string, amount decimal.Decimal) error {
	tag, err := l.pool.Exec(ctx,
		`UPDATE users SET balance = $2, available_balance = $2
		 WHERE user_id = $1`,
		userID, amount)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "ledger: bootstrap credit", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: bootstrap user %s not found", userID)
	}
	return nil
}
