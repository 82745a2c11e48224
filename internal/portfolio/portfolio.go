// Package portfolio implements per-user holdings, grounded on the
// original source's portfolio_management_service.rs (upsert
// quantity/cost basis, profit calculation against live price).
package portfolio

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/model"
	"exchangecore/internal/ticker"
)

type Portfolio struct {
	pool   *pgxpool.Pool
	ticker *ticker.Oracle
}

func New(pool *pgxpool.Pool, oracle *ticker.Oracle) *Portfolio {
	return &Portfolio{pool: pool, ticker: oracle}
}

// Holdings returns the quantity held, 0 if no row exists.
func (p *Portfolio) Holdings(ctx context.Context, userID, symbol string) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := p.pool.QueryRow(ctx,
		`SELECT quantity FROM portfolio WHERE user_id = $1 AND ticker = $2`,
		userID, symbol,
	).Scan(&qty)
	if err == pgx.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, coreerr.Wrap(coreerr.DatabaseError, "portfolio: holdings", err)
	}
	return qty, nil
}

// Add upserts (user,symbol), summing quantity and cost basis.
func (p *Portfolio) Add(ctx context.Context, userID, symbol string, qty, costDelta decimal.Decimal) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO portfolio (user_id, ticker, quantity, total_money_spent)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, ticker) DO UPDATE
		 SET quantity = portfolio.quantity + EXCLUDED.quantity,
		     total_money_spent = portfolio.total_money_spent + EXCLUDED.total_money_spent`,
		userID, symbol, qty, costDelta)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "portfolio: add", err)
	}
	return nil
}

// Remove decrements quantity, conditional on existing >= qty, deleting
// the row when the remainder would be exactly zero.
func (p *Portfolio) Remove(ctx context.Context, userID, symbol string, qty decimal.Decimal) error {
	if qty.Sign() <= 0 {
		return coreerr.New(coreerr.InvalidAmount, "remove quantity must be positive")
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "portfolio: remove begin tx", err)
	}
	defer tx.Rollback(ctx)

	var existing decimal.Decimal
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM portfolio WHERE user_id = $1 AND ticker = $2 FOR UPDATE`,
		userID, symbol,
	).Scan(&existing)
	if err == pgx.ErrNoRows || (err == nil && existing.LessThan(qty)) {
		return coreerr.New(coreerr.InsufficientHoldings, "insufficient holdings")
	}
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "portfolio: remove select", err)
	}

	if existing.Equal(qty) {
		if _, err := tx.Exec(ctx,
			`DELETE FROM portfolio WHERE user_id = $1 AND ticker = $2`, userID, symbol); err != nil {
			return coreerr.Wrap(coreerr.DatabaseError, "portfolio: remove delete", err)
		}
	} else {
		if _, err := tx.Exec(ctx,
			`UPDATE portfolio SET quantity = quantity - $3 WHERE user_id = $1 AND ticker = $2`,
			userID, symbol, qty); err != nil {
			return coreerr.Wrap(coreerr.DatabaseError, "portfolio: remove update", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "portfolio: remove commit", err)
	}
	return nil
}

// Set upserts (user,symbol) to an absolute quantity/cost basis rather
// than accumulating, for idempotent re-seeding (e.g. the system user
// at every bootstrap) where repeated calls must not pile up holdings.
func (p *Portfolio) Set(ctx context.Context, userID, symbol string, qty, costBasis decimal.Decimal) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO portfolio (user_id, ticker, quantity, total_money_spent)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, ticker) DO UPDATE
		 SET quantity = EXCLUDED.quantity,
		     total_money_spent = EXCLUDED.total_money_spent`,
		userID, symbol, qty, costBasis)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "portfolio: set", err)
	}
	return nil
}

// Position is a holding augmented with live price and total profit.
type Position struct {
	Symbol        string
	Quantity      decimal.Decimal
	CostBasis     decimal.Decimal
	PricePerShare decimal.Decimal
	TotalProfit   decimal.Decimal
}

// All returns every holding for user augmented with live price and
// total_profit = qty*price - cost_basis (total_money_spent).
func (p *Portfolio) All(ctx context.Context, userID string) ([]Position, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT ticker, quantity, total_money_spent FROM portfolio WHERE user_id = $1`, userID)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.DatabaseError, "portfolio: all", err)
	}
	defer rows.Close()

	var positions []model.PortfolioPosition
	for rows.Next() {
		var pos model.PortfolioPosition
		pos.UserID = userID
		if err := rows.Scan(&pos.Symbol, &pos.Quantity, &pos.CostBasis); err != nil {
			return nil, coreerr.Wrap(coreerr.DatabaseError, "portfolio: all scan", err)
		}
		positions = append(positions, pos)
	}
	if rows.Err() != nil {
		return nil, coreerr.Wrap(coreerr.DatabaseError, "portfolio: all rows", rows.Err())
	}

	out := make([]Position, 0, len(positions))
	for _, pos := range positions {
		t, err := p.ticker.PriceOf(ctx, pos.Symbol)
		if err != nil {
			return nil, err
		}
		profit := pos.Quantity.Mul(t.PricePerShare).Sub(pos.CostBasis)
		out = append(out, Position{
			Symbol:        pos.Symbol,
			Quantity:      pos.Quantity,
			CostBasis:     pos.CostBasis,
			PricePerShare: t.PricePerShare,
			TotalProfit:   profit,
		})
	}
	return out, nil
}
