// Package solvency implements the bankruptcy check and liquidation
// sequence, grounded on the original source's bankruptcy_service.rs
// (calculate_credit_score, check_for_bankruptcy, handle_bankruptcy).
package solvency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/ledger"
	"exchangecore/internal/loans"
	"exchangecore/internal/orders"
	"exchangecore/internal/portfolio"
	"exchangecore/internal/ticker"
	"exchangecore/internal/types"
)

const bankruptcyThreshold = 25

type Monitor struct {
	ledger    *ledger.Ledger
	portfolio *portfolio.Portfolio
	loans     *loans.Engine
	orders    *orders.Registry
	ticker    *ticker.Oracle
}

func New(l *ledger.Ledger, p *portfolio.Portfolio, ln *loans.Engine, o *orders.Registry, t *ticker.Oracle) *Monitor {
	return &Monitor{ledger: l, portfolio: p, loans: ln, orders: o, ticker: t}
}

// CreditScore returns 100 if liabilities are zero, else
// min((assets-liabilities)/liabilities, 100).
func CreditScore(assets, liabilities decimal.Decimal) decimal.Decimal {
	if liabilities.Sign() == 0 {
		return decimal.NewFromInt(100)
	}
	score := assets.Sub(liabilities).Div(liabilities)
	return decimal.Min(score, decimal.NewFromInt(100))
}

// Check computes the user's assets/liabilities and reports whether
// their credit score is below the bankruptcy threshold.
func (m *Monitor) Check(ctx context.Context, userID string) (bool, error) {
	balance, _, err := m.ledger.Get(ctx, userID)
	if err != nil {
		return false, err
	}

	positions, err := m.portfolio.All(ctx, userID)
	if err != nil {
		return false, err
	}
	marketValue := decimal.Zero
	for _, p := range positions {
		marketValue = marketValue.Add(p.Quantity.Mul(p.PricePerShare))
	}
	assets := balance.Add(marketValue)

	liabilities := decimal.Zero
	loan, err := m.loans.Get(ctx, userID)
	if err != nil && !coreerr.Is(err, coreerr.UserDoesNotHaveLoan) {
		return false, err
	}
	if err == nil && loan.Status == types.LoanStatusOngoing {
		accrued, principal := loans.CurrentBalance(loan, time.Now())
		liabilities = accrued.Add(principal)
	}

	score := CreditScore(assets, liabilities)
	return score.LessThan(decimal.NewFromInt(bankruptcyThreshold)), nil
}

// Handle liquidates a bankrupt user: defaults their loan, zeroes the
// ledger, removes every portfolio position, and cancels every order.
func (m *Monitor) Handle(ctx context.Context, userID string) error {
	loan, err := m.loans.Get(ctx, userID)
	if err == nil && loan.Status == types.LoanStatusOngoing {
		if err := m.loans.SetStatus(ctx, userID, types.LoanStatusDefaulted); err != nil {
			return err
		}
	} else if err != nil && !coreerr.Is(err, coreerr.UserDoesNotHaveLoan) {
		return err
	}

	if err := m.ledger.Reset(ctx, userID); err != nil {
		return err
	}

	positions, err := m.portfolio.All(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range positions {
		if err := m.portfolio.Remove(ctx, userID, p.Symbol, p.Quantity); err != nil {
			return err
		}
	}

	return m.orders.CancelAll(ctx, userID)
}
