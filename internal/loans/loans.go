// Package loans implements the single non-terminal loan per user,
// grounded on the original source's loan_service.rs and models/loan.rs
// — including the daily-compounded balance formula's literal use of
// the raw percent number for rate (not rate/100).
package loans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/ledger"
	"exchangecore/internal/model"
	"exchangecore/internal/types"
)

var standardParams = params{principal: decimal.NewFromInt(100_000), rate: decimal.NewFromInt(5)}
var premiumParams = params{principal: decimal.NewFromInt(1_000_000), rate: decimal.NewFromInt(10)}

type params struct {
	principal decimal.Decimal
	rate      decimal.Decimal
}

func paramsFor(t types.LoanType) (params, error) {
	switch t {
	case types.LoanTypeStandard:
		return standardParams, nil
	case types.LoanTypePremium:
		return premiumParams, nil
	default:
		return params{}, coreerr.New(coreerr.InvalidOrderStatus, "unknown loan type")
	}
}

type Engine struct {
	pool   *pgxpool.Pool
	ledger *ledger.Ledger
}

func New(pool *pgxpool.Pool, l *ledger.Ledger) *Engine {
	return &Engine{pool: pool, ledger: l}
}

// Request inserts a new loan for user and credits principal. Fails
// UserAlreadyHasLoan if any row for the user already exists.
func (e *Engine) Request(ctx context.Context, userID string, loanType types.LoanType) (model.Loan, error) {
	p, err := paramsFor(loanType)
	if err != nil {
		return model.Loan{}, err
	}

	var existing int
	err = e.pool.QueryRow(ctx, `SELECT count(*) FROM loans WHERE user_id = $1`, userID).Scan(&existing)
	if err != nil {
		return model.Loan{}, coreerr.Wrap(coreerr.DatabaseError, "loans: existence check", err)
	}
	if existing > 0 {
		return model.Loan{}, coreerr.New(coreerr.UserAlreadyHasLoan, "user already has a loan")
	}

	loan := model.Loan{
		LoanID:       uuid.NewString(),
		UserID:       userID,
		Principal:    p.principal,
		InterestRate: p.rate,
		Status:       types.LoanStatusOngoing,
		CreatedAt:    time.Now(),
		LastPaidAt:   time.Now(),
	}

	_, err = e.pool.Exec(ctx,
		`INSERT INTO loans (loan_id, user_id, principal, interest_rate, status, created_at, last_paid_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		loan.LoanID, loan.UserID, loan.Principal, loan.InterestRate, loan.Status, loan.CreatedAt, loan.LastPaidAt)
	if err != nil {
		return model.Loan{}, coreerr.Wrap(coreerr.DatabaseError, "loans: insert", err)
	}

	if err := e.ledger.Credit(ctx, userID, p.principal); err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

// Get returns the user's loan row, UserDoesNotHaveLoan if none exists.
func (e *Engine) Get(ctx context.Context, userID string) (model.Loan, error) {
	var l model.Loan
	err := e.pool.QueryRow(ctx,
		`SELECT loan_id, user_id, principal, interest_rate, status, created_at, last_paid_at
		 FROM loans WHERE user_id = $1`, userID,
	).Scan(&l.LoanID, &l.UserID, &l.Principal, &l.InterestRate, &l.Status, &l.CreatedAt, &l.LastPaidAt)
	if err == pgx.ErrNoRows {
		return model.Loan{}, coreerr.New(coreerr.UserDoesNotHaveLoan, "user has no loan")
	}
	if err != nil {
		return model.Loan{}, coreerr.Wrap(coreerr.DatabaseError, "loans: get", err)
	}
	return l, nil
}

// SetStatus sets the loan's status unconditionally.
func (e *Engine) SetStatus(ctx context.Context, userID string, status types.LoanStatus) error {
	tag, err := e.pool.Exec(ctx, `UPDATE loans SET status = $2 WHERE user_id = $1`, userID, status)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "loans: set status", err)
	}
	if tag.RowsAffected() == 0 {
		return coreerr.New(coreerr.UserDoesNotHaveLoan, "user has no loan")
	}
	return nil
}

// CurrentBalance returns (accrued_interest, remaining_principal) as of
// now, compounding daily from last_paid_at with the raw percent rate:
// principal * (1 + rate/365)^days_since_last_paid.
func CurrentBalance(l model.Loan, now time.Time) (accruedInterest, remainingPrincipal decimal.Decimal) {
	days := int64(now.Sub(l.LastPaidAt).Hours() / 24)
	if days < 0 {
		days = 0
	}

	one := decimal.NewFromInt(1)
	dailyRate := l.InterestRate.Div(decimal.NewFromInt(365))
	factor := one.Add(dailyRate)

	total := l.Principal
	for i := int64(0); i < days; i++ {
		total = total.Mul(factor)
	}

	remainingPrincipal = l.Principal
	accruedInterest = total.Sub(l.Principal)
	return accruedInterest, remainingPrincipal
}

// Repay debits min(amount, interest+principal) from available_balance,
// applying it to accrued interest first, then principal.
func (e *Engine) Repay(ctx context.Context, userID string, amount decimal.Decimal) (model.Loan, error) {
	if amount.Sign() <= 0 {
		return model.Loan{}, coreerr.New(coreerr.InvalidAmount, "repay amount must be positive")
	}

	l, err := e.Get(ctx, userID)
	if err != nil {
		return model.Loan{}, err
	}
	if l.Status != types.LoanStatusOngoing {
		return model.Loan{}, coreerr.New(coreerr.InvalidOrderStatus, "loan is not ongoing")
	}

	_, available, err := e.ledger.Get(ctx, userID)
	if err != nil {
		return model.Loan{}, err
	}
	if available.LessThan(amount) {
		return model.Loan{}, coreerr.New(coreerr.InsufficientFunds, "insufficient available balance")
	}

	accrued, principal := CurrentBalance(l, time.Now())
	totalOwed := accrued.Add(principal)

	applied := decimal.Min(amount, totalOwed)
	if err := e.ledger.Reserve(ctx, userID, applied); err != nil {
		return model.Loan{}, err
	}
	if err := e.ledger.SettleDebit(ctx, userID, applied); err != nil {
		return model.Loan{}, err
	}

	// remaining_principal + remaining_interest is folded back into a
	// single stored principal (spec.md §4.8): CurrentBalance derives
	// interest from principal alone, so any unpaid interest has to be
	// rolled in or it would be forgiven and compounding would restart
	// from a lower base.
	remainingTotal := totalOwed.Sub(applied)
	now := time.Now()
	if remainingTotal.Sign() <= 0 {
		if err := e.SetStatus(ctx, userID, types.LoanStatusPaid); err != nil {
			return model.Loan{}, err
		}
		l.Status = types.LoanStatusPaid
		l.Principal = decimal.Zero
		l.LastPaidAt = now
		return l, nil
	}

	_, err = e.pool.Exec(ctx,
		`UPDATE loans SET principal = $2, last_paid_at = $3 WHERE user_id = $1`,
		userID, remainingTotal, now)
	if err != nil {
		return model.Loan{}, coreerr.Wrap(coreerr.DatabaseError, "loans: repay update", err)
	}

	l.Principal = remainingTotal
	l.LastPaidAt = now
	return l, nil
}
