// Package model holds the entities shared by the exchange core's
// services: persisted rows and the in-memory order-book clone of an
// order. See spec.md §3 for the authoritative field list.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"exchangecore/internal/types"
)

// User is created on first authentication callback, or upserted as
// the fixed system user at bootstrap. Never deleted in normal operation.
type User struct {
	UserID      string
	AuthID      string
	DisplayName string
	Email       string
}

// Order is owned by the OrderRegistry and persisted; the in-memory
// OrderBook holds a clone that is kept in sync on every partial fill.
type Order struct {
	OrderID       string
	UserID        string
	Symbol        string
	Quantity      decimal.Decimal
	PricePerShare decimal.Decimal
	Side          types.OrderSide
	Status        types.OrderStatus
	CreatedAt     time.Time
}

// Clone returns a value copy suitable for inserting into the in-memory
// order book without sharing mutable state with the registry's copy.
func (o Order) Clone() Order {
	return o
}

// Ticker is the resolved price_of(symbol) result: current price plus
// up to 5 trailing close prices, most recent first.
type Ticker struct {
	Symbol        string
	PricePerShare decimal.Decimal
	Trend         []decimal.Decimal
}

// Loan is the single non-terminal-loan-per-user credit line.
type Loan struct {
	LoanID       string
	UserID       string
	Principal    decimal.Decimal
	InterestRate decimal.Decimal // annual, percent, e.g. 5 for 5%
	Status       types.LoanStatus
	CreatedAt    time.Time
	LastPaidAt   time.Time
}

// Transaction is an append-only ledger entry written once per executed
// fill.
type Transaction struct {
	ID            string
	UserID        string
	Symbol        string
	Side          types.OrderSide
	Quantity      decimal.Decimal
	PricePerShare decimal.Decimal
	ExecutedAt    time.Time
}

// PortfolioPosition is the unique (user, symbol) holdings row.
type PortfolioPosition struct {
	UserID    string
	Symbol    string
	Quantity  decimal.Decimal
	CostBasis decimal.Decimal
	CreatedAt time.Time
}

// Session is the auth session backing the session_id cookie.
type Session struct {
	SessionID string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}
