// Package coreerr defines the closed set of error kinds the exchange
// core surfaces (spec.md §7) and their external status class, grounded
// on the original Rust source's TradeError/UserError enums translated
// into a Go sentinel-kind error rather than a trait hierarchy.
package coreerr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of recoverable error classes the core
// can return. Anything else is an opaque DatabaseError/Transport wrap.
type Kind int

const (
	// NotFound: missing user/order/loan.
	NotFound Kind = iota
	// InvalidAmount: qty <= 0 or amount <= 0.
	InvalidAmount
	// InsufficientFunds: reserve/settle predicate failure.
	InsufficientFunds
	// InsufficientHoldings: sell validation, portfolio remove.
	InsufficientHoldings
	// InvalidOrderStatus: malformed row or illegal transition.
	InvalidOrderStatus
	// OrderBookNotFound: top-of-book query on unknown symbol.
	OrderBookNotFound
	// NoMatchForOrder: matching loop found no cross (swallowed, logged).
	NoMatchForOrder
	// UserAlreadyHasLoan: duplicate loan request.
	UserAlreadyHasLoan
	// UserDoesNotHaveLoan: repay/get on missing loan.
	UserDoesNotHaveLoan
	// DatabaseError: persistence failure.
	DatabaseError
	// Transport: external service (ticker oracle) failure.
	Transport
	// CSRFMismatch: login state token missing, expired, or tampered.
	CSRFMismatch
	// MissingCookie: authenticated route called without a session cookie.
	MissingCookie
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidAmount:
		return "invalid_amount"
	case InsufficientFunds:
		return "insufficient_funds"
	case InsufficientHoldings:
		return "insufficient_holdings"
	case InvalidOrderStatus:
		return "invalid_order_status"
	case OrderBookNotFound:
		return "order_book_not_found"
	case NoMatchForOrder:
		return "no_match_for_order"
	case UserAlreadyHasLoan:
		return "user_already_has_loan"
	case UserDoesNotHaveLoan:
		return "user_does_not_have_loan"
	case DatabaseError:
		return "database_error"
	case Transport:
		return "transport_error"
	case CSRFMismatch:
		return "csrf_mismatch"
	case MissingCookie:
		return "missing_cookie"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with a human-readable message and, for
// DatabaseError/Transport, the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a sentinel error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds a DatabaseError or Transport error carrying the cause.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// As reports whether err is a *Error and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
