// Package orders implements the OrderRegistry from spec.md §4.4,
// grounded on the original source's order_management_service.rs and
// the teacher's pgx transaction-per-operation service style.
package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exchangecore/internal/book"
	"exchangecore/internal/coreerr"
	"exchangecore/internal/ledger"
	"exchangecore/internal/model"
	"exchangecore/internal/portfolio"
	"exchangecore/internal/ticker"
	"exchangecore/internal/types"
)

type Registry struct {
	pool      *pgxpool.Pool
	books     *book.Books
	ledger    *ledger.Ledger
	portfolio *portfolio.Portfolio
	ticker    *ticker.Oracle
}

func New(pool *pgxpool.Pool, books *book.Books, l *ledger.Ledger, p *portfolio.Portfolio, t *ticker.Oracle) *Registry {
	return &Registry{pool: pool, books: books, ledger: l, portfolio: p, ticker: t}
}

// Place validates, reserves/checks holdings, inserts into the
// in-memory book, then persists — in that order, per spec.md §4.4.
func (r *Registry) Place(ctx context.Context, userID, symbol string, qty decimal.Decimal, side types.OrderSide, explicitPrice *decimal.Decimal) (model.Order, error) {
	if qty.Sign() <= 0 {
		return model.Order{}, coreerr.New(coreerr.InvalidAmount, "quantity must be positive")
	}

	var price decimal.Decimal
	if explicitPrice != nil {
		if explicitPrice.Sign() <= 0 {
			return model.Order{}, coreerr.New(coreerr.InvalidAmount, "limit price must be positive")
		}
		price = *explicitPrice
	} else {
		t, err := r.ticker.PriceOf(ctx, symbol)
		if err != nil {
			return model.Order{}, err
		}
		price = t.PricePerShare
	}

	switch side {
	case types.OrderSideBuy:
		if err := r.ledger.Reserve(ctx, userID, qty.Mul(price)); err != nil {
			return model.Order{}, err
		}
	case types.OrderSideSell:
		held, err := r.portfolio.Holdings(ctx, userID, symbol)
		if err != nil {
			return model.Order{}, err
		}
		if held.LessThan(qty) {
			return model.Order{}, coreerr.New(coreerr.InsufficientHoldings, "insufficient holdings")
		}
	default:
		return model.Order{}, coreerr.New(coreerr.InvalidOrderStatus, "unknown order side")
	}

	o := model.Order{
		OrderID:       uuid.NewString(),
		UserID:        userID,
		Symbol:        symbol,
		Quantity:      qty,
		PricePerShare: price,
		Side:          side,
		Status:        types.OrderStatusPending,
		CreatedAt:     time.Now(),
	}

	r.books.Insert(o.Clone())

	_, err := r.pool.Exec(ctx,
		`INSERT INTO orders (order_id, user_id, ticker, quantity, price_per_share, order_type, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.OrderID, o.UserID, o.Symbol, o.Quantity, o.PricePerShare, o.Side, o.Status, o.CreatedAt)
	if err != nil {
		return model.Order{}, coreerr.Wrap(coreerr.DatabaseError, "orders: persist", err)
	}
	return o, nil
}

// Status returns order_id's status, scoped to user.
func (r *Registry) Status(ctx context.Context, orderID, userID string) (types.OrderStatus, error) {
	var status types.OrderStatus
	err := r.pool.QueryRow(ctx,
		`SELECT status FROM orders WHERE order_id = $1 AND user_id = $2`, orderID, userID,
	).Scan(&status)
	if err == pgx.ErrNoRows {
		return "", coreerr.New(coreerr.NotFound, "order not found")
	}
	if err != nil {
		return "", coreerr.Wrap(coreerr.DatabaseError, "orders: status", err)
	}
	return status, nil
}

// Get returns the full order row, scoped to user.
func (r *Registry) Get(ctx context.Context, orderID, userID string) (model.Order, error) {
	var o model.Order
	err := r.pool.QueryRow(ctx,
		`SELECT order_id, user_id, ticker, quantity, price_per_share, order_type, status, created_at
		 FROM orders WHERE order_id = $1 AND user_id = $2`, orderID, userID,
	).Scan(&o.OrderID, &o.UserID, &o.Symbol, &o.Quantity, &o.PricePerShare, &o.Side, &o.Status, &o.CreatedAt)
	if err == pgx.ErrNoRows {
		return model.Order{}, coreerr.New(coreerr.NotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, coreerr.Wrap(coreerr.DatabaseError, "orders: get", err)
	}
	return o, nil
}

// PendingFor returns every Pending order owned by user.
func (r *Registry) PendingFor(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, user_id, ticker, quantity, price_per_share, order_type, status, created_at
		 FROM orders WHERE user_id = $1 AND status = $2`, userID, types.OrderStatusPending)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.DatabaseError, "orders: pending_for", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.OrderID, &o.UserID, &o.Symbol, &o.Quantity, &o.PricePerShare, &o.Side, &o.Status, &o.CreatedAt); err != nil {
			return nil, coreerr.Wrap(coreerr.DatabaseError, "orders: pending_for scan", err)
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, coreerr.Wrap(coreerr.DatabaseError, "orders: pending_for rows", rows.Err())
	}
	return out, nil
}

// AllPending loads every Pending order across all users, used only by
// bootstrap to rebuild the in-memory books.
func (r *Registry) AllPending(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, user_id, ticker, quantity, price_per_share, order_type, status, created_at
		 FROM orders WHERE status = $1`, types.OrderStatusPending)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.DatabaseError, "orders: all_pending", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.OrderID, &o.UserID, &o.Symbol, &o.Quantity, &o.PricePerShare, &o.Side, &o.Status, &o.CreatedAt); err != nil {
			return nil, coreerr.Wrap(coreerr.DatabaseError, "orders: all_pending scan", err)
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, coreerr.Wrap(coreerr.DatabaseError, "orders: all_pending rows", rows.Err())
	}
	return out, nil
}

// Cancel is idempotent: no-op if the order is already Cancelled,
// otherwise transitions it to Cancelled. Reserved funds are NOT
// released (current design, see DESIGN.md Open Question decisions).
func (r *Registry) Cancel(ctx context.Context, orderID, userID string) error {
	status, err := r.Status(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if status == types.OrderStatusCancelled {
		return nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE order_id = $1 AND user_id = $2`,
		orderID, userID, types.OrderStatusCancelled)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "orders: cancel", err)
	}
	if tag.RowsAffected() == 0 {
		return coreerr.New(coreerr.NotFound, "order not found")
	}
	return nil
}

// CancelAll bulk-cancels every non-terminal order for user. Used by
// bankruptcy liquidation.
func (r *Registry) CancelAll(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE user_id = $1 AND status NOT IN ($2, $3)`,
		userID, types.OrderStatusCancelled, types.OrderStatusExecuted)
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "orders: cancel_all", err)
	}
	return nil
}

// SettleQuantity decrements the persisted order's quantity by qty, or
// marks it Executed if qty fully consumes it. Invoked by the matching
// package's settle routine.
func (r *Registry) SettleQuantity(ctx context.Context, orderID string, qty decimal.Decimal) error {
	var remaining decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT quantity FROM orders WHERE order_id = $1`, orderID).Scan(&remaining)
	if err == pgx.ErrNoRows {
		return coreerr.New(coreerr.NotFound, "order not found")
	}
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "orders: settle_quantity select", err)
	}

	if qty.LessThan(remaining) {
		_, err = r.pool.Exec(ctx, `UPDATE orders SET quantity = quantity - $2 WHERE order_id = $1`, orderID, qty)
	} else {
		_, err = r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE order_id = $1`, orderID, types.OrderStatusExecuted)
	}
	if err != nil {
		return coreerr.Wrap(coreerr.DatabaseError, "orders: settle_quantity update", err)
	}
	return nil
}

// LoadForSettlement fetches the order row for the settle() precondition
// check (status == Pending, order.qty >= qty).
func (r *Registry) LoadForSettlement(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.pool.QueryRow(ctx,
		`SELECT order_id, user_id, ticker, quantity, price_per_share, order_type, status, created_at
		 FROM orders WHERE order_id = $1`, orderID,
	).Scan(&o.OrderID, &o.UserID, &o.Symbol, &o.Quantity, &o.PricePerShare, &o.Side, &o.Status, &o.CreatedAt)
	if err == pgx.ErrNoRows {
		return model.Order{}, coreerr.New(coreerr.NotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, coreerr.Wrap(coreerr.DatabaseError, "orders: load_for_settlement", err)
	}
	return o, nil
}
