// Package matching implements the MatchingEngine and its settle
// routine from spec.md §4.6/§4.7, grounded on the original source's
// order_matchbook_service.rs (read-lock collect / release / settle /
// write-lock prune loop) and trade_service.rs's execute_order
// sequence. Settlement of a crossed pair is intentionally NOT atomic
// across the two legs: each leg is an independent row-level operation
// against AccountLedger/PortfolioLedger, matching the known limitation
// spec.md §9 calls out rather than "fixing" it with a cross-service
// transaction.
package matching

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"exchangecore/internal/book"
	"exchangecore/internal/coreerr"
	"exchangecore/internal/feed"
	"exchangecore/internal/ledger"
	"exchangecore/internal/orders"
	"exchangecore/internal/portfolio"
	"exchangecore/internal/txlog"
	"exchangecore/internal/types"
)

type Engine struct {
	books     *book.Books
	orders    *orders.Registry
	ledger    *ledger.Ledger
	portfolio *portfolio.Portfolio
	txlog     *txlog.Log
	feed      *feed.Bus
	interval  time.Duration
}

func New(books *book.Books, o *orders.Registry, l *ledger.Ledger, p *portfolio.Portfolio, t *txlog.Log, f *feed.Bus, interval time.Duration) *Engine {
	return &Engine{books: books, orders: o, ledger: l, portfolio: p, txlog: t, feed: f, interval: interval}
}

// Run blocks, ticking every interval until ctx is canceled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	crosses := e.books.CollectCrosses()
	if len(crosses) == 0 {
		return
	}

	successfulBuys := make(map[string]decimal.Decimal)
	successfulSells := make(map[string]decimal.Decimal)

	for _, c := range crosses {
		if err := e.settle(ctx, c.BuyID, c.Quantity); err != nil {
			slog.Warn("matching: settle buy leg failed", "order_id", c.BuyID, "error", err)
		} else {
			successfulBuys[c.BuyID] = successfulBuys[c.BuyID].Add(c.Quantity)
		}

		if err := e.settle(ctx, c.SellID, c.Quantity); err != nil {
			slog.Warn("matching: settle sell leg failed", "order_id", c.SellID, "error", err)
		} else {
			successfulSells[c.SellID] = successfulSells[c.SellID].Add(c.Quantity)
		}
	}

	e.books.Prune(successfulBuys, successfulSells)
}

// settle executes spec.md §4.7's five steps for one order leg.
func (e *Engine) settle(ctx context.Context, orderID string, qty decimal.Decimal) error {
	o, err := e.orders.LoadForSettlement(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != types.OrderStatusPending || o.Quantity.LessThan(qty) || qty.Sign() <= 0 {
		return coreerr.New(coreerr.InvalidOrderStatus, "order not eligible for settlement")
	}

	gross := o.PricePerShare.Mul(qty)

	switch o.Side {
	case types.OrderSideBuy:
		if err := e.ledger.SettleDebit(ctx, o.UserID, gross); err != nil {
			return err
		}
		if err := e.portfolio.Add(ctx, o.UserID, o.Symbol, qty, gross); err != nil {
			return err
		}
	case types.OrderSideSell:
		if err := e.portfolio.Remove(ctx, o.UserID, o.Symbol, qty); err != nil {
			return err
		}
		if err := e.ledger.Credit(ctx, o.UserID, gross); err != nil {
			return err
		}
	}

	if err := e.txlog.Append(ctx, o.UserID, o.Symbol, o.Side, qty, o.PricePerShare, time.Now()); err != nil {
		return err
	}

	if e.feed != nil {
		e.feed.Publish(feed.Event{Type: "fill", Data: fillEvent{
			OrderID: orderID, Symbol: o.Symbol, Side: o.Side,
			Quantity: qty, PricePerShare: o.PricePerShare,
		}})
	}

	return e.orders.SettleQuantity(ctx, orderID, qty)
}

type fillEvent struct {
	OrderID       string          `json:"order_id"`
	Symbol        string          `json:"symbol"`
	Side          types.OrderSide `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
}
