// Package bootstrap implements the BootstrapCoordinator from spec.md
// §4.11: system-user seeding, loading pending orders into the
// in-memory books, initializing the market maker's price paths, and
// spawning the long-running matching/market-maker loops. Grounded on
// the teacher's cmd/api/main.go wiring/startup sequence.
package bootstrap

import (
	"context"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exchangecore/internal/book"
	"exchangecore/internal/ledger"
	"exchangecore/internal/marketmaker"
	"exchangecore/internal/matching"
	"exchangecore/internal/orders"
	"exchangecore/internal/portfolio"
)

// AcceptableSymbols is the fixed set of symbols the system user is
// seeded for and the market maker quotes.
var AcceptableSymbols = []string{"ACME", "GLBX", "NVX", "TSL8", "UMBR"}

const systemBootstrapCash = "100000000"
const systemBootstrapShares = "1000000"

type Coordinator struct {
	pool        *pgxpool.Pool
	ledger      *ledger.Ledger
	portfolio   *portfolio.Portfolio
	orders      *orders.Registry
	books       *book.Books
	matching    *matching.Engine
	marketMaker *marketmaker.Maker
	systemUser  string
}

func New(pool *pgxpool.Pool, l *ledger.Ledger, p *portfolio.Portfolio, o *orders.Registry, b *book.Books, m *matching.Engine, mm *marketmaker.Maker, systemUserID string) *Coordinator {
	return &Coordinator{
		pool: pool, ledger: l, portfolio: p, orders: o, books: b,
		matching: m, marketMaker: mm, systemUser: systemUserID,
	}
}

// Run performs the startup sequence and spawns the matching and
// market-maker loops, returning once they are both running in the
// background under ctx.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.ensureSystemUser(ctx); err != nil {
		return err
	}
	if err := c.seedSystemUser(ctx); err != nil {
		return err
	}
	if err := c.loadPendingOrders(ctx); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	startPrices := make(map[string]decimal.Decimal)
	for _, symbol := range AcceptableSymbols {
		startPrices[symbol] = c.storedStartPrice(ctx, symbol)
	}
	if err := c.marketMaker.Initialize(ctx, startPrices, rng); err != nil {
		return err
	}

	go c.matching.Run(ctx)
	go c.marketMaker.Run(ctx)
	return nil
}

func (c *Coordinator) ensureSystemUser(ctx context.Context) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO users (user_id, auth_user_id, username, email, balance, available_balance)
		 VALUES ($1, 'system', 'Market Maker', 'system@exchangecore.local', 0, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		c.systemUser)
	return err
}

// seedSystemUser re-upserts the system user's cash and per-symbol
// holdings to their fixed bootstrap amounts on every start, rather
// than adding to whatever survived the previous run (spec.md §4.11:
// "upsert the system user, credit it a large synthetic balance").
func (c *Coordinator) seedSystemUser(ctx context.Context) error {
	cash, err := decimal.NewFromString(systemBootstrapCash)
	if err != nil {
		return err
	}
	if err := c.ledger.Bootstrap(ctx, c.systemUser, cash); err != nil {
		return err
	}

	shares, err := decimal.NewFromString(systemBootstrapShares)
	if err != nil {
		return err
	}
	for _, symbol := range AcceptableSymbols {
		if err := c.portfolio.Set(ctx, c.systemUser, symbol, shares, decimal.Zero); err != nil {
			return err
		}
	}
	return nil
}

// storedStartPrice reads symbol's most recent close from stock_prices
// directly, bypassing the ticker oracle's cache/mock split, per
// spec.md §4.10's "start price from storage". Zero (meaning: fall back
// to the live market price) if the row is absent or the pool errors.
func (c *Coordinator) storedStartPrice(ctx context.Context, symbol string) decimal.Decimal {
	var close decimal.Decimal
	err := c.pool.QueryRow(ctx,
		`SELECT close FROM stock_prices WHERE ticker = $1 ORDER BY time DESC LIMIT 1`, symbol,
	).Scan(&close)
	if err != nil {
		return decimal.Zero
	}
	return close
}

func (c *Coordinator) loadPendingOrders(ctx context.Context) error {
	pending, err := c.orders.AllPending(ctx)
	if err != nil {
		return err
	}
	for _, o := range pending {
		c.books.Insert(o)
	}
	return nil
}
