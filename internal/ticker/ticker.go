// Package ticker resolves symbol → price, grounded on the original
// source's ticker_service.rs searchSymbol cache-miss fallback, and on
// the teacher's internal/broker Adapter split for mock vs live
// transport.
package ticker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exchangecore/internal/coreerr"
	"exchangecore/internal/model"
)

const cacheTTL = 60 * time.Second

var fallbackTrend = []decimal.Decimal{
	decimal.NewFromInt(120),
	decimal.NewFromInt(121),
	decimal.NewFromInt(122),
	decimal.NewFromInt(123),
	decimal.NewFromInt(124),
}

type cacheEntry struct {
	ticker model.Ticker
	stamp  time.Time
}

// Oracle resolves price_of(symbol), backed by a 60s cache and the
// stock_prices table. In mock mode it never issues a query and always
// returns the synthetic fallback trend.
type Oracle struct {
	pool *pgxpool.Pool
	mock bool

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func New(pool *pgxpool.Pool, mock bool) *Oracle {
	return &Oracle{
		pool:  pool,
		mock:  mock,
		cache: make(map[string]cacheEntry),
	}
}

// PriceOf returns the cached ticker if fresh, otherwise reads the five
// most recent closes for symbol and refreshes the cache. Empty result
// sets and query failures both fall back to the synthetic trend
// silently; only a context cancellation/deadline is surfaced as a
// Transport error, since the caller (OrderRegistry.place) must always
// have a usable price to proceed.
func (o *Oracle) PriceOf(ctx context.Context, symbol string) (model.Ticker, error) {
	if t, ok := o.fromCache(symbol); ok {
		return t, nil
	}

	trend := fallbackTrend
	if !o.mock {
		rows, err := o.pool.Query(ctx,
			`SELECT close FROM stock_prices WHERE ticker = $1 ORDER BY time DESC LIMIT 5`,
			symbol)
		if err != nil {
			if ctx.Err() != nil {
				return model.Ticker{}, coreerr.Wrap(coreerr.Transport, "ticker: query canceled", err)
			}
			slog.Warn("ticker: query failed, using fallback trend", "symbol", symbol, "error", err)
		} else {
			defer rows.Close()
			var closes []decimal.Decimal
			for rows.Next() {
				var c decimal.Decimal
				if scanErr := rows.Scan(&c); scanErr != nil {
					slog.Warn("ticker: scan failed, using fallback trend", "symbol", symbol, "error", scanErr)
					closes = nil
					break
				}
				closes = append(closes, c)
			}
			if rows.Err() != nil {
				slog.Warn("ticker: row iteration failed, using fallback trend", "symbol", symbol, "error", rows.Err())
				closes = nil
			}
			if len(closes) > 0 {
				trend = closes
			}
		}
	}

	t := model.Ticker{
		Symbol:        symbol,
		PricePerShare: trend[0],
		Trend:         trend,
	}
	o.store(symbol, t)
	return t, nil
}

func (o *Oracle) fromCache(symbol string) (model.Ticker, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	e, ok := o.cache[symbol]
	if !ok || time.Since(e.stamp) > cacheTTL {
		return model.Ticker{}, false
	}
	return e.ticker, true
}

func (o *Oracle) store(symbol string, t model.Ticker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache[symbol] = cacheEntry{ticker: t, stamp: time.Now()}
}
