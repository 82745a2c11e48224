// Package marketmaker implements the GBM/Brownian-bridge quoting loop
// from spec.md §4.10, a redesign target: the original source's
// market_maker_service.rs is a non-functional stub, so this package is
// grounded on spec.md's own parameters. Sigma, spread, step count and
// quote size are fixed package constants; nothing is read from a
// config store.
package marketmaker

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"exchangecore/internal/feed"
	"exchangecore/internal/orders"
	"exchangecore/internal/ticker"
	"exchangecore/internal/types"
)

const (
	timeStep      = 1440
	stockQuantity = 100
	spread        = 0.005
	sigma         = 0.2
)

// Maker is the dedicated system user that quotes both sides of every
// acceptable symbol once per POST_INTERVAL.
type Maker struct {
	systemUserID string
	symbols      []string
	ticker       *ticker.Oracle
	orders       *orders.Registry
	feed         *feed.Bus
	interval     time.Duration

	mu    sync.RWMutex
	paths map[string][]decimal.Decimal
}

func New(systemUserID string, symbols []string, t *ticker.Oracle, o *orders.Registry, f *feed.Bus, interval time.Duration) *Maker {
	return &Maker{
		systemUserID: systemUserID,
		symbols:      symbols,
		ticker:       t,
		orders:       o,
		feed:         f,
		interval:     interval,
		paths:        make(map[string][]decimal.Decimal),
	}
}

// Initialize builds a TIME_STEP-long Brownian bridge per symbol,
// ending exactly at the live market price, starting from a provided
// storage price (or the market price if none is available).
func (m *Maker) Initialize(ctx context.Context, startPrices map[string]decimal.Decimal, rng *rand.Rand) error {
	for _, symbol := range m.symbols {
		t, err := m.ticker.PriceOf(ctx, symbol)
		if err != nil {
			return err
		}
		target := t.PricePerShare

		start, ok := startPrices[symbol]
		if !ok || start.Sign() <= 0 {
			start = target
		}

		path := bridge(start, target, rng)

		m.mu.Lock()
		m.paths[symbol] = path
		m.mu.Unlock()
	}
	return nil
}

// bridge generates a TIME_STEP-long Brownian bridge in log-price space
// from start to target, per spec.md §4.10: raw GBM increments with a
// linear drift correction so the last step lands exactly on ln(target).
func bridge(start, target decimal.Decimal, rng *rand.Rand) []decimal.Decimal {
	dt := 1.0 / float64(timeStep)
	stdDev := sigma * math.Sqrt(dt)

	startLn, _ := start.Float64()
	targetLn, _ := target.Float64()
	logStart := math.Log(startLn)
	logTarget := math.Log(targetLn)

	raw := make([]float64, timeStep+1)
	raw[0] = logStart
	for i := 1; i <= timeStep; i++ {
		raw[i] = raw[i-1] + rng.NormFloat64()*stdDev
	}

	drift := raw[timeStep] - logTarget
	out := make([]decimal.Decimal, timeStep+1)
	for i := 0; i <= timeStep; i++ {
		bridged := raw[i] - drift*float64(i)/float64(timeStep)
		out[i] = decimal.NewFromFloat(math.Exp(bridged))
	}
	return out
}

// targetAt returns the bridge value for the minute-of-day idx,
// defaulting to 120 on a miss (unknown symbol or empty path).
func (m *Maker) targetAt(symbol string, idx int) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.paths[symbol]
	if !ok || idx < 0 || idx >= len(path) {
		return decimal.NewFromInt(120)
	}
	return path[idx]
}

// Run blocks, posting a fresh two-sided quote for every symbol every
// POST_INTERVAL until ctx is canceled.
func (m *Maker) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.quote(ctx)
		}
	}
}

func (m *Maker) quote(ctx context.Context) {
	now := time.Now()
	idx := now.Hour()*60 + now.Minute()

	for _, symbol := range m.symbols {
		target := m.targetAt(symbol, idx)
		buyPrice := target.Mul(decimal.NewFromFloat(1 - spread))
		sellPrice := target.Mul(decimal.NewFromFloat(1 + spread))
		qty := decimal.NewFromInt(stockQuantity)

		if _, err := m.orders.Place(ctx, m.systemUserID, symbol, qty, types.OrderSideBuy, &buyPrice); err != nil {
			slog.Warn("marketmaker: buy quote failed", "symbol", symbol, "error", err)
		}
		if _, err := m.orders.Place(ctx, m.systemUserID, symbol, qty, types.OrderSideSell, &sellPrice); err != nil {
			slog.Warn("marketmaker: sell quote failed", "symbol", symbol, "error", err)
		}

		if m.feed != nil {
			m.feed.Publish(feed.Event{Type: "quote", Data: quoteEvent{
				Symbol: symbol, BuyPrice: buyPrice, SellPrice: sellPrice,
			}})
		}
	}
}

type quoteEvent struct {
	Symbol    string          `json:"symbol"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
}
