// Package book implements the in-memory, per-symbol price-time-priority
// order book from spec.md §4.5, grounded on saiputravu-Exchange's
// internal/engine/orderbook.go use of github.com/tidwall/btree for
// price-ordered levels — adapted from that engine's self-matching
// BTreeG into a pure book (insert/prune/best_cross) whose crossing and
// settlement live in the matching package, since settlement here must
// go through AccountLedger/PortfolioLedger rather than an in-process
// trade callback.
package book

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"exchangecore/internal/model"
	"exchangecore/internal/types"
)

// level holds every resting order at one price, FIFO by arrival.
type level struct {
	price  decimal.Decimal
	orders []model.Order
}

type levels = btree.BTreeG[*level]

// Book is one symbol's order book: two price-ordered maps of FIFO
// queues, buys descending so the best bid is the tree minimum, sells
// ascending so the best ask is the tree minimum.
type Book struct {
	buys  *levels
	sells *levels
}

func newBook() *Book {
	return &Book{
		buys: btree.NewBTreeG(func(a, b *level) bool {
			return a.price.GreaterThan(b.price)
		}),
		sells: btree.NewBTreeG(func(a, b *level) bool {
			return a.price.LessThan(b.price)
		}),
	}
}

func (b *Book) tree(o model.Order) *levels {
	if o.Side == types.OrderSideBuy {
		return b.buys
	}
	return b.sells
}

// insert appends order to the FIFO queue at its price, creating the
// level if absent. Caller must hold the Books write lock.
func (b *Book) insert(o model.Order) {
	t := b.tree(o)
	key := &level{price: o.PricePerShare}
	existing, ok := t.Get(key)
	if !ok {
		existing = &level{price: o.PricePerShare}
		t.Set(existing)
	}
	existing.orders = append(existing.orders, o)
}

// Cross is one candidate fill collected under a shared read lock.
type Cross struct {
	Symbol    string
	BuyID     string
	SellID    string
	BuyUser   string
	SellUser  string
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	Quantity  decimal.Decimal
}

// bestCross returns the top-of-book pair if both sides are non-empty
// and the best bid is at least the best ask. Caller must hold a read
// lock.
func (b *Book) bestCross(symbol string) (Cross, bool) {
	buyLevel, ok := b.buys.Min()
	if !ok {
		return Cross{}, false
	}
	sellLevel, ok := b.sells.Min()
	if !ok {
		return Cross{}, false
	}
	if buyLevel.price.LessThan(sellLevel.price) {
		return Cross{}, false
	}
	if len(buyLevel.orders) == 0 || len(sellLevel.orders) == 0 {
		return Cross{}, false
	}
	buyOrder := buyLevel.orders[0]
	sellOrder := sellLevel.orders[0]
	qty := decimal.Min(buyOrder.Quantity, sellOrder.Quantity)
	return Cross{
		Symbol:    symbol,
		BuyID:     buyOrder.OrderID,
		SellID:    sellOrder.OrderID,
		BuyUser:   buyOrder.UserID,
		SellUser:  sellOrder.UserID,
		BuyPrice:  buyOrder.PricePerShare,
		SellPrice: sellOrder.PricePerShare,
		Quantity:  qty,
	}, true
}

// applyFill subtracts qty from the named order id wherever it sits in
// this book, dropping the order when its remaining quantity reaches
// zero and dropping the price level when it empties. Caller must hold
// the Books write lock. No-op if the id is not found (already pruned
// or never existed, e.g. a duplicate success report).
func (b *Book) applyFill(side types.OrderSide, orderID string, qty decimal.Decimal) {
	t := b.sideTree(side)
	var emptyLevels []*level
	t.Scan(func(lv *level) bool {
		for i := range lv.orders {
			if lv.orders[i].OrderID != orderID {
				continue
			}
			lv.orders[i].Quantity = lv.orders[i].Quantity.Sub(qty)
			if lv.orders[i].Quantity.Sign() <= 0 {
				lv.orders = append(lv.orders[:i], lv.orders[i+1:]...)
			}
			if len(lv.orders) == 0 {
				emptyLevels = append(emptyLevels, lv)
			}
			return false
		}
		return true
	})
	for _, lv := range emptyLevels {
		t.Delete(lv)
	}
}

func (b *Book) sideTree(side types.OrderSide) *levels {
	if side == types.OrderSideBuy {
		return b.buys
	}
	return b.sells
}

// Books is the symbol -> Book map behind a single readers-writer lock
// spanning all symbols, per spec.md §5: writers take it exclusively,
// CollectCrosses takes it shared.
type Books struct {
	mu   sync.RWMutex
	byID map[string]*Book
}

func NewBooks() *Books {
	return &Books{byID: make(map[string]*Book)}
}

func (bs *Books) bookFor(symbol string) *Book {
	if bk, ok := bs.byID[symbol]; ok {
		return bk
	}
	bk := newBook()
	bs.byID[symbol] = bk
	return bk
}

// Insert adds order to its symbol's book, creating the book if this is
// the first order for that symbol.
func (bs *Books) Insert(o model.Order) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.bookFor(o.Symbol).insert(o)
}

// CollectCrosses returns every symbol's top-of-book cross (if any)
// under a single shared read lock, per spec.md §4.6 step 1.
func (bs *Books) CollectCrosses() []Cross {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	var out []Cross
	for symbol, bk := range bs.byID {
		if c, ok := bk.bestCross(symbol); ok {
			out = append(out, c)
		}
	}
	return out
}

// Prune applies the accumulated successful buy/sell fill quantities
// under a single exclusive write lock, per spec.md §4.6 step 3.
func (bs *Books) Prune(successfulBuys, successfulSells map[string]decimal.Decimal) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	for _, bk := range bs.byID {
		for id, qty := range successfulBuys {
			bk.applyFill(types.OrderSideBuy, id, qty)
		}
		for id, qty := range successfulSells {
			bk.applyFill(types.OrderSideSell, id, qty)
		}
	}
}
