package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/model"
	"exchangecore/internal/types"
)

func order(id, user, symbol string, side types.OrderSide, qty, price int64) model.Order {
	return model.Order{
		OrderID:       id,
		UserID:        user,
		Symbol:        symbol,
		Side:          side,
		Quantity:      decimal.NewFromInt(qty),
		PricePerShare: decimal.NewFromInt(price),
		Status:        types.OrderStatusPending,
	}
}

func TestBooks_NoCrossWhenOneSideEmpty(t *testing.T) {
	bs := NewBooks()
	bs.Insert(order("b1", "u1", "ACME", types.OrderSideBuy, 10, 100))

	crosses := bs.CollectCrosses()
	require.Empty(t, crosses)
}

func TestBooks_CrossAtEqualPrice(t *testing.T) {
	bs := NewBooks()
	bs.Insert(order("b1", "buyer", "ACME", types.OrderSideBuy, 10, 100))
	bs.Insert(order("s1", "seller", "ACME", types.OrderSideSell, 10, 100))

	crosses := bs.CollectCrosses()
	require.Len(t, crosses, 1)
	require.Equal(t, "b1", crosses[0].BuyID)
	require.Equal(t, "s1", crosses[0].SellID)
	require.True(t, crosses[0].Quantity.Equal(decimal.NewFromInt(10)))
}

func TestBooks_NoCrossWhenBidBelowAsk(t *testing.T) {
	bs := NewBooks()
	bs.Insert(order("b1", "buyer", "ACME", types.OrderSideBuy, 10, 99))
	bs.Insert(order("s1", "seller", "ACME", types.OrderSideSell, 10, 100))

	require.Empty(t, bs.CollectCrosses())
}

func TestBooks_PriceTimePriorityFIFO(t *testing.T) {
	bs := NewBooks()
	bs.Insert(order("b1", "first", "ACME", types.OrderSideBuy, 5, 100))
	bs.Insert(order("b2", "second", "ACME", types.OrderSideBuy, 5, 100))
	bs.Insert(order("s1", "seller", "ACME", types.OrderSideSell, 5, 100))

	crosses := bs.CollectCrosses()
	require.Len(t, crosses, 1)
	require.Equal(t, "b1", crosses[0].BuyID, "earlier order at same price level must be matched first")
}

func TestBooks_PruneDropsExhaustedOrderAndLevel(t *testing.T) {
	bs := NewBooks()
	bs.Insert(order("b1", "buyer", "ACME", types.OrderSideBuy, 10, 100))
	bs.Insert(order("s1", "seller", "ACME", types.OrderSideSell, 10, 100))

	bs.Prune(
		map[string]decimal.Decimal{"b1": decimal.NewFromInt(10)},
		map[string]decimal.Decimal{"s1": decimal.NewFromInt(10)},
	)

	require.Empty(t, bs.CollectCrosses())
}

func TestBooks_PrunePartialFillLeavesRemainder(t *testing.T) {
	bs := NewBooks()
	bs.Insert(order("b1", "buyer", "ACME", types.OrderSideBuy, 10, 100))
	bs.Insert(order("s1", "seller", "ACME", types.OrderSideSell, 4, 100))

	bs.Prune(
		map[string]decimal.Decimal{"b1": decimal.NewFromInt(4)},
		map[string]decimal.Decimal{"s1": decimal.NewFromInt(4)},
	)

	// seller's order fully consumed; buyer has 6 left but no counterparty now.
	require.Empty(t, bs.CollectCrosses())

	bs.Insert(order("s2", "seller2", "ACME", types.OrderSideSell, 6, 100))
	crosses := bs.CollectCrosses()
	require.Len(t, crosses, 1)
	require.True(t, crosses[0].Quantity.Equal(decimal.NewFromInt(6)))
}
