package ticker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPriceOf_MockFallback(t *testing.T) {
	o := New(nil, true)

	got, err := o.PriceOf(context.Background(), "ACME")
	require.NoError(t, err)
	require.True(t, got.PricePerShare.Equal(decimal.NewFromInt(120)))
	require.Len(t, got.Trend, 5)
	require.True(t, got.Trend[0].Equal(decimal.NewFromInt(120)))
	require.True(t, got.Trend[4].Equal(decimal.NewFromInt(124)))
}

func TestPriceOf_CachesWithinTTL(t *testing.T) {
	o := New(nil, true)
	ctx := context.Background()

	first, err := o.PriceOf(ctx, "ACME")
	require.NoError(t, err)

	_, ok := o.fromCache("ACME")
	require.True(t, ok)

	second, err := o.PriceOf(ctx, "ACME")
	require.NoError(t, err)
	require.True(t, first.PricePerShare.Equal(second.PricePerShare))
}
