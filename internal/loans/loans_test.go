package loans

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/model"
	"exchangecore/internal/types"
)

func TestCurrentBalance_CompoundsDaily(t *testing.T) {
	createdAt := time.Now().Add(-30 * 24 * time.Hour)
	l := model.Loan{
		Principal:    decimal.NewFromInt(100_000),
		InterestRate: decimal.NewFromInt(5),
		Status:       types.LoanStatusOngoing,
		LastPaidAt:   createdAt,
	}

	accrued, principal := CurrentBalance(l, createdAt.Add(30*24*time.Hour))
	require.True(t, principal.Equal(decimal.NewFromInt(100_000)))

	want := decimal.NewFromInt(100_000)
	factor := decimal.NewFromInt(1).Add(decimal.NewFromInt(5).Div(decimal.NewFromInt(365)))
	for i := 0; i < 30; i++ {
		want = want.Mul(factor)
	}
	want = want.Sub(decimal.NewFromInt(100_000))

	require.True(t, accrued.Equal(want), "accrued=%s want=%s", accrued, want)
	require.True(t, accrued.GreaterThan(decimal.Zero))
}

func TestCurrentBalance_ClampsNegativeDays(t *testing.T) {
	now := time.Now()
	l := model.Loan{
		Principal:    decimal.NewFromInt(100_000),
		InterestRate: decimal.NewFromInt(5),
		LastPaidAt:   now.Add(time.Hour), // clock skew: "last paid" in the future
	}

	accrued, principal := CurrentBalance(l, now)
	require.True(t, accrued.Equal(decimal.Zero))
	require.True(t, principal.Equal(decimal.NewFromInt(100_000)))
}
