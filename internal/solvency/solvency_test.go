package solvency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCreditScore_ZeroLiabilities(t *testing.T) {
	score := CreditScore(decimal.NewFromInt(500), decimal.Zero)
	require.True(t, score.Equal(decimal.NewFromInt(100)))
}

func TestCreditScore_ClampedAt100(t *testing.T) {
	score := CreditScore(decimal.NewFromInt(10_000), decimal.NewFromInt(10))
	require.True(t, score.Equal(decimal.NewFromInt(100)))
}

func TestCreditScore_BelowBankruptcyThreshold(t *testing.T) {
	// assets=100, liabilities=1000 => (100-1000)/1000 = -0.9, well below 25.
	score := CreditScore(decimal.NewFromInt(100), decimal.NewFromInt(1000))
	require.True(t, score.LessThan(decimal.NewFromInt(bankruptcyThreshold)))
}
