package marketmaker

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBridge_EndsExactlyAtTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	start := decimal.NewFromInt(100)
	target := decimal.NewFromInt(150)

	path := bridge(start, target, rng)
	require.Len(t, path, timeStep+1)

	last, _ := path[timeStep].Float64()
	want, _ := target.Float64()
	require.InDelta(t, want, last, 1e-6)
}

func TestBridge_StartsNearStart(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	start := decimal.NewFromInt(100)
	target := decimal.NewFromInt(100)

	path := bridge(start, target, rng)
	first, _ := path[0].Float64()
	require.InDelta(t, 100.0, first, 1e-9)
	// With identical start/target, drift correction is scaled by i/N
	// but the path is still a bridge around ln(100); every sample must
	// be strictly positive.
	for _, p := range path {
		v, _ := p.Float64()
		require.Greater(t, v, 0.0)
		require.False(t, math.IsNaN(v))
	}
}
