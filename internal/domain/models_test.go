package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoldings_Total(t *testing.T) {
	h := Holdings{"ETH": 7500, "USDC": 2500}
	assert.Equal(t, 10000.0, h.Total())
	assert.ElementsMatch(t, []string{"ETH", "USDC"}, h.Symbols())
}

func TestTruncateToDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2024, 3, 10, 1, 30, 0, 0, loc) // 2024-03-09 23:30 UTC

	got := TruncateToDay(in)

	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), got)
}
