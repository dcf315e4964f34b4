package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost(t *testing.T) {
	// 1000 prompt tokens at $0.15/1K plus 500 completion tokens at $0.60/1K.
	cost := EstimateCost("gpt-4o-mini", 1000, 500)
	assert.Equal(t, 0.45, cost)
}

func TestEstimateCostUnknownModelFallsBack(t *testing.T) {
	cost := EstimateCost("some-future-model", 1000, 1000)
	assert.Equal(t, 4.0, cost)
}

func TestEstimateCostZeroTokens(t *testing.T) {
	assert.Equal(t, 0.0, EstimateCost("gpt-4o", 0, 0))
}

func TestEstimateCostRounding(t *testing.T) {
	// 7 prompt tokens at $0.15/1K is 0.00105, 3 completion tokens at
	// $0.60/1K is 0.0018; the sum rounds cleanly at six decimals.
	cost := EstimateCost("gpt-4o-mini", 7, 3)
	assert.Equal(t, 0.00285, cost)
}
