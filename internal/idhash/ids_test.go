package idhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderIDDeterministic(t *testing.T) {
	a := OrderID("MRY_TESTS", "alice", 100, 2, 1, 0)
	b := OrderID("MRY_TESTS", "alice", 100, 2, 1, 0)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// every input field contributes to the id
	assert.NotEqual(t, a, OrderID("MRY_TESTS", "alice", 100, 2, 1, 1))
	assert.NotEqual(t, a, OrderID("MRY_TESTS", "bob", 100, 2, 1, 0))
	assert.NotEqual(t, a, OrderID("MRY_TESTS", "alice", 101, 2, 1, 0))
}

func TestTradeIDDeterministic(t *testing.T) {
	a := TradeID("MRY_TESTS", "maker-1", "taker-1", 0)
	assert.Equal(t, a, TradeID("MRY_TESTS", "maker-1", "taker-1", 0))
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, TradeID("MRY_TESTS", "maker-1", "taker-1", 1))
	assert.NotEqual(t, a, TradeID("MRY_TESTS", "taker-1", "maker-1", 0))
}
