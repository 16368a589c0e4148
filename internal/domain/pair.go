package domain

// PairStatus is the lifecycle state of a trading pair.
type PairStatus string

// Pair status constants.
const (
	PairStatusTrading PairStatus = "TRADING"
	PairStatusHalted  PairStatus = "HALTED"
)

// TradingPair identifies a base/quote instrument.
// Created once at pool-creation time, read-mostly afterward.
// TickSize and LotSize are positive integers in the respective token's
// smallest unit.
type TradingPair struct {
	ID          string     // "<base>_<quote>"
	BaseSymbol  string     // traded token
	QuoteSymbol string     // pricing token
	TickSize    int64      // minimum price increment (quote smallest units)
	LotSize     int64      // minimum quantity increment (base smallest units)
	MinNotional int64      // minimum trade value (quote smallest units)
	Status      PairStatus // TRADING | HALTED
	CreatedAt   int64      // record creation timestamp (ms)
}

// PairID builds the canonical pair id for a base/quote combination.
func PairID(baseSymbol, quoteSymbol string) string {
	return baseSymbol + "_" + quoteSymbol
}
