package domain

// Trade is the append-only record of one match between a taker and a maker
// order. Immutable once created. Price is the maker's resting price; Total
// is price * quantity / 10^baseDecimals, truncated.
type Trade struct {
	ID           string    // deterministic hash
	PairID       string    // FK to trading_pairs
	Price        int64     // quote smallest units per base token unit
	Quantity     int64     // base smallest units
	Total        int64     // quote smallest units
	MakerOrderID string    // resting order
	TakerOrderID string    // aggressing order
	MakerAccount string    // maker owner
	TakerAccount string    // taker owner
	TakerSide    OrderSide // side of the aggressing order
	Timestamp    int64     // Unix timestamp in milliseconds
}
