package domain

// OrderSide is the direction of an order.
type OrderSide string

// Order side constants.
const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType distinguishes resting-capable orders from immediate ones.
type OrderType string

// Order type constants.
const (
	TypeLimit  OrderType = "LIMIT"
	TypeMarket OrderType = "MARKET"
)

// OrderStatus is the lifecycle state of an order. Transitions only move
// forward: OPEN -> PARTIALLY_FILLED -> FILLED, or -> CANCELLED from any
// non-terminal state. FILLED and CANCELLED are terminal.
type OrderStatus string

// Order status constants.
const (
	StatusOpen            OrderStatus = "OPEN"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
)

// Order is a resting or incoming order on a trading pair. Prices and
// quantities are integers in smallest units; Price is zero for MARKET
// orders. Mutated only by the matching engine.
type Order struct {
	ID        string      // deterministic hash
	PairID    string      // FK to trading_pairs
	Account   string      // owning account
	Side      OrderSide   // BUY | SELL
	Type      OrderType   // LIMIT | MARKET
	Price     int64       // quote smallest units per base token unit (0 for MARKET)
	Quantity  int64       // base smallest units
	Filled    int64       // base smallest units, never exceeds Quantity
	Status    OrderStatus // lifecycle state
	CreatedAt int64       // Unix timestamp in milliseconds
	UpdatedAt int64       // Unix timestamp in milliseconds
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.Filled
}

// IsTerminal reports whether the order can no longer change state.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusFilled || o.Status == StatusCancelled
}

// Copy returns a detached copy of the order.
func (o *Order) Copy() *Order {
	c := *o
	return &c
}
