package domain

import "fmt"

// RouteKind tags a route with its liquidity source.
type RouteKind string

// Route kind constants.
const (
	RouteAMM       RouteKind = "AMM"
	RouteOrderbook RouteKind = "ORDERBOOK"
)

// AmmRouteDetail is the pool leg of a hybrid trade.
type AmmRouteDetail struct {
	PoolID string // pool to swap against
}

// BookRouteDetail is the order-book leg of a hybrid trade.
type BookRouteDetail struct {
	PairID string    // pair to trade on
	Side   OrderSide // BUY | SELL from the trader's perspective
	Type   OrderType // LIMIT | MARKET
	Price  int64     // required for LIMIT, 0 for MARKET
}

// Route is one liquidity source and the percentage of a hybrid trade's input
// allocated to it. Exactly one of Amm or Book is set based on Kind.
// Transient: produced by the aggregator, consumed once by settlement.
type Route struct {
	Kind    RouteKind
	Percent int64 // 0-100; all routes of one trade sum to 100
	Amm     *AmmRouteDetail
	Book    *BookRouteDetail
}

// NewAmmRoute builds an AMM route.
func NewAmmRoute(percent int64, poolID string) Route {
	return Route{Kind: RouteAMM, Percent: percent, Amm: &AmmRouteDetail{PoolID: poolID}}
}

// NewBookRoute builds an order-book route.
func NewBookRoute(percent int64, pairID string, side OrderSide, typ OrderType, price int64) Route {
	return Route{
		Kind:    RouteOrderbook,
		Percent: percent,
		Book:    &BookRouteDetail{PairID: pairID, Side: side, Type: typ, Price: price},
	}
}

// Validate checks that the route carries exactly the detail its kind
// requires and a sane allocation.
func (r *Route) Validate() error {
	if r.Percent <= 0 || r.Percent > 100 {
		return fmt.Errorf("route percent %d out of range (0,100]", r.Percent)
	}
	switch r.Kind {
	case RouteAMM:
		if r.Amm == nil || r.Book != nil {
			return fmt.Errorf("AMM route must carry pool detail only")
		}
		if r.Amm.PoolID == "" {
			return fmt.Errorf("AMM route missing pool id")
		}
	case RouteOrderbook:
		if r.Book == nil || r.Amm != nil {
			return fmt.Errorf("orderbook route must carry pair detail only")
		}
		if r.Book.PairID == "" {
			return fmt.Errorf("orderbook route missing pair id")
		}
		if r.Book.Type == TypeLimit && r.Book.Price <= 0 {
			return fmt.Errorf("limit route requires a positive price")
		}
	default:
		return fmt.Errorf("unknown route kind %q", r.Kind)
	}
	return nil
}

// ValidateRoutes checks each route and that allocations sum to 100.
func ValidateRoutes(routes []Route) error {
	if len(routes) == 0 {
		return fmt.Errorf("no routes")
	}
	var sum int64
	for i := range routes {
		if err := routes[i].Validate(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		sum += routes[i].Percent
	}
	if sum != 100 {
		return fmt.Errorf("route allocations sum to %d, want 100", sum)
	}
	return nil
}
