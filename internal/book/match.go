package book

import "github.com/FutureShockco/meeray-sub006/internal/domain"

// Fill is one match between an incoming taker and a resting maker. The
// trade executes at the maker's price; price never moves against the
// resting side.
type Fill struct {
	Maker    *domain.Order
	Price    int64
	Quantity int64
}

// Match executes an incoming order against the opposing side.
//
// A LIMIT taker matches while its price crosses the best opposing price
// (BUY price >= best ask, SELL price <= best bid). A MARKET taker matches
// against the best available prices in sequence until filled or liquidity
// is exhausted, ignoring any limit price. Each match consumes
// min(remainingTaker, remainingMaker) at the maker's price; ties at one
// price are broken strictly by arrival order.
//
// Match updates Filled on both taker and makers and removes fully filled
// makers from the book. It never rests the taker; the caller decides what
// to do with an unfilled remainder.
func (b *Book) Match(taker *domain.Order) []Fill {
	var fills []Fill

	for taker.Remaining() > 0 {
		level := b.bestOpposing(taker)
		if level == nil {
			break
		}

		// consume the level FIFO; an exactly exhausted level advances to the
		// next one within this same call
		for taker.Remaining() > 0 && len(level.orders) > 0 {
			maker := level.orders[0]

			qty := taker.Remaining()
			if maker.Remaining() < qty {
				qty = maker.Remaining()
			}

			taker.Filled += qty
			maker.Filled += qty
			fills = append(fills, Fill{Maker: maker, Price: level.price, Quantity: qty})

			if maker.Remaining() == 0 {
				level.orders = level.orders[1:]
				delete(b.orders, maker.ID)
			}
		}

		if len(level.orders) == 0 {
			b.deleteLevel(opposite(taker.Side), level.price)
		}
	}

	return fills
}

// bestOpposing returns the best opposing level the taker may trade with, or
// nil when the book no longer crosses.
func (b *Book) bestOpposing(taker *domain.Order) *priceLevel {
	if taker.Side == domain.SideBuy {
		if b.asks.Len() == 0 {
			return nil
		}
		level := b.asks.Min().(*askItem).level
		if taker.Type == domain.TypeLimit && taker.Price < level.price {
			return nil
		}
		return level
	}

	if b.bids.Len() == 0 {
		return nil
	}
	level := b.bids.Min().(*bidItem).level
	if taker.Type == domain.TypeLimit && taker.Price > level.price {
		return nil
	}
	return level
}

func opposite(side domain.OrderSide) domain.OrderSide {
	if side == domain.SideBuy {
		return domain.SideSell
	}
	return domain.SideBuy
}
