// Package book maintains per-pair resting orders with price-time priority.
// The book is a pure in-memory structure: it matches and mutates order fill
// state but persists nothing and settles nothing. Callers run it
// single-threaded; the replay driver guarantees one operation at a time.
package book

import (
	"github.com/google/btree"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
)

// priceLevel groups resting orders at one price, FIFO for time priority.
type priceLevel struct {
	price  int64
	orders []*domain.Order
}

// remaining sums the unfilled quantity at this level.
func (pl *priceLevel) remaining() int64 {
	var total int64
	for _, o := range pl.orders {
		total += o.Remaining()
	}
	return total
}

// bidItem orders levels by descending price (best bid first).
type bidItem struct {
	level *priceLevel
}

func (i *bidItem) Less(than btree.Item) bool {
	return i.level.price > than.(*bidItem).level.price
}

// askItem orders levels by ascending price (best ask first).
type askItem struct {
	level *priceLevel
}

func (i *askItem) Less(than btree.Item) bool {
	return i.level.price < than.(*askItem).level.price
}

// Book holds the two priority structures of one trading pair.
type Book struct {
	pairID string
	bids   *btree.BTree
	asks   *btree.BTree
	orders map[string]*domain.Order
}

// New creates an empty book for a pair.
func New(pairID string) *Book {
	return &Book{
		pairID: pairID,
		bids:   btree.New(32),
		asks:   btree.New(32),
		orders: make(map[string]*domain.Order),
	}
}

// PairID returns the pair this book belongs to.
func (b *Book) PairID() string {
	return b.pairID
}

// Rest places a LIMIT order on its side of the book. The order keeps its
// arrival position within its price level.
func (b *Book) Rest(o *domain.Order) {
	b.orders[o.ID] = o
	level := b.levelFor(o.Side, o.Price, true)
	level.orders = append(level.orders, o)
}

// Remove takes a resting order out of the book. Reports whether the order
// was present.
func (b *Book) Remove(orderID string) bool {
	o, exists := b.orders[orderID]
	if !exists {
		return false
	}
	delete(b.orders, orderID)

	level := b.levelFor(o.Side, o.Price, false)
	if level == nil {
		return false
	}
	for i, rest := range level.orders {
		if rest.ID == orderID {
			level.orders = append(level.orders[:i], level.orders[i+1:]...)
			break
		}
	}
	if len(level.orders) == 0 {
		b.deleteLevel(o.Side, o.Price)
	}
	return true
}

// Get returns a resting order by id.
func (b *Book) Get(orderID string) (*domain.Order, bool) {
	o, exists := b.orders[orderID]
	return o, exists
}

// BestBid returns the highest bid price and its aggregate remaining quantity.
func (b *Book) BestBid() (price, quantity int64, ok bool) {
	return bestOf(b.bids, func(it btree.Item) *priceLevel { return it.(*bidItem).level })
}

// BestAsk returns the lowest ask price and its aggregate remaining quantity.
func (b *Book) BestAsk() (price, quantity int64, ok bool) {
	return bestOf(b.asks, func(it btree.Item) *priceLevel { return it.(*askItem).level })
}

func bestOf(tree *btree.BTree, level func(btree.Item) *priceLevel) (int64, int64, bool) {
	if tree.Len() == 0 {
		return 0, 0, false
	}
	pl := level(tree.Min())
	if len(pl.orders) == 0 {
		return 0, 0, false
	}
	return pl.price, pl.remaining(), true
}

// Level is one aggregated price level of a depth snapshot.
type Level struct {
	Price    int64
	Quantity int64
}

// Depth returns aggregated levels for one side, best price first. A depth
// of 0 walks the whole side.
func (b *Book) Depth(side domain.OrderSide, depth int) []Level {
	tree := b.asks
	levelOf := func(it btree.Item) *priceLevel { return it.(*askItem).level }
	if side == domain.SideBuy {
		tree = b.bids
		levelOf = func(it btree.Item) *priceLevel { return it.(*bidItem).level }
	}

	var out []Level
	tree.Ascend(func(it btree.Item) bool {
		if depth > 0 && len(out) >= depth {
			return false
		}
		pl := levelOf(it)
		if qty := pl.remaining(); qty > 0 {
			out = append(out, Level{Price: pl.price, Quantity: qty})
		}
		return true
	})
	return out
}

// levelFor finds the price level for a side/price, optionally creating it.
func (b *Book) levelFor(side domain.OrderSide, price int64, create bool) *priceLevel {
	if side == domain.SideBuy {
		probe := &bidItem{level: &priceLevel{price: price}}
		if existing := b.bids.Get(probe); existing != nil {
			return existing.(*bidItem).level
		}
		if !create {
			return nil
		}
		b.bids.ReplaceOrInsert(probe)
		return probe.level
	}

	probe := &askItem{level: &priceLevel{price: price}}
	if existing := b.asks.Get(probe); existing != nil {
		return existing.(*askItem).level
	}
	if !create {
		return nil
	}
	b.asks.ReplaceOrInsert(probe)
	return probe.level
}

func (b *Book) deleteLevel(side domain.OrderSide, price int64) {
	if side == domain.SideBuy {
		b.bids.Delete(&bidItem{level: &priceLevel{price: price}})
		return
	}
	b.asks.Delete(&askItem{level: &priceLevel{price: price}})
}
