package engine

import (
	"cmp"
	"slices"
	"time"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/google/btree"
)

// bookEntry is a single order resting on the book. Seq records arrival and
// breaks ties between equal prices.
type bookEntry struct {
	Price float64
	Seq   uint64
	Order *domain.Order
}

// bidLess orders the buy side: price descending, then arrival ascending.
// Min() is the best bid.
func bidLess(a, b bookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.Seq < b.Seq
}

// askLess orders the sell side: price ascending, then arrival ascending.
// Min() is the best ask.
func askLess(a, b bookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.Seq < b.Seq
}

// PriceLevel is an aggregated price level.
type PriceLevel struct {
	Price      float64
	Volume     float64
	OrderCount int
}

// orderBook holds both sides of one symbol with a secondary index by system
// id for cancellation.
type orderBook struct {
	bids  *btree.BTreeG[bookEntry]
	asks  *btree.BTreeG[bookEntry]
	index map[string]bookEntry
}

func newOrderBook() *orderBook {
	const degree = 32
	return &orderBook{
		bids:  btree.NewG[bookEntry](degree, bidLess),
		asks:  btree.NewG[bookEntry](degree, askLess),
		index: make(map[string]bookEntry),
	}
}

func (ob *orderBook) side(d domain.Direction) *btree.BTreeG[bookEntry] {
	if d == domain.DirectionLong {
		return ob.bids
	}
	return ob.asks
}

func (ob *orderBook) insert(e bookEntry) {
	ob.side(e.Order.Direction).ReplaceOrInsert(e)
	ob.index[e.Order.OrderSysID] = e
}

func (ob *orderBook) remove(e bookEntry) {
	ob.side(e.Order.Direction).Delete(e)
	delete(ob.index, e.Order.OrderSysID)
}

// BookMatcher matches orders against each other with price-time priority.
// Trades execute at the resting order's price. It is not safe for concurrent
// use.
type BookMatcher struct {
	books    map[string]*orderBook
	seq      uint64
	tradeIDs *IDGenerator
	now      func() time.Time
	day      string
}

// NewBookMatcher creates an empty BookMatcher. Trade times come from now.
func NewBookMatcher(tradeIDs *IDGenerator, now func() time.Time) *BookMatcher {
	return &BookMatcher{
		books:    make(map[string]*orderBook),
		tradeIDs: tradeIDs,
		now:      now,
	}
}

func (b *BookMatcher) book(symbol string) *orderBook {
	ob, ok := b.books[symbol]
	if !ok {
		ob = newOrderBook()
		b.books[symbol] = ob
	}
	return ob
}

// crosses reports whether incoming o can trade against a resting price.
func crosses(o *domain.Order, resting float64) bool {
	if o.PriceType == domain.PriceTypeMarket {
		return true
	}
	if o.Direction == domain.DirectionLong {
		return o.Price >= resting
	}
	return o.Price <= resting
}

// Submit matches an admitted order against the opposite side. Each match
// yields one execution per side, buyer first, sharing a trade id. A limit
// remainder rests; a market, FAK or FOK remainder is cancelled. A FOK order
// that cannot fill completely is cancelled before any fill.
func (b *BookMatcher) Submit(o *domain.Order) []Execution {
	ob := b.book(o.Symbol)
	opposite := ob.side(o.Direction.Opposite())
	now := b.now()
	date, clock := b.tradeDate(now), now.Format("15:04:05")

	if o.PriceType == domain.PriceTypeFOK {
		var available float64
		opposite.Ascend(func(e bookEntry) bool {
			if !crosses(o, e.Price) {
				return false
			}
			available += e.Order.RemainingVolume()
			return available < o.RemainingVolume()
		})
		if o.RemainingVolume()-available >= epsilon {
			return []Execution{cancelExecution(o, date, clock)}
		}
	}

	var out []Execution
	var filled []bookEntry
	opposite.Ascend(func(e bookEntry) bool {
		if o.RemainingVolume() < epsilon || !crosses(o, e.Price) {
			return false
		}
		resting := e.Order
		volume := min(o.RemainingVolume(), resting.RemainingVolume())
		applyFill(o, volume)
		applyFill(resting, volume)

		id := b.tradeIDs.Next()
		buy, sell := o, resting
		if o.Direction == domain.DirectionShort {
			buy, sell = resting, o
		}
		out = append(out,
			Execution{Order: buy, Trade: domain.NewTrade(*buy, id, volume, e.Price, date, clock)},
			Execution{Order: sell, Trade: domain.NewTrade(*sell, id, volume, e.Price, date, clock)},
		)
		if resting.Status == domain.OrderStatusAllTraded {
			filled = append(filled, e)
		}
		return true
	})
	for _, e := range filled {
		ob.remove(e)
	}

	if o.RemainingVolume() < epsilon {
		return out
	}
	if o.PriceType.CancelsRemainder() {
		return append(out, cancelExecution(o, date, clock))
	}
	b.seq++
	ob.insert(bookEntry{Price: o.Price, Seq: b.seq, Order: o})
	return out
}

// Cancel removes a resting order and marks it cancelled or part-cancelled.
// An unknown id is a no-op that returns false.
func (b *BookMatcher) Cancel(accountID, sysID, symbol string) (*domain.Order, bool) {
	ob, ok := b.books[symbol]
	if !ok {
		return nil, false
	}
	e, ok := ob.index[sysID]
	if !ok || e.Order.AccountID != accountID {
		return nil, false
	}
	ob.remove(e)
	e.Order.MarkCancelled()
	return e.Order, true
}

// Bids returns the resting buy orders of symbol, best first.
func (b *BookMatcher) Bids(symbol string) []*domain.Order {
	return b.walk(symbol, domain.DirectionLong)
}

// Asks returns the resting sell orders of symbol, best first.
func (b *BookMatcher) Asks(symbol string) []*domain.Order {
	return b.walk(symbol, domain.DirectionShort)
}

func (b *BookMatcher) walk(symbol string, d domain.Direction) []*domain.Order {
	ob, ok := b.books[symbol]
	if !ok {
		return nil
	}
	out := make([]*domain.Order, 0, ob.side(d).Len())
	ob.side(d).Ascend(func(e bookEntry) bool {
		out = append(out, e.Order)
		return true
	})
	return out
}

// OrdersOf returns copies of the resting orders owned by accountID across
// all symbols, in arrival order.
func (b *BookMatcher) OrdersOf(accountID string) []domain.Order {
	var entries []bookEntry
	for _, ob := range b.books {
		for _, e := range ob.index {
			if e.Order.AccountID == accountID {
				entries = append(entries, e)
			}
		}
	}
	slices.SortFunc(entries, func(x, y bookEntry) int {
		return cmp.Compare(x.Seq, y.Seq)
	})
	out := make([]domain.Order, len(entries))
	for i, e := range entries {
		out[i] = *e.Order
	}
	return out
}

// Depth returns up to n aggregated levels per side of symbol.
func (b *BookMatcher) Depth(symbol string, n int) (bids, asks []PriceLevel) {
	ob, ok := b.books[symbol]
	if !ok {
		return nil, nil
	}
	return topLevels(ob.bids, n), topLevels(ob.asks, n)
}

// topLevels iterates the tree in order and aggregates entries into at most n
// price levels.
func topLevels(tree *btree.BTreeG[bookEntry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(e bookEntry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == e.Price {
			levels[len(levels)-1].Volume += e.Order.RemainingVolume()
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:      e.Price,
			Volume:     e.Order.RemainingVolume(),
			OrderCount: 1,
		})
		return true
	})
	return levels
}

// SetTradingDay stamps subsequent trades with day.
func (b *BookMatcher) SetTradingDay(day string) {
	b.day = day
}

// Reset discards every resting order without notification.
func (b *BookMatcher) Reset() {
	clear(b.books)
	b.seq = 0
}

func (b *BookMatcher) tradeDate(now time.Time) string {
	if b.day != "" {
		return b.day
	}
	return now.Format("20060102")
}
