package ledger

import "github.com/efreitasn/simmatch/internal/domain"

// epsilon absorbs floating residue in quantity and margin arithmetic.
const epsilon = 1e-9

// Side is one direction of a position.
type Side struct {
	Qty           float64
	YdQty         float64
	TdQty         float64
	Frozen        float64
	YdFrozen      float64
	TdFrozen      float64
	AvgPrice      float64
	Margin        float64
	UnrealizedPnl float64
	UpdateTime    string
}

// Available returns the quantity not reserved by pending closing orders.
func (s *Side) Available() float64 {
	return s.Qty - s.Frozen
}

// AvailableToday returns the unreserved today quantity.
func (s *Side) AvailableToday() float64 {
	return s.TdQty - s.TdFrozen
}

// AvailableYesterday returns the unreserved yesterday quantity.
func (s *Side) AvailableYesterday() float64 {
	return s.YdQty - s.YdFrozen
}

func (s *Side) freeze(v float64, offset domain.Offset) bool {
	if offset == domain.OffsetCloseToday {
		if v > s.AvailableToday()+epsilon {
			return false
		}
		s.TdFrozen += v
		s.Frozen = s.YdFrozen + s.TdFrozen
		return true
	}
	if v > s.Available()+epsilon {
		return false
	}
	fromYd := min(v, max(s.AvailableYesterday(), 0))
	fromTd := v - fromYd
	if fromTd > s.AvailableToday()+epsilon {
		return false
	}
	s.YdFrozen += fromYd
	s.TdFrozen += fromTd
	s.Frozen = s.YdFrozen + s.TdFrozen
	return true
}

func (s *Side) release(v float64) {
	fromYd := min(v, s.YdFrozen)
	s.YdFrozen -= fromYd
	s.TdFrozen = max(s.TdFrozen-(v-fromYd), 0)
	s.Frozen = s.YdFrozen + s.TdFrozen
}

// reduce removes closed quantity from the quantity and frozen buckets.
func (s *Side) reduce(v float64, offset domain.Offset) {
	if offset == domain.OffsetCloseToday {
		s.TdQty = max(s.TdQty-v, 0)
		s.TdFrozen = max(s.TdFrozen-v, 0)
	} else {
		fromYd := min(v, s.YdQty)
		s.YdQty -= fromYd
		s.TdQty = max(s.TdQty-(v-fromYd), 0)
		s.release(v)
	}
	s.YdFrozen = min(s.YdFrozen, s.YdQty)
	s.TdFrozen = min(s.TdFrozen, s.TdQty)
	s.Qty = s.YdQty + s.TdQty
	s.Frozen = s.YdFrozen + s.TdFrozen
	if s.Qty < epsilon {
		s.Qty, s.YdQty, s.TdQty = 0, 0, 0
		s.Frozen, s.YdFrozen, s.TdFrozen = 0, 0, 0
	}
}

// PositionDetail is one opening fill's remaining quantity.
type PositionDetail struct {
	Direction domain.Direction
	Volume    float64
	Price     float64
	Margin    float64
	Yesterday bool
	TradeID   string
	OpenDate  string
}

// Position is the per-symbol state of one account.
type Position struct {
	Symbol      string
	Multiplier  float64
	Long        Side
	Short       Side
	RealizedPnl float64
	LastPrice   float64
	TradingDay  string
	Details     []*PositionDetail

	rate         MarginRate
	finished     map[string]struct{}
	frozenOrders map[string]struct{}
}

func newPosition(symbol string, multiplier float64, rate MarginRate, day string) *Position {
	return &Position{
		Symbol:       symbol,
		Multiplier:   multiplier,
		TradingDay:   day,
		rate:         rate,
		finished:     make(map[string]struct{}),
		frozenOrders: make(map[string]struct{}),
	}
}

// Side returns the side holding positions in direction d.
func (p *Position) Side(d domain.Direction) *Side {
	if d == domain.DirectionLong {
		return &p.Long
	}
	return &p.Short
}

// NetQty returns long minus short quantity.
func (p *Position) NetQty() float64 {
	return p.Long.Qty - p.Short.Qty
}

// margin computes the margin required for volume held at price in direction d.
func (p *Position) margin(d domain.Direction, volume, price float64) float64 {
	return volume * price * p.Multiplier * p.rate.Ratio(d)
}

func (p *Position) open(t *domain.Trade) {
	side := p.Side(t.Direction)
	m := p.margin(t.Direction, t.Volume, t.Price)
	p.Details = append(p.Details, &PositionDetail{
		Direction: t.Direction,
		Volume:    t.Volume,
		Price:     t.Price,
		Margin:    m,
		TradeID:   t.TradeID,
		OpenDate:  t.TradeDate,
	})
	side.AvgPrice = (side.AvgPrice*side.Qty + t.Price*t.Volume) / (side.Qty + t.Volume)
	side.Qty += t.Volume
	side.TdQty += t.Volume
	side.Margin += m
	side.UpdateTime = t.TradeTime
}

// close consumes lots of the reduced side in list order and returns the
// realized PnL of the consumed slices.
func (p *Position) close(t *domain.Trade, offset domain.Offset) float64 {
	held := t.Direction.Opposite()
	side := p.Side(held)

	var pnl, released float64
	left := t.Volume
	kept := p.Details[:0]
	for _, lot := range p.Details {
		if left < epsilon || lot.Direction != held || (offset == domain.OffsetCloseToday && lot.Yesterday) {
			kept = append(kept, lot)
			continue
		}
		v := min(left, lot.Volume)
		diff := t.Price - lot.Price
		if held == domain.DirectionShort {
			diff = -diff
		}
		pnl += diff * v * p.Multiplier
		slice := lot.Margin * v / lot.Volume
		released += slice
		lot.Margin -= slice
		lot.Volume -= v
		left -= v
		if lot.Volume > epsilon {
			kept = append(kept, lot)
		}
	}
	for i := len(kept); i < len(p.Details); i++ {
		p.Details[i] = nil
	}
	p.Details = kept

	side.reduce(t.Volume, offset)
	side.Margin = max(side.Margin-released, 0)
	side.AvgPrice = p.lotAverage(held)
	if side.Qty == 0 {
		side.Margin = 0
		side.AvgPrice = 0
		side.UnrealizedPnl = 0
	}
	side.UpdateTime = t.TradeTime
	p.RealizedPnl += pnl
	return pnl
}

func (p *Position) lotAverage(d domain.Direction) float64 {
	var cost, vol float64
	for _, lot := range p.Details {
		if lot.Direction == d {
			cost += lot.Price * lot.Volume
			vol += lot.Volume
		}
	}
	if vol < epsilon {
		return 0
	}
	return cost / vol
}

func (p *Position) updatePrice(last float64) {
	p.LastPrice = last
	p.Long.UnrealizedPnl = p.Long.Qty * (last - p.Long.AvgPrice) * p.Multiplier
	p.Short.UnrealizedPnl = p.Short.Qty * (p.Short.AvgPrice - last) * p.Multiplier
}

// roll turns today's holdings into yesterday's and drops every reservation.
func (p *Position) roll(day string) {
	for _, s := range []*Side{&p.Long, &p.Short} {
		s.YdQty = s.Qty
		s.TdQty = 0
		s.Frozen, s.YdFrozen, s.TdFrozen = 0, 0, 0
	}
	for _, lot := range p.Details {
		lot.Yesterday = true
	}
	clear(p.finished)
	clear(p.frozenOrders)
	p.TradingDay = day
}

func (p *Position) clone() Position {
	out := *p
	out.Details = make([]*PositionDetail, len(p.Details))
	for i, lot := range p.Details {
		l := *lot
		out.Details[i] = &l
	}
	out.finished = nil
	out.frozenOrders = nil
	return out
}
