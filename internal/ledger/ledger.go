// Package ledger keeps per-account positions: quantities by yesterday/today
// bucket, reservations for pending closing orders, open lots, margin and PnL.
//
// A Ledger is not safe for concurrent use. It is owned by the matching worker.
package ledger

import (
	"fmt"

	"github.com/efreitasn/simmatch/internal/domain"
)

// Config configures a Ledger.
type Config struct {
	Kind          InstrumentKind
	Margins       MarginTable
	PriceDecimals int32
}

// Ledger holds the positions of one account.
type Ledger struct {
	cfg        Config
	positions  map[string]*Position
	symbols    []string
	tradingDay string
}

// New creates an empty ledger.
func New(cfg Config) *Ledger {
	if cfg.Kind == "" {
		cfg.Kind = KindFuture
	}
	return &Ledger{
		cfg:       cfg,
		positions: make(map[string]*Position),
	}
}

// Kind returns the instrument kind the ledger accounts for.
func (l *Ledger) Kind() InstrumentKind {
	return l.cfg.Kind
}

// Position returns the position for symbol, creating it on first use.
// Creation fails with a configuration fault when the multiplier is not
// positive or the symbol has no margin rate.
func (l *Ledger) Position(symbol string, multiplier float64) (*Position, error) {
	if p, ok := l.positions[symbol]; ok {
		return p, nil
	}
	if multiplier <= 0 {
		return nil, fmt.Errorf("symbol %s multiplier %v: %w", symbol, multiplier, domain.ErrInvalidMultiplier)
	}
	rate, err := l.cfg.Margins.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	p := newPosition(symbol, multiplier, rate, l.tradingDay)
	l.positions[symbol] = p
	l.symbols = append(l.symbols, symbol)
	return p, nil
}

// Lookup returns an existing position without creating one.
func (l *Ledger) Lookup(symbol string) (*Position, bool) {
	p, ok := l.positions[symbol]
	return p, ok
}

// Offset returns the offset the ledger applies to an order.
func (l *Ledger) Offset(o *domain.Order) domain.Offset {
	return l.cfg.Kind.offset(o.Direction, o.Offset)
}

// CheckCloseable reports whether a closing order fits in the unreserved
// quantity of the side it reduces. Opening orders always pass. Never mutates.
func (l *Ledger) CheckCloseable(o *domain.Order) (bool, error) {
	offset := l.Offset(o)
	if !offset.IsClose() {
		return true, nil
	}
	p, err := l.Position(o.Symbol, o.Multiplier)
	if err != nil {
		return false, err
	}
	side := p.Side(o.Direction.Opposite())
	avail := side.Available()
	if offset == domain.OffsetCloseToday {
		avail = side.AvailableToday()
	}
	return o.TotalVolume <= avail+epsilon, nil
}

// Freeze reserves quantity for a closing order. Opening orders are a no-op
// that returns true. On failure nothing changes.
func (l *Ledger) Freeze(o *domain.Order) (bool, error) {
	offset := l.Offset(o)
	if !offset.IsClose() {
		return true, nil
	}
	p, err := l.Position(o.Symbol, o.Multiplier)
	if err != nil {
		return false, err
	}
	if !p.Side(o.Direction.Opposite()).freeze(o.TotalVolume, offset) {
		return false, nil
	}
	p.frozenOrders[orderKey(o)] = struct{}{}
	return true, nil
}

// Unfreeze releases the untraded residual of a closing order that ended
// cancelled, part-cancelled or rejected. It acts at most once per order and
// only if the order was frozen; it returns whether anything was released.
func (l *Ledger) Unfreeze(o *domain.Order) bool {
	switch o.Status {
	case domain.OrderStatusCancelled, domain.OrderStatusPartCancelled, domain.OrderStatusRejected:
	default:
		return false
	}
	if !l.Offset(o).IsClose() {
		return false
	}
	p, ok := l.positions[o.Symbol]
	if !ok {
		return false
	}
	key := orderKey(o)
	if _, done := p.finished[key]; done {
		return false
	}
	p.finished[key] = struct{}{}
	if _, frozen := p.frozenOrders[key]; !frozen {
		return false
	}
	delete(p.frozenOrders, key)
	residual := o.RemainingVolume()
	if residual <= 0 {
		return false
	}
	p.Side(o.Direction.Opposite()).release(residual)
	return true
}

// Settle applies a fill and returns the realized PnL it produced.
// Zero-volume trades are ignored.
func (l *Ledger) Settle(t *domain.Trade) (float64, error) {
	if !t.IsFill() {
		return 0, nil
	}
	p, err := l.Position(t.Symbol, t.Order.Multiplier)
	if err != nil {
		return 0, err
	}
	offset := l.cfg.Kind.offset(t.Direction, t.Offset)
	if !offset.IsClose() {
		p.open(t)
		return 0, nil
	}
	pnl := p.close(t, offset)
	if t.Order.Status == domain.OrderStatusAllTraded {
		delete(p.frozenOrders, orderKey(&t.Order))
	}
	return pnl, nil
}

// OnPriceUpdate refreshes last price and unrealized PnL for symbol.
func (l *Ledger) OnPriceUpdate(symbol string, last float64) {
	if p, ok := l.positions[symbol]; ok && last > 0 {
		p.updatePrice(last)
	}
}

// RollTradingDay starts a new trading day: today's holdings become
// yesterday's and all reservations are dropped, since resting orders do not
// survive the day change.
func (l *Ledger) RollTradingDay(day string) {
	l.tradingDay = day
	for _, p := range l.positions {
		p.roll(day)
	}
}

// TradingDay returns the current trading day stamp.
func (l *Ledger) TradingDay() string {
	return l.tradingDay
}

// Snapshot returns copies of all positions in creation order, with prices and
// margins rounded to the configured decimals.
func (l *Ledger) Snapshot() []Position {
	out := make([]Position, 0, len(l.symbols))
	d := l.cfg.PriceDecimals
	for _, sym := range l.symbols {
		p := l.positions[sym].clone()
		for _, s := range []*Side{&p.Long, &p.Short} {
			s.AvgPrice = domain.RoundPrice(s.AvgPrice, d)
			s.Margin = domain.RoundPrice(s.Margin, d)
			s.UnrealizedPnl = domain.RoundPrice(s.UnrealizedPnl, d)
		}
		p.RealizedPnl = domain.RoundPrice(p.RealizedPnl, d)
		for _, lot := range p.Details {
			lot.Margin = domain.RoundPrice(lot.Margin, d)
		}
		out = append(out, p)
	}
	return out
}

// orderKey identifies an order in the reservation sets. Rejected orders never
// receive a system id, so the client id stands in.
func orderKey(o *domain.Order) string {
	if o.OrderSysID != "" {
		return o.OrderSysID
	}
	return o.AccountID + "/" + o.OrderID
}
