package engine

import (
	"math"

	"github.com/efreitasn/simmatch/internal/domain"
)

// QuoteConfig tunes the quote-driven fill model.
type QuoteConfig struct {
	// Levels is the number of book levels a tick is matched against: 1 or 5.
	Levels int
	// PriceImpact is the impact coefficient applied to bar fills.
	PriceImpact float64
	// VolumeLimit caps a bar fill at this share of the bar volume. <= 0 means
	// unconstrained.
	VolumeLimit float64
	// VolumeRound is 0 for no rounding, 1 for whole units, N > 1 for lots of N.
	VolumeRound int
	// PriceDecimals is the precision of impacted bar fill prices.
	PriceDecimals int32
}

// DefaultQuoteConfig returns the stock fill model.
func DefaultQuoteConfig() QuoteConfig {
	return QuoteConfig{
		Levels:        1,
		PriceImpact:   0.1,
		VolumeLimit:   0.025,
		PriceDecimals: 2,
	}
}

// Quote is the view of one market event that resting orders match against.
// It is built once per event and shared by every account.
type Quote struct {
	Symbol string
	Asks   [domain.Depth]float64
	Bids   [domain.Depth]float64
	Last   float64
	// Tradable is the volume available to resting orders: the cumulative
	// volume delta since the previous tick, or the whole bar volume.
	Tradable float64
	Bar      bool
	Date     string
	Time     string
}

// QuoteMatcher fills resting orders against ticks and bars. It retains only
// the previous tick per symbol.
type QuoteMatcher struct {
	cfg       QuoteConfig
	tradeIDs  *IDGenerator
	lastTicks map[string]domain.Tick
}

// NewQuoteMatcher creates a QuoteMatcher drawing trade ids from tradeIDs.
func NewQuoteMatcher(cfg QuoteConfig, tradeIDs *IDGenerator) *QuoteMatcher {
	if cfg.Levels != domain.Depth {
		cfg.Levels = 1
	}
	return &QuoteMatcher{
		cfg:       cfg,
		tradeIDs:  tradeIDs,
		lastTicks: make(map[string]domain.Tick),
	}
}

// QuoteForTick builds the quote for tick. The volume delta is measured against
// the last observed tick of the symbol; call Observe once every account has
// matched.
func (m *QuoteMatcher) QuoteForTick(tick domain.Tick) Quote {
	last := m.lastTicks[tick.Symbol]
	clock := tick.Time
	if len(clock) > 8 {
		clock = clock[:8]
	}
	return Quote{
		Symbol:   tick.Symbol,
		Asks:     tick.AskPrices,
		Bids:     tick.BidPrices,
		Last:     tick.LastPrice,
		Tradable: tick.Volume - last.Volume,
		Date:     tick.ActionDay,
		Time:     clock,
	}
}

// Observe records tick as the previous tick of its symbol.
func (m *QuoteMatcher) Observe(tick domain.Tick) {
	m.lastTicks[tick.Symbol] = tick
}

// Reset forgets every previous tick.
func (m *QuoteMatcher) Reset() {
	clear(m.lastTicks)
}

// QuoteForBar builds the quote for bar: every level is the close price and
// the whole bar volume is tradable.
func QuoteForBar(bar domain.Bar) Quote {
	q := Quote{
		Symbol:   bar.Symbol,
		Last:     bar.Close,
		Tradable: bar.Volume,
		Bar:      true,
		Date:     bar.Date,
		Time:     bar.Time,
	}
	q.Asks[0] = bar.Close
	q.Bids[0] = bar.Close
	return q
}

// Match dispatches to the bar, single-level or five-level tick model.
func (m *QuoteMatcher) Match(o *domain.Order, q Quote) []Execution {
	switch {
	case q.Bar:
		return m.MatchBar(o, q)
	case m.cfg.Levels == domain.Depth:
		return m.MatchTick5(o, q)
	default:
		return m.MatchTick(o, q)
	}
}

// MatchTick matches o against the best level of a tick.
func (m *QuoteMatcher) MatchTick(o *domain.Order, q Quote) []Execution {
	_, ex := m.matchLevel(o, q, 0, q.Tradable)
	if ex == nil {
		return nil
	}
	return []Execution{*ex}
}

// MatchTick5 sweeps the tick's levels in price order. Each level's fill
// reduces the tradable volume left for the next one. The sweep stops at the
// first level that does not fill or once the order is fully traded.
func (m *QuoteMatcher) MatchTick5(o *domain.Order, q Quote) []Execution {
	var out []Execution
	tradable := q.Tradable
	for i := 0; i < domain.Depth; i++ {
		traded, ex := m.matchLevel(o, q, i, tradable)
		if ex != nil {
			out = append(out, *ex)
		}
		if traded == 0 || o.Status == domain.OrderStatusAllTraded {
			break
		}
		tradable -= traded
	}
	return out
}

// MatchBar matches o against a bar using the participation model.
func (m *QuoteMatcher) MatchBar(o *domain.Order, q Quote) []Execution {
	_, ex := m.matchLevel(o, q, 0, q.Tradable)
	if ex == nil {
		return nil
	}
	return []Execution{*ex}
}

// matchLevel matches o against one level and returns the traded volume and
// the execution it produced, if any. Only the first level may cancel an
// immediate order; deeper levels just end the sweep.
func (m *QuoteMatcher) matchLevel(o *domain.Order, q Quote, level int, tradable float64) (float64, *Execution) {
	first := level == 0
	cancel := func() (float64, *Execution) {
		if !first || !o.PriceType.CancelsRemainder() {
			return 0, nil
		}
		ex := cancelExecution(o, q.Date, q.Time)
		return 0, &ex
	}

	price, ok := crossPrice(o, q.Asks[level], q.Bids[level])
	if !ok {
		return cancel()
	}

	remaining := o.RemainingVolume()
	if o.PriceType == domain.PriceTypeFOK && remaining > tradable {
		return cancel()
	}

	var fillPrice, volume float64
	if q.Bar {
		fillPrice, volume = m.barFill(o.Direction, price, remaining, tradable)
	} else {
		fillPrice, volume = tickFill(o.Direction, price, remaining, tradable, q.Last)
	}
	if o.PriceType == domain.PriceTypeFOK && remaining-volume >= epsilon {
		return cancel()
	}
	if volume < epsilon {
		return cancel()
	}

	applyFill(o, volume)
	trade := domain.NewTrade(*o, m.tradeIDs.Next(), volume, fillPrice, q.Date, q.Time)
	return volume, &Execution{Order: o, Trade: trade}
}

// crossPrice reports whether o crosses a level with the given ask and bid and
// returns the price the fill model uses for o. Market orders cross any
// non-empty level at the opposite quote.
func crossPrice(o *domain.Order, ask, bid float64) (float64, bool) {
	opposite := ask
	if o.Direction == domain.DirectionShort {
		opposite = bid
	}
	if opposite <= 0 {
		return 0, false
	}
	if o.PriceType == domain.PriceTypeMarket {
		return opposite, true
	}
	if o.Direction == domain.DirectionLong {
		return o.Price, o.Price >= ask
	}
	return o.Price, o.Price <= bid
}

// tickFill fills at the better of the last price and the order price, for as
// much as traded since the previous tick.
func tickFill(d domain.Direction, price, remaining, tradable, last float64) (float64, float64) {
	fillPrice := price
	if last > 0 {
		if d == domain.DirectionLong {
			fillPrice = math.Min(last, price)
		} else {
			fillPrice = math.Max(last, price)
		}
	}
	return fillPrice, math.Max(math.Min(remaining, tradable), 0)
}

// barFill applies the participation cap, volume rounding and quadratic price
// impact.
func (m *QuoteMatcher) barFill(d domain.Direction, price, remaining, barVolume float64) (float64, float64) {
	if barVolume <= 0 {
		return price, 0
	}
	maxVolume := barVolume
	if m.cfg.VolumeLimit > 0 {
		maxVolume = m.cfg.VolumeLimit * barVolume
	}
	volume := math.Min(remaining, maxVolume)
	switch {
	case m.cfg.VolumeRound == 1:
		volume = math.Floor(volume)
	case m.cfg.VolumeRound > 1:
		lot := float64(m.cfg.VolumeRound)
		volume = math.Floor(volume/lot) * lot
	}

	share := volume / barVolume
	if m.cfg.VolumeLimit > 0 {
		share = math.Min(share, m.cfg.VolumeLimit)
	}
	sign := 1.0
	if d == domain.DirectionShort {
		sign = -1.0
	}
	impact := share * share * m.cfg.PriceImpact * sign * price
	return domain.RoundPrice(price+impact, m.cfg.PriceDecimals), volume
}
