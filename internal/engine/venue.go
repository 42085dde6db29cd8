package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/ledger"
)

// Mode selects what resting orders match against.
type Mode string

const (
	// ModeQuote matches orders against incoming ticks and bars.
	ModeQuote Mode = "quote"
	// ModeBook matches orders against each other.
	ModeBook Mode = "book"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeQuote, ModeBook:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown match mode %q, must be one of: quote, book", s)
}

// VenueConfig configures a Venue.
type VenueConfig struct {
	Mode   Mode
	Quote  QuoteConfig
	Ledger ledger.Config
}

// Venue is one matching domain: its accounts, matchers and id generators.
// All methods must be called from a single goroutine; the Manager provides
// that goroutine.
type Venue struct {
	cfg       VenueConfig
	logger    *slog.Logger
	now       func() time.Time
	sink      Sink
	recorder  Recorder
	sysIDs    *IDGenerator
	tradeIDs  *IDGenerator
	quotes    *QuoteMatcher
	book      *BookMatcher
	accounts  map[string]*Account
	ordered   []*Account
	frontID   int
	sessionID int64

	tradingDay string
}

// VenueOption customises a Venue.
type VenueOption func(*Venue)

// WithClock sets the clock used for id seeds, insert times and book trade
// times.
func WithClock(now func() time.Time) VenueOption {
	return func(v *Venue) { v.now = now }
}

// WithSink sets the outbound notification sink.
func WithSink(s Sink) VenueOption {
	return func(v *Venue) { v.sink = s }
}

// WithRecorder sets the history log.
func WithRecorder(r Recorder) VenueOption {
	return func(v *Venue) { v.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) VenueOption {
	return func(v *Venue) { v.logger = l }
}

// WithSession sets the front and session ids stamped on admitted orders.
func WithSession(frontID int, sessionID int64) VenueOption {
	return func(v *Venue) {
		v.frontID = frontID
		v.sessionID = sessionID
	}
}

// NewVenue creates a Venue. Id generators are seeded from the clock.
func NewVenue(cfg VenueConfig, opts ...VenueOption) *Venue {
	if cfg.Mode == "" {
		cfg.Mode = ModeQuote
	}
	v := &Venue{
		cfg:       cfg,
		logger:    slog.Default(),
		now:       time.Now,
		sink:      nopSink{},
		recorder:  nopRecorder{},
		accounts:  make(map[string]*Account),
		frontID:   1,
		sessionID: 1,
	}
	for _, opt := range opts {
		opt(v)
	}
	seed := SeedFromTime(v.now())
	v.sysIDs = NewIDGenerator(seed)
	v.tradeIDs = NewIDGenerator(seed)
	v.quotes = NewQuoteMatcher(cfg.Quote, v.tradeIDs)
	v.book = NewBookMatcher(v.tradeIDs, v.now)
	return v
}

// Mode returns the matching mode.
func (v *Venue) Mode() Mode {
	return v.cfg.Mode
}

// TradingDay returns the current trading day.
func (v *Venue) TradingDay() string {
	return v.tradingDay
}

// AddAccount registers an account. Accounts are matched in registration
// order. Registering an existing id returns it unchanged.
func (v *Venue) AddAccount(id string) *Account {
	if a, ok := v.accounts[id]; ok {
		return a
	}
	a := newAccount(id, v)
	a.ledger.RollTradingDay(v.tradingDay)
	v.accounts[id] = a
	v.ordered = append(v.ordered, a)
	return a
}

// Account returns a registered account.
func (v *Venue) Account(id string) (*Account, bool) {
	a, ok := v.accounts[id]
	return a, ok
}

// Accounts returns the account ids in registration order.
func (v *Venue) Accounts() []string {
	ids := make([]string, len(v.ordered))
	for i, a := range v.ordered {
		ids[i] = a.id
	}
	return ids
}

// Positions returns a snapshot of an account's positions.
func (v *Venue) Positions(accountID string) ([]ledger.Position, error) {
	a, ok := v.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.ledger.Snapshot(), nil
}

// WorkingOrders returns an account's live orders, oldest first: its working
// set in quote mode, its resting book orders in book mode.
func (v *Venue) WorkingOrders(accountID string) ([]domain.Order, error) {
	a, ok := v.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if v.cfg.Mode == ModeBook {
		return v.book.OrdersOf(accountID), nil
	}
	return a.WorkingOrders(), nil
}

// Book returns the resting orders of symbol in book mode, best first.
func (v *Venue) Book(symbol string) (bids, asks []*domain.Order) {
	return v.book.Bids(symbol), v.book.Asks(symbol)
}

// Depth returns up to n aggregated book levels per side of symbol.
func (v *Venue) Depth(symbol string, n int) (bids, asks []PriceLevel) {
	return v.book.Depth(symbol, n)
}

// SubmitOrder accepts a new order. In quote mode the order is buffered until
// the next market event; in book mode it is admitted and matched at once.
// Unknown accounts are registered on first use.
func (v *Venue) SubmitOrder(req domain.OrderRequest) error {
	a := v.AddAccount(req.AccountID)
	o := domain.NewOrder(req)
	if v.cfg.Mode == ModeQuote {
		a.enqueue(o)
		return nil
	}
	accepted, err := a.admit(o)
	if err != nil || !accepted {
		return err
	}
	execs := v.book.Submit(o)
	if err := v.dispatch(execs); err != nil {
		return err
	}
	if last, ok := lastFillPrice(execs); ok {
		v.updatePrice(o.Symbol, last)
	}
	return nil
}

// CancelOrder cancels a working order. Unknown accounts and ids are ignored.
func (v *Venue) CancelOrder(req domain.CancelRequest) {
	a, ok := v.accounts[req.AccountID]
	if !ok {
		return
	}
	if v.cfg.Mode == ModeQuote {
		a.cancel(req.OrderSysID, req.Symbol)
		return
	}
	o, ok := v.book.Cancel(req.AccountID, req.OrderSysID, req.Symbol)
	if !ok {
		return
	}
	if owner, ok := v.accounts[o.AccountID]; ok {
		owner.cancelled(o)
	}
}

// OnTick admits buffered orders, matches working orders against tick and
// refreshes unrealized PnL.
func (v *Venue) OnTick(tick domain.Tick) error {
	if v.cfg.Mode == ModeQuote {
		if err := v.matchQuote(v.quotes.QuoteForTick(tick)); err != nil {
			return err
		}
		v.quotes.Observe(tick)
	}
	v.updatePrice(tick.Symbol, tick.LastPrice)
	return nil
}

// OnBar admits buffered orders, matches working orders against bar and
// refreshes unrealized PnL.
func (v *Venue) OnBar(bar domain.Bar) error {
	if v.cfg.Mode == ModeQuote {
		if err := v.matchQuote(QuoteForBar(bar)); err != nil {
			return err
		}
	}
	v.updatePrice(bar.Symbol, bar.Close)
	return nil
}

func (v *Venue) matchQuote(q Quote) error {
	for _, a := range v.ordered {
		if err := a.drain(); err != nil {
			return err
		}
		if err := v.dispatch(a.match(v.quotes, q)); err != nil {
			return err
		}
	}
	return nil
}

// SetTradingDay starts a new trading day: resting and buffered orders are
// discarded without notification, positions roll and id generators are
// reseeded. Setting the current day again is a no-op.
func (v *Venue) SetTradingDay(day string) {
	if day == v.tradingDay {
		return
	}
	v.tradingDay = day
	seed := SeedFromTime(v.now())
	v.sysIDs.Reset(seed)
	v.tradeIDs.Reset(seed)
	v.quotes.Reset()
	v.book.Reset()
	v.book.SetTradingDay(day)
	for _, a := range v.ordered {
		a.reset(day)
	}
	v.logger.Info("trading day set", "trading_day", day)
}

// dispatch applies executions to their owning accounts in order.
func (v *Venue) dispatch(execs []Execution) error {
	last := make(map[*domain.Order]int, len(execs))
	for i, ex := range execs {
		last[ex.Order] = i
	}
	for i, ex := range execs {
		a := v.AddAccount(ex.Order.AccountID)
		if err := a.apply(ex, last[ex.Order] == i); err != nil {
			return err
		}
	}
	return nil
}

func (v *Venue) updatePrice(symbol string, last float64) {
	for _, a := range v.ordered {
		a.ledger.OnPriceUpdate(symbol, last)
	}
}

func lastFillPrice(execs []Execution) (float64, bool) {
	for i := len(execs) - 1; i >= 0; i-- {
		if execs[i].Trade.IsFill() {
			return execs[i].Trade.Price, true
		}
	}
	return 0, false
}
