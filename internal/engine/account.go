package engine

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/ledger"
)

// Account coordinates one account inside a Venue: it buffers new orders,
// admits them against the ledger, keeps the working orders per symbol and
// applies executions to the ledger, the history and the sink in that order.
type Account struct {
	id      string
	venue   *Venue
	ledger  *ledger.Ledger
	pending []*domain.Order
	working map[string][]*domain.Order
	logger  *slog.Logger
}

func newAccount(id string, v *Venue) *Account {
	return &Account{
		id:      id,
		venue:   v,
		ledger:  ledger.New(v.cfg.Ledger),
		working: make(map[string][]*domain.Order),
		logger:  v.logger.With("account_id", id),
	}
}

// ID returns the account id.
func (a *Account) ID() string {
	return a.id
}

// Ledger returns the account's position ledger.
func (a *Account) Ledger() *ledger.Ledger {
	return a.ledger
}

// Working returns the working orders of symbol in insertion order.
func (a *Account) Working(symbol string) []*domain.Order {
	return slices.Clone(a.working[symbol])
}

// WorkingOrders returns copies of every working order.
func (a *Account) WorkingOrders() []domain.Order {
	var out []domain.Order
	for _, orders := range a.working {
		for _, o := range orders {
			out = append(out, *o)
		}
	}
	slices.SortFunc(out, func(x, y domain.Order) int {
		if c := x.InsertedAt.Compare(y.InsertedAt); c != 0 {
			return c
		}
		return compareSysID(x.OrderSysID, y.OrderSysID)
	})
	return out
}

// compareSysID orders numeric system ids by value.
func compareSysID(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Pending returns the number of buffered orders not yet admitted.
func (a *Account) Pending() int {
	return len(a.pending)
}

func (a *Account) enqueue(o *domain.Order) {
	a.pending = append(a.pending, o)
}

// drain admits buffered orders in arrival order. Accepted orders join the
// working set. A configuration fault aborts the drain and leaves the
// unprocessed orders buffered.
func (a *Account) drain() error {
	for len(a.pending) > 0 {
		o := a.pending[0]
		accepted, err := a.admit(o)
		if err != nil {
			return err
		}
		a.pending[0] = nil
		a.pending = a.pending[1:]
		if accepted {
			a.working[o.Symbol] = append(a.working[o.Symbol], o)
		}
	}
	a.pending = nil
	return nil
}

// admit stamps the order, checks and freezes closeable quantity and assigns
// the system id on acceptance. Rejected orders are published and never rest.
func (a *Account) admit(o *domain.Order) (bool, error) {
	v := a.venue
	o.FrontID = v.frontID
	o.SessionID = v.sessionID
	o.TradingDay = v.tradingDay
	o.InsertedAt = v.now()

	if _, err := a.ledger.Position(o.Symbol, o.Multiplier); err != nil {
		return false, err
	}
	ok, err := a.ledger.CheckCloseable(o)
	if err != nil {
		return false, err
	}
	if ok {
		o.OrderSysID = v.sysIDs.Next()
		if ok, err = a.ledger.Freeze(o); err != nil {
			return false, err
		}
	}
	if !ok {
		o.OrderSysID = ""
		o.SetStatus(domain.OrderStatusRejected, domain.StatusMsgRejectedPosition)
		a.logger.Debug("order rejected",
			"order_id", o.OrderID,
			"symbol", o.Symbol,
			"offset", o.Offset,
			"volume", o.TotalVolume,
		)
		a.publish(*o, nil)
		return false, nil
	}

	o.SetStatus(domain.OrderStatusNotTraded, domain.StatusMsgNotTraded)
	a.logger.Debug("order accepted",
		"order_id", o.OrderID,
		"order_sys_id", o.OrderSysID,
		"symbol", o.Symbol,
	)
	a.publish(*o, nil)
	return true, nil
}

// match runs every working order of the quote's symbol through m in
// insertion order.
func (a *Account) match(m *QuoteMatcher, q Quote) []Execution {
	var out []Execution
	for _, o := range a.working[q.Symbol] {
		out = append(out, m.Match(o, q)...)
	}
	return out
}

// apply handles one execution of this account. last marks the final
// execution of its order in the current pass, when a terminal cancel may
// release the reserved residual.
func (a *Account) apply(ex Execution, last bool) error {
	o := ex.Order
	if o.Status.IsTerminal() {
		a.removeWorking(o)
	}
	if ex.Trade.IsFill() {
		if _, err := a.ledger.Settle(ex.Trade); err != nil {
			return err
		}
	}
	if last {
		a.ledger.Unfreeze(o)
	}
	a.publish(ex.Trade.Order, ex.Trade)
	return nil
}

// cancel removes a working order. Unknown ids are ignored.
func (a *Account) cancel(sysID, symbol string) bool {
	for _, o := range a.working[symbol] {
		if o.OrderSysID != sysID {
			continue
		}
		a.cancelled(o)
		return true
	}
	return false
}

// cancelled finishes an order that was taken off the book or working set.
func (a *Account) cancelled(o *domain.Order) {
	o.MarkCancelled()
	a.removeWorking(o)
	a.ledger.Unfreeze(o)
	a.publish(*o, nil)
}

func (a *Account) removeWorking(o *domain.Order) {
	orders := a.working[o.Symbol]
	if i := slices.Index(orders, o); i >= 0 {
		a.working[o.Symbol] = slices.Delete(orders, i, i+1)
	}
}

// publish appends to the history and then notifies the sink: the order
// update always, the trade update only for fills.
func (a *Account) publish(o domain.Order, t *domain.Trade) {
	v := a.venue
	v.recorder.AppendOrder(o)
	fill := t != nil && t.IsFill()
	if fill {
		v.recorder.AppendTrade(*t)
	}
	v.sink.OrderUpdated(o)
	if fill {
		v.sink.TradeUpdated(*t)
	}
}

// reset discards buffered and working orders without notification.
func (a *Account) reset(day string) {
	a.pending = nil
	clear(a.working)
	a.ledger.RollTradingDay(day)
}
