package store

import "github.com/efreitasn/simmatch/internal/domain"

// History combines the order and trade logs into the recorder the matching
// engine appends to.
type History struct {
	Orders *OrderStore
	Trades *TradeStore
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{
		Orders: NewOrderStore(),
		Trades: NewTradeStore(),
	}
}

// AppendOrder records an order update.
func (h *History) AppendOrder(o domain.Order) {
	h.Orders.AppendOrder(o)
}

// AppendTrade records a fill. Zero-volume records are not fills and are
// dropped.
func (h *History) AppendTrade(t domain.Trade) {
	if !t.IsFill() {
		return
	}
	h.Trades.AppendTrade(t)
}
