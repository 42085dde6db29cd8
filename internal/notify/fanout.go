package notify

import (
	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/engine"
)

// Fanout forwards each callback to every sink in order.
type Fanout []engine.Sink

// OrderUpdated implements engine.Sink.
func (f Fanout) OrderUpdated(o domain.Order) {
	for _, s := range f {
		s.OrderUpdated(o)
	}
}

// TradeUpdated implements engine.Sink.
func (f Fanout) TradeUpdated(t domain.Trade) {
	for _, s := range f {
		s.TradeUpdated(t)
	}
}
