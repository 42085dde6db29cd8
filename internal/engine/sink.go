package engine

import (
	"time"

	"github.com/efreitasn/simmatch/internal/domain"
)

// Sink receives outbound notifications. OrderUpdated fires on every status
// transition; TradeUpdated only for trades with volume. Both run on the
// matching worker: implementations must not block for long and must not call
// back into the Manager synchronously.
type Sink interface {
	OrderUpdated(order domain.Order)
	TradeUpdated(trade domain.Trade)
}

// Recorder is the order/trade history log, appended before the sink fires.
type Recorder interface {
	AppendOrder(order domain.Order)
	AppendTrade(trade domain.Trade)
}

// Instrumentation observes the worker loop.
type Instrumentation interface {
	ObserveEvent(kind string, elapsed time.Duration)
	SetQueueDepth(n int)
}

type nopSink struct{}

func (nopSink) OrderUpdated(domain.Order) {}
func (nopSink) TradeUpdated(domain.Trade) {}

type nopRecorder struct{}

func (nopRecorder) AppendOrder(domain.Order) {}
func (nopRecorder) AppendTrade(domain.Trade) {}

type nopInstrumentation struct{}

func (nopInstrumentation) ObserveEvent(string, time.Duration) {}
func (nopInstrumentation) SetQueueDepth(int)                  {}
