// Package notify carries order and trade updates out of the matching engine:
// the JSON event envelope shared by every outbound channel, the Kafka sink,
// and the fan-out that feeds several sinks from one callback.
package notify

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/efreitasn/simmatch/internal/domain"
)

// Event names carried in the envelope and used as webhook subscriptions.
const (
	EventOrderUpdated  = "order.updated"
	EventTradeExecuted = "trade.executed"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope wraps every outbound event.
type Envelope struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// OrderPayload is the wire form of an order update.
type OrderPayload struct {
	AccountID       string  `json:"account_id"`
	OrderID         string  `json:"order_id"`
	OrderSysID      string  `json:"order_sys_id"`
	Symbol          string  `json:"symbol"`
	Direction       string  `json:"direction"`
	Offset          string  `json:"offset"`
	PriceType       string  `json:"price_type"`
	Price           float64 `json:"price"`
	TotalVolume     float64 `json:"total_volume"`
	TradedVolume    float64 `json:"traded_volume"`
	RemainingVolume float64 `json:"remaining_volume"`
	Status          string  `json:"status"`
	StatusMsg       string  `json:"status_msg"`
	FrontID         int     `json:"front_id"`
	SessionID       int64   `json:"session_id"`
	TradingDay      string  `json:"trading_day"`
	InsertedAt      string  `json:"inserted_at,omitempty"`
}

// TradePayload is the wire form of a fill.
type TradePayload struct {
	TradeID     string  `json:"trade_id"`
	AccountID   string  `json:"account_id"`
	OrderID     string  `json:"order_id"`
	OrderSysID  string  `json:"order_sys_id"`
	Symbol      string  `json:"symbol"`
	Direction   string  `json:"direction"`
	Offset      string  `json:"offset"`
	Price       float64 `json:"price"`
	Volume      float64 `json:"volume"`
	TradeDate   string  `json:"trade_date"`
	TradeTime   string  `json:"trade_time"`
	TradingDay  string  `json:"trading_day"`
	OrderStatus string  `json:"order_status"`
}

// NewOrderPayload converts an order snapshot.
func NewOrderPayload(o domain.Order) OrderPayload {
	p := OrderPayload{
		AccountID:       o.AccountID,
		OrderID:         o.OrderID,
		OrderSysID:      o.OrderSysID,
		Symbol:          o.Symbol,
		Direction:       string(o.Direction),
		Offset:          string(o.Offset),
		PriceType:       string(o.PriceType),
		Price:           o.Price,
		TotalVolume:     o.TotalVolume,
		TradedVolume:    o.TradedVolume,
		RemainingVolume: o.RemainingVolume(),
		Status:          string(o.Status),
		StatusMsg:       o.StatusMsg,
		FrontID:         o.FrontID,
		SessionID:       o.SessionID,
		TradingDay:      o.TradingDay,
	}
	if !o.InsertedAt.IsZero() {
		p.InsertedAt = o.InsertedAt.UTC().Format(time.RFC3339Nano)
	}
	return p
}

// NewTradePayload converts a fill.
func NewTradePayload(t domain.Trade) TradePayload {
	return TradePayload{
		TradeID:     t.TradeID,
		AccountID:   t.AccountID,
		OrderID:     t.OrderID,
		OrderSysID:  t.OrderSysID,
		Symbol:      t.Symbol,
		Direction:   string(t.Direction),
		Offset:      string(t.Offset),
		Price:       t.Price,
		Volume:      t.Volume,
		TradeDate:   t.TradeDate,
		TradeTime:   t.TradeTime,
		TradingDay:  t.TradingDay,
		OrderStatus: string(t.Order.Status),
	}
}

// OrderEnvelope builds the order.updated event for o.
func OrderEnvelope(o domain.Order, now time.Time) Envelope {
	return Envelope{
		Event:     EventOrderUpdated,
		Timestamp: now.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data:      NewOrderPayload(o),
	}
}

// TradeEnvelope builds the trade.executed event for t.
func TradeEnvelope(t domain.Trade, now time.Time) Envelope {
	return Envelope{
		Event:     EventTradeExecuted,
		Timestamp: now.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data:      NewTradePayload(t),
	}
}

// Marshal encodes an envelope.
func Marshal(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}
