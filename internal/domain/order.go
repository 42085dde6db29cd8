package domain

import "time"

// Direction indicates whether an order buys (long) or sells (short).
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionLong {
		return DirectionShort
	}
	return DirectionLong
}

// Offset states whether an order opens a position or closes an existing one.
type Offset string

const (
	OffsetOpen           Offset = "open"
	OffsetClose          Offset = "close"
	OffsetCloseYesterday Offset = "close_yesterday"
	OffsetCloseToday     Offset = "close_today"
)

// IsClose reports whether the offset reduces an existing position.
func (o Offset) IsClose() bool {
	return o == OffsetClose || o == OffsetCloseYesterday || o == OffsetCloseToday
}

// PriceType distinguishes resting limit orders from the immediate kinds.
type PriceType string

const (
	PriceTypeLimit  PriceType = "limit"
	PriceTypeMarket PriceType = "market"
	PriceTypeFAK    PriceType = "fak"
	PriceTypeFOK    PriceType = "fok"
)

// CancelsRemainder reports whether any volume left after a matching pass is
// cancelled instead of resting.
func (p PriceType) CancelsRemainder() bool {
	return p == PriceTypeMarket || p == PriceTypeFAK || p == PriceTypeFOK
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusUnknown       OrderStatus = "unknown"
	OrderStatusNotTraded     OrderStatus = "not_traded"
	OrderStatusPartTraded    OrderStatus = "part_traded"
	OrderStatusAllTraded     OrderStatus = "all_traded"
	OrderStatusPartCancelled OrderStatus = "part_cancelled"
	OrderStatusCancelled     OrderStatus = "cancelled"
	OrderStatusRejected      OrderStatus = "rejected"
)

// IsTerminal reports whether no further transition can happen.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusAllTraded, OrderStatusPartCancelled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// Status messages attached to orders on each transition.
const (
	StatusMsgUnknown          = "unknown"
	StatusMsgNotTraded        = "not traded"
	StatusMsgPartTraded       = "partially traded"
	StatusMsgAllTraded        = "all traded"
	StatusMsgPartCancelled    = "partially cancelled"
	StatusMsgCancelled        = "cancelled"
	StatusMsgRejectedPosition = "rejected: insufficient closeable position"
)

// Order is a single instruction owned by the resting-order collection until it
// reaches a terminal status. Volumes are float64 because bar participation
// without volume rounding produces fractional fills.
type Order struct {
	OrderID      string // client order id
	OrderSysID   string // assigned on acceptance
	AccountID    string
	Symbol       string
	UserID       string
	Direction    Direction
	Offset       Offset
	PriceType    PriceType
	Price        float64
	TotalVolume  float64
	TradedVolume float64
	Status       OrderStatus
	StatusMsg    string
	FrontID      int
	SessionID    int64
	Multiplier   float64
	TradingDay   string
	InsertedAt   time.Time
}

// RemainingVolume returns the volume still to be traded.
func (o *Order) RemainingVolume() float64 {
	return o.TotalVolume - o.TradedVolume
}

// SetStatus updates status and message together.
func (o *Order) SetStatus(status OrderStatus, msg string) {
	o.Status = status
	o.StatusMsg = msg
}

// MarkCancelled moves the order to cancelled, or to part_cancelled when some
// volume already traded.
func (o *Order) MarkCancelled() {
	if o.TradedVolume > 0 {
		o.SetStatus(OrderStatusPartCancelled, StatusMsgPartCancelled)
		return
	}
	o.SetStatus(OrderStatusCancelled, StatusMsgCancelled)
}

// OrderRequest is the inbound request to place an order.
type OrderRequest struct {
	AccountID  string
	OrderID    string
	Symbol     string
	UserID     string
	Direction  Direction
	Offset     Offset
	PriceType  PriceType
	Price      float64
	Volume     float64
	Multiplier float64
}

// NewOrder builds an order in status unknown from a request.
func NewOrder(req OrderRequest) *Order {
	return &Order{
		OrderID:     req.OrderID,
		AccountID:   req.AccountID,
		Symbol:      req.Symbol,
		UserID:      req.UserID,
		Direction:   req.Direction,
		Offset:      req.Offset,
		PriceType:   req.PriceType,
		Price:       req.Price,
		TotalVolume: req.Volume,
		Multiplier:  req.Multiplier,
		Status:      OrderStatusUnknown,
		StatusMsg:   StatusMsgUnknown,
	}
}

// CancelRequest identifies a resting order to cancel.
type CancelRequest struct {
	AccountID  string
	Symbol     string
	OrderSysID string
}
