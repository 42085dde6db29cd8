package domain

// Trade records a single fill. A trade with zero volume and an empty TradeID
// marks a cancellation and is never applied to positions.
type Trade struct {
	TradeID    string
	OrderID    string
	OrderSysID string
	AccountID  string
	Symbol     string
	UserID     string
	Direction  Direction
	Offset     Offset
	Price      float64
	Volume     float64
	TradeDate  string
	TradeTime  string
	TradingDay string
	Order      Order // order snapshot taken when the trade was produced
}

// IsFill reports whether the trade carries volume.
func (t *Trade) IsFill() bool {
	return t.Volume > 0
}

// NewTrade builds a trade from an order snapshot.
func NewTrade(order Order, tradeID string, volume, price float64, date, clock string) *Trade {
	return &Trade{
		TradeID:    tradeID,
		OrderID:    order.OrderID,
		OrderSysID: order.OrderSysID,
		AccountID:  order.AccountID,
		Symbol:     order.Symbol,
		UserID:     order.UserID,
		Direction:  order.Direction,
		Offset:     order.Offset,
		Price:      price,
		Volume:     volume,
		TradeDate:  date,
		TradeTime:  clock,
		TradingDay: order.TradingDay,
		Order:      order,
	}
}
