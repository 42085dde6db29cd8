package engine

import "github.com/efreitasn/simmatch/internal/domain"

// epsilon is the smallest volume treated as a fill.
const epsilon = 1e-4

// Execution is one outcome of a matching pass: the live order it touched and
// the trade record produced for it. Trade.Volume is zero for cancellations.
type Execution struct {
	Order *domain.Order
	Trade *domain.Trade
}

// applyFill adds volume to the order and derives its status. Orders whose
// price type cancels the remainder end part_cancelled when not fully traded.
func applyFill(o *domain.Order, volume float64) {
	o.TradedVolume += volume
	if o.TotalVolume-o.TradedVolume < epsilon {
		o.TradedVolume = o.TotalVolume
		o.SetStatus(domain.OrderStatusAllTraded, domain.StatusMsgAllTraded)
		return
	}
	if o.PriceType.CancelsRemainder() {
		o.SetStatus(domain.OrderStatusPartCancelled, domain.StatusMsgPartCancelled)
		return
	}
	o.SetStatus(domain.OrderStatusPartTraded, domain.StatusMsgPartTraded)
}

// cancelExecution cancels o and returns the zero-volume bookkeeping record.
func cancelExecution(o *domain.Order, date, clock string) Execution {
	o.MarkCancelled()
	return Execution{Order: o, Trade: domain.NewTrade(*o, "", 0, 0, date, clock)}
}
