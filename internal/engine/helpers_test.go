package engine

import (
	"io"
	"log/slog"
	"time"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/ledger"
)

var baseTime = time.Date(2019, 1, 2, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return baseTime }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink captures callbacks in arrival order.
type recordingSink struct {
	events []string
	orders []domain.Order
	trades []domain.Trade
}

func (s *recordingSink) OrderUpdated(o domain.Order) {
	s.events = append(s.events, "order:"+o.OrderID+":"+string(o.Status))
	s.orders = append(s.orders, o)
}

func (s *recordingSink) TradeUpdated(t domain.Trade) {
	s.events = append(s.events, "trade:"+t.OrderID)
	s.trades = append(s.trades, t)
}

func (s *recordingSink) AppendOrder(domain.Order) {}
func (s *recordingSink) AppendTrade(domain.Trade) {}

func testMargins() ledger.MarginTable {
	table, err := ledger.ParseMarginTable("*:0.1:0.1")
	if err != nil {
		panic(err)
	}
	return table
}

func newTestVenue(mode Mode) (*Venue, *recordingSink) {
	sink := &recordingSink{}
	cfg := VenueConfig{
		Mode:  mode,
		Quote: DefaultQuoteConfig(),
		Ledger: ledger.Config{
			Kind:          ledger.KindFuture,
			Margins:       testMargins(),
			PriceDecimals: 2,
		},
	}
	v := NewVenue(cfg,
		WithClock(fixedClock),
		WithSink(sink),
		WithLogger(discardLogger()),
	)
	return v, sink
}

func orderReq(account, id string, dir domain.Direction, offset domain.Offset, pt domain.PriceType, price, volume float64) domain.OrderRequest {
	return domain.OrderRequest{
		AccountID:  account,
		OrderID:    id,
		Symbol:     "rb1905",
		Direction:  dir,
		Offset:     offset,
		PriceType:  pt,
		Price:      price,
		Volume:     volume,
		Multiplier: 10,
	}
}

// newRestingOrder builds an admitted order for direct matcher tests.
func newRestingOrder(sysID string, dir domain.Direction, pt domain.PriceType, price, volume float64) *domain.Order {
	o := domain.NewOrder(orderReq("acc", "c"+sysID, dir, domain.OffsetOpen, pt, price, volume))
	o.OrderSysID = sysID
	o.SetStatus(domain.OrderStatusNotTraded, domain.StatusMsgNotTraded)
	return o
}

func tickAt(last, bid, ask, volume float64) domain.Tick {
	t := domain.Tick{
		Symbol:     "rb1905",
		TradingDay: "20190102",
		ActionDay:  "20190102",
		Time:       "09:30:01.500",
		LastPrice:  last,
		Volume:     volume,
	}
	t.BidPrices[0], t.AskPrices[0] = bid, ask
	t.BidVolumes[0], t.AskVolumes[0] = 10, 10
	return t
}
