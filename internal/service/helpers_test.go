package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/efreitasn/simmatch/internal/engine"
	"github.com/efreitasn/simmatch/internal/ledger"
	"github.com/efreitasn/simmatch/internal/store"
)

var baseTime = time.Date(2019, 1, 2, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv is a running matching worker with its history.
type testEnv struct {
	manager *engine.Manager
	history *store.History
}

func newTestEnv(t *testing.T, mode engine.Mode) *testEnv {
	t.Helper()
	margins, err := ledger.ParseMarginTable("*:0.1")
	if err != nil {
		t.Fatalf("ParseMarginTable() error = %v", err)
	}
	history := store.NewHistory()
	v := engine.NewVenue(engine.VenueConfig{
		Mode:  mode,
		Quote: engine.DefaultQuoteConfig(),
		Ledger: ledger.Config{
			Kind:          ledger.KindFuture,
			Margins:       margins,
			PriceDecimals: 2,
		},
	},
		engine.WithClock(func() time.Time { return baseTime }),
		engine.WithRecorder(history),
		engine.WithLogger(discardLogger()),
	)
	m := engine.NewManager(v, 64, 10*time.Millisecond, discardLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go m.Run(ctx)
	return &testEnv{manager: m, history: history}
}

// sync waits until every event queued so far has been applied.
func (e *testEnv) sync(t *testing.T) {
	t.Helper()
	if err := e.manager.Query(context.Background(), func(*engine.Venue) {}); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
}

func limitOrder(account, id string, price, volume float64) SubmitOrderRequest {
	return SubmitOrderRequest{
		AccountID:  account,
		OrderID:    id,
		Symbol:     "rb1905",
		Direction:  "long",
		Offset:     "open",
		PriceType:  "limit",
		Price:      price,
		Volume:     volume,
		Multiplier: 10,
	}
}

func tickReq(last, bid, ask, volume float64) TickRequest {
	return TickRequest{
		Symbol:     "rb1905",
		TradingDay: "20190102",
		ActionDay:  "20190102",
		Time:       "09:30:01",
		LastPrice:  last,
		Volume:     volume,
		BidPrices:  []float64{bid},
		BidVolumes: []float64{10},
		AskPrices:  []float64{ask},
		AskVolumes: []float64{10},
	}
}
