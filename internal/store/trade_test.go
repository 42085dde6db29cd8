package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/efreitasn/simmatch/internal/domain"
)

func newTestTrade(accountID, id, symbol string, volume float64) domain.Trade {
	return domain.Trade{
		TradeID:   id,
		OrderID:   "c-1",
		AccountID: accountID,
		Symbol:    symbol,
		Direction: domain.DirectionLong,
		Offset:    domain.OffsetOpen,
		Price:     3982,
		Volume:    volume,
	}
}

func TestTradeStore_AppendTrade_Chronological(t *testing.T) {
	s := NewTradeStore()
	s.AppendTrade(newTestTrade("acc-1", "t-1", "rb1905", 1))
	s.AppendTrade(newTestTrade("acc-1", "t-2", "rb1905", 2))

	trades := s.ListByAccount("acc-1", "")
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].TradeID != "t-1" || trades[1].TradeID != "t-2" {
		t.Errorf("unexpected order: %s, %s", trades[0].TradeID, trades[1].TradeID)
	}
}

func TestTradeStore_ListByAccount_SymbolFilter(t *testing.T) {
	s := NewTradeStore()
	s.AppendTrade(newTestTrade("acc-1", "t-1", "rb1905", 1))
	s.AppendTrade(newTestTrade("acc-1", "t-2", "hc1905", 1))
	s.AppendTrade(newTestTrade("acc-2", "t-3", "rb1905", 1))

	trades := s.ListByAccount("acc-1", "hc1905")
	if len(trades) != 1 || trades[0].TradeID != "t-2" {
		t.Fatalf("expected only t-2, got %v", trades)
	}
}

func TestTradeStore_ListByAccount_Empty(t *testing.T) {
	s := NewTradeStore()
	trades := s.ListByAccount("nobody", "")
	if trades == nil || len(trades) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", trades)
	}
}

func TestTradeStore_ListByAccount_ReturnsCopy(t *testing.T) {
	s := NewTradeStore()
	s.AppendTrade(newTestTrade("acc-1", "t-1", "rb1905", 1))

	trades := s.ListByAccount("acc-1", "")
	trades[0].Volume = 99

	if got := s.ListByAccount("acc-1", "")[0].Volume; got != 1 {
		t.Errorf("Volume = %v, want 1", got)
	}
}

func TestHistory_DropsCancellationRecords(t *testing.T) {
	h := NewHistory()
	h.AppendTrade(newTestTrade("acc-1", "", "rb1905", 0))
	h.AppendTrade(newTestTrade("acc-1", "t-1", "rb1905", 3))
	h.AppendOrder(newTestOrder("acc-1", "c-1", "1001", domain.OrderStatusAllTraded))

	if n := len(h.Trades.ListByAccount("acc-1", "")); n != 1 {
		t.Errorf("len(trades) = %d, want 1", n)
	}
	if _, err := h.Orders.Get("acc-1", "1001"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestTradeStore_ConcurrentAppend(t *testing.T) {
	s := NewTradeStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendTrade(newTestTrade("acc-1", fmt.Sprintf("t-%d", i), "rb1905", 1))
		}(i)
	}
	wg.Wait()

	if n := len(s.ListByAccount("acc-1", "")); n != 100 {
		t.Errorf("len = %d, want 100", n)
	}
}
