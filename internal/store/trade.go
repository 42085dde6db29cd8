package store

import (
	"sync"

	"github.com/efreitasn/simmatch/internal/domain"
)

// TradeStore is a thread-safe in-memory store for fills, keyed by account.
// Trades are append-only and chronological.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string][]domain.Trade // account_id → trades (chronological)
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		trades: make(map[string][]domain.Trade),
	}
}

// AppendTrade adds a fill to its account's chronological list.
func (s *TradeStore) AppendTrade(t domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades[t.AccountID] = append(s.trades[t.AccountID], t)
}

// ListByAccount returns an account's trades in chronological order,
// optionally restricted to one symbol. Returns an empty slice if none exist.
func (s *TradeStore) ListByAccount(accountID, symbol string) []domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[accountID]
	result := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		result = append(result, t)
	}
	return result
}
