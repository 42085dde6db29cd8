package store

import (
	"sync"

	"github.com/efreitasn/simmatch/internal/domain"
)

// OrderStore is a thread-safe in-memory log of order updates. It keeps the
// full update sequence and, per account, the latest snapshot of each order in
// first-seen order.
type OrderStore struct {
	mu        sync.RWMutex
	updates   []domain.Order
	latest    map[string]map[string]int // account_id → order key → index in byAccount
	byAccount map[string][]domain.Order
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		latest:    make(map[string]map[string]int),
		byAccount: make(map[string][]domain.Order),
	}
}

// orderKey identifies an order within its account. Rejected orders carry no
// system id.
func orderKey(o domain.Order) string {
	if o.OrderSysID != "" {
		return o.OrderSysID
	}
	return "client:" + o.OrderID
}

// AppendOrder records an order update.
func (s *OrderStore) AppendOrder(o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = append(s.updates, o)
	idx := s.latest[o.AccountID]
	if idx == nil {
		idx = make(map[string]int)
		s.latest[o.AccountID] = idx
	}
	key := orderKey(o)
	if i, ok := idx[key]; ok {
		s.byAccount[o.AccountID][i] = o
		return
	}
	idx[key] = len(s.byAccount[o.AccountID])
	s.byAccount[o.AccountID] = append(s.byAccount[o.AccountID], o)
}

// Get returns the latest snapshot of an order by system id. It returns
// domain.ErrOrderNotFound if the account has no such order.
func (s *OrderStore) Get(accountID, sysID string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.latest[accountID][sysID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return s.byAccount[accountID][i], nil
}

// ListByAccount returns the latest snapshot of an account's orders, newest
// first. If status is non-nil, only orders in that status are included.
// Pagination is 1-based. Returns the requested page and the total count of
// matching orders before pagination.
func (s *OrderStore) ListByAccount(accountID string, status *domain.OrderStatus, page, limit int) ([]domain.Order, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byAccount[accountID]
	filtered := make([]domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start >= total {
		return []domain.Order{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

// Updates returns a copy of every recorded update in arrival order.
func (s *OrderStore) Updates() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, len(s.updates))
	copy(out, s.updates)
	return out
}
