package service

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/engine"
	"github.com/efreitasn/simmatch/internal/store"
)

var (
	accountIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	orderIDRegex   = regexp.MustCompile(`^[a-zA-Z0-9_.:-]{1,64}$`)
	symbolRegex    = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,32}$`)
)

// ValidOrderStatuses lists all valid order status values for validation.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusUnknown:       true,
	domain.OrderStatusNotTraded:     true,
	domain.OrderStatusPartTraded:    true,
	domain.OrderStatusAllTraded:     true,
	domain.OrderStatusPartCancelled: true,
	domain.OrderStatusCancelled:     true,
	domain.OrderStatusRejected:      true,
}

// SubmitOrderRequest represents the input for order submission.
type SubmitOrderRequest struct {
	AccountID  string
	OrderID    string // generated when empty
	Symbol     string
	UserID     string
	Direction  domain.Direction
	Offset     domain.Offset
	PriceType  domain.PriceType
	Price      float64
	Volume     float64
	Multiplier float64 // defaults to 1
}

// CancelOrderRequest represents the input for order cancellation.
type CancelOrderRequest struct {
	AccountID  string
	Symbol     string
	OrderSysID string
}

// OrderService validates order requests, queues them on the matching worker
// and serves order and trade history.
type OrderService struct {
	manager *engine.Manager
	history *store.History
}

// NewOrderService creates a new OrderService with the given dependencies.
func NewOrderService(manager *engine.Manager, history *store.History) *OrderService {
	return &OrderService{
		manager: manager,
		history: history,
	}
}

// SubmitOrder validates the request and queues it. The outcome is reported
// asynchronously through order and trade updates. Returns the request as
// queued, including the generated client order id.
func (s *OrderService) SubmitOrder(req SubmitOrderRequest) (domain.OrderRequest, error) {
	if err := validateAccountID(req.AccountID); err != nil {
		return domain.OrderRequest{}, err
	}
	if err := validateSymbol(req.Symbol); err != nil {
		return domain.OrderRequest{}, err
	}
	if req.OrderID != "" && !orderIDRegex.MatchString(req.OrderID) {
		return domain.OrderRequest{}, &domain.ValidationError{
			Message: "order_id must match ^[a-zA-Z0-9_.:-]{1,64}$",
		}
	}
	switch req.Direction {
	case domain.DirectionLong, domain.DirectionShort:
	default:
		return domain.OrderRequest{}, &domain.ValidationError{
			Message: "direction must be 'long' or 'short'",
		}
	}
	switch req.Offset {
	case domain.OffsetOpen, domain.OffsetClose, domain.OffsetCloseYesterday, domain.OffsetCloseToday:
	default:
		return domain.OrderRequest{}, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown offset: %s. Must be one of: open, close, close_yesterday, close_today", req.Offset),
		}
	}
	switch req.PriceType {
	case domain.PriceTypeLimit, domain.PriceTypeFAK, domain.PriceTypeFOK:
		if req.Price <= 0 {
			return domain.OrderRequest{}, &domain.ValidationError{
				Message: "price must be greater than 0",
			}
		}
	case domain.PriceTypeMarket:
		if req.Price < 0 {
			return domain.OrderRequest{}, &domain.ValidationError{
				Message: "price must not be negative",
			}
		}
	default:
		return domain.OrderRequest{}, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown price type: %s. Must be one of: limit, market, fak, fok", req.PriceType),
		}
	}
	if req.Volume <= 0 {
		return domain.OrderRequest{}, &domain.ValidationError{
			Message: "volume must be greater than 0",
		}
	}
	if req.Multiplier < 0 {
		return domain.OrderRequest{}, &domain.ValidationError{
			Message: "multiplier must be greater than 0",
		}
	}

	out := domain.OrderRequest{
		AccountID:  req.AccountID,
		OrderID:    req.OrderID,
		Symbol:     req.Symbol,
		UserID:     req.UserID,
		Direction:  req.Direction,
		Offset:     req.Offset,
		PriceType:  req.PriceType,
		Price:      req.Price,
		Volume:     req.Volume,
		Multiplier: req.Multiplier,
	}
	if out.OrderID == "" {
		out.OrderID = uuid.New().String()
	}
	if out.Multiplier == 0 {
		out.Multiplier = 1
	}

	if err := s.manager.SubmitOrder(out); err != nil {
		return domain.OrderRequest{}, err
	}
	return out, nil
}

// CancelOrder validates and queues a cancellation. Cancelling an unknown or
// already finished order is not an error; nothing happens.
func (s *OrderService) CancelOrder(req CancelOrderRequest) error {
	if err := validateAccountID(req.AccountID); err != nil {
		return err
	}
	if err := validateSymbol(req.Symbol); err != nil {
		return err
	}
	if req.OrderSysID == "" {
		return &domain.ValidationError{Message: "order_sys_id is required"}
	}
	return s.manager.CancelOrder(domain.CancelRequest{
		AccountID:  req.AccountID,
		Symbol:     req.Symbol,
		OrderSysID: req.OrderSysID,
	})
}

// GetOrder returns the latest known state of an order.
func (s *OrderService) GetOrder(accountID, sysID string) (domain.Order, error) {
	return s.history.Orders.Get(accountID, sysID)
}

// ListOrders returns a paginated list of an account's orders, newest first,
// with optional status filtering.
func (s *OrderService) ListOrders(accountID string, status *domain.OrderStatus, page, limit int) ([]domain.Order, int, error) {
	if err := validateAccountID(accountID); err != nil {
		return nil, 0, err
	}

	// Validate status if provided.
	if status != nil {
		if !ValidOrderStatuses[*status] {
			return nil, 0, &domain.ValidationError{
				Message: fmt.Sprintf("Invalid status filter: '%s'. Must be one of: unknown, not_traded, part_traded, all_traded, part_cancelled, cancelled, rejected", *status),
			}
		}
	}

	// Validate pagination.
	if page < 1 {
		return nil, 0, &domain.ValidationError{
			Message: "page must be >= 1",
		}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{
			Message: "limit must be between 1 and 100",
		}
	}

	orders, total := s.history.Orders.ListByAccount(accountID, status, page, limit)
	return orders, total, nil
}

// ListTrades returns an account's fills in execution order, optionally for a
// single symbol.
func (s *OrderService) ListTrades(accountID, symbol string) ([]domain.Trade, error) {
	if err := validateAccountID(accountID); err != nil {
		return nil, err
	}
	if symbol != "" {
		if err := validateSymbol(symbol); err != nil {
			return nil, err
		}
	}
	return s.history.Trades.ListByAccount(accountID, symbol), nil
}

func validateAccountID(id string) error {
	if !accountIDRegex.MatchString(id) {
		return &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	return nil
}

func validateSymbol(symbol string) error {
	if !symbolRegex.MatchString(symbol) {
		return &domain.ValidationError{
			Message: "symbol must match ^[a-zA-Z0-9._-]{1,32}$",
		}
	}
	return nil
}
