package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/notify"
	"github.com/efreitasn/simmatch/internal/service"
)

// OrderHandler handles HTTP requests for order and trade endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	AccountID  string  `json:"account_id"`
	OrderID    string  `json:"order_id"`
	Symbol     string  `json:"symbol"`
	UserID     string  `json:"user_id"`
	Direction  string  `json:"direction"`
	Offset     string  `json:"offset"`
	PriceType  string  `json:"price_type"`
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	Multiplier float64 `json:"multiplier"`
}

// acceptedOrderResponse acknowledges a queued order. Its outcome arrives via
// order updates.
type acceptedOrderResponse struct {
	AccountID string `json:"account_id"`
	OrderID   string `json:"order_id"`
	Symbol    string `json:"symbol"`
	Status    string `json:"status"`
}

// orderListResponse is the JSON response for GET /accounts/{account_id}/orders.
type orderListResponse struct {
	Orders []notify.OrderPayload `json:"orders"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
	Total  int                   `json:"total"`
}

// tradeListResponse is the JSON response for GET /accounts/{account_id}/trades.
type tradeListResponse struct {
	Trades []notify.TradePayload `json:"trades"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	queued, err := h.orderSvc.SubmitOrder(service.SubmitOrderRequest{
		AccountID:  req.AccountID,
		OrderID:    req.OrderID,
		Symbol:     req.Symbol,
		UserID:     req.UserID,
		Direction:  domain.Direction(req.Direction),
		Offset:     domain.Offset(req.Offset),
		PriceType:  domain.PriceType(req.PriceType),
		Price:      req.Price,
		Volume:     req.Volume,
		Multiplier: req.Multiplier,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, acceptedOrderResponse{
		AccountID: queued.AccountID,
		OrderID:   queued.OrderID,
		Symbol:    queued.Symbol,
		Status:    "queued",
	})
}

// CancelOrder handles DELETE /orders/{order_sys_id}?account_id=&symbol=.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	err := h.orderSvc.CancelOrder(service.CancelOrderRequest{
		AccountID:  r.URL.Query().Get("account_id"),
		Symbol:     r.URL.Query().Get("symbol"),
		OrderSysID: chi.URLParam(r, "order_sys_id"),
	})
	if err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetOrder handles GET /accounts/{account_id}/orders/{order_sys_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.GetOrder(chi.URLParam(r, "account_id"), chi.URLParam(r, "order_sys_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, notify.NewOrderPayload(order))
}

// ListOrders handles GET /accounts/{account_id}/orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")
	q := r.URL.Query()

	var status *domain.OrderStatus
	if s := q.Get("status"); s != "" {
		st := domain.OrderStatus(s)
		status = &st
	}

	page, ok := intParam(w, q.Get("page"), "page", 1)
	if !ok {
		return
	}
	limit, ok := intParam(w, q.Get("limit"), "limit", 20)
	if !ok {
		return
	}

	orders, total, err := h.orderSvc.ListOrders(accountID, status, page, limit)
	if err != nil {
		mapError(w, err)
		return
	}

	out := make([]notify.OrderPayload, len(orders))
	for i, o := range orders {
		out[i] = notify.NewOrderPayload(o)
	}
	WriteJSON(w, http.StatusOK, orderListResponse{
		Orders: out,
		Page:   page,
		Limit:  limit,
		Total:  total,
	})
}

// ListTrades handles GET /accounts/{account_id}/trades.
func (h *OrderHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.orderSvc.ListTrades(chi.URLParam(r, "account_id"), r.URL.Query().Get("symbol"))
	if err != nil {
		mapError(w, err)
		return
	}
	out := make([]notify.TradePayload, len(trades))
	for i, t := range trades {
		out[i] = notify.NewTradePayload(t)
	}
	WriteJSON(w, http.StatusOK, tradeListResponse{Trades: out})
}

// intParam parses an optional integer query parameter, writing a 400 and
// returning false when it is malformed.
func intParam(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", name+" must be an integer")
		return 0, false
	}
	return v, true
}

// mapError maps service and domain errors to HTTP responses.
func mapError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrWebhookNotFound):
		WriteError(w, http.StatusNotFound, "webhook_not_found", err.Error())
	case errors.Is(err, domain.ErrQueueFull):
		WriteError(w, http.StatusServiceUnavailable, "queue_full", "matching queue is full, retry later")
	case errors.Is(err, domain.ErrManagerStopped):
		WriteError(w, http.StatusServiceUnavailable, "manager_stopped", "matching worker is not running")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		WriteError(w, http.StatusGatewayTimeout, "timeout", "matching worker did not answer in time")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
