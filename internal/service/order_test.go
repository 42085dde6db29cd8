package service

import (
	"errors"
	"testing"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/engine"
)

func TestSubmitOrder_QueuedAndMatched(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	orders := NewOrderService(env.manager, env.history)
	market := NewMarketService(env.manager)

	req, err := orders.SubmitOrder(limitOrder("acc-1", "c-1", 3984, 1))
	if err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}
	if req.OrderID != "c-1" {
		t.Errorf("OrderID = %q, want c-1", req.OrderID)
	}
	if err := market.PushTick(tickReq(3982, 3981, 3984, 5)); err != nil {
		t.Fatalf("PushTick() error = %v", err)
	}
	env.sync(t)

	list, total, err := orders.ListOrders("acc-1", nil, 1, 20)
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if total != 1 || list[0].Status != domain.OrderStatusAllTraded {
		t.Fatalf("ListOrders() = %+v (total %d), want one all_traded order", list, total)
	}
	got, err := orders.GetOrder("acc-1", list[0].OrderSysID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if got.TradedVolume != 1 {
		t.Errorf("TradedVolume = %v, want 1", got.TradedVolume)
	}

	trades, err := orders.ListTrades("acc-1", "")
	if err != nil {
		t.Fatalf("ListTrades() error = %v", err)
	}
	if len(trades) != 1 || trades[0].Price != 3982 || trades[0].Volume != 1 {
		t.Errorf("ListTrades() = %+v, want one fill of 1 @ 3982", trades)
	}
}

func TestSubmitOrder_Defaults(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	svc := NewOrderService(env.manager, env.history)

	req := limitOrder("acc-1", "", 100, 1)
	req.Multiplier = 0
	got, err := svc.SubmitOrder(req)
	if err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}
	if got.OrderID == "" {
		t.Error("expected a generated order id")
	}
	if got.Multiplier != 1 {
		t.Errorf("Multiplier = %v, want 1", got.Multiplier)
	}
}

func TestSubmitOrder_MarketWithoutPrice(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	svc := NewOrderService(env.manager, env.history)

	req := limitOrder("acc-1", "m-1", 0, 1)
	req.PriceType = domain.PriceTypeMarket
	if _, err := svc.SubmitOrder(req); err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}
}

func TestSubmitOrder_Validation(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	svc := NewOrderService(env.manager, env.history)

	tests := []struct {
		name   string
		mutate func(*SubmitOrderRequest)
	}{
		{"empty account", func(r *SubmitOrderRequest) { r.AccountID = "" }},
		{"bad account", func(r *SubmitOrderRequest) { r.AccountID = "a b" }},
		{"bad symbol", func(r *SubmitOrderRequest) { r.Symbol = "rb 1905" }},
		{"bad order id", func(r *SubmitOrderRequest) { r.OrderID = "id with spaces" }},
		{"bad direction", func(r *SubmitOrderRequest) { r.Direction = "buy" }},
		{"bad offset", func(r *SubmitOrderRequest) { r.Offset = "flat" }},
		{"bad price type", func(r *SubmitOrderRequest) { r.PriceType = "stop" }},
		{"zero limit price", func(r *SubmitOrderRequest) { r.Price = 0 }},
		{"zero fok price", func(r *SubmitOrderRequest) { r.PriceType = domain.PriceTypeFOK; r.Price = 0 }},
		{"negative market price", func(r *SubmitOrderRequest) { r.PriceType = domain.PriceTypeMarket; r.Price = -1 }},
		{"zero volume", func(r *SubmitOrderRequest) { r.Volume = 0 }},
		{"negative multiplier", func(r *SubmitOrderRequest) { r.Multiplier = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := limitOrder("acc-1", "c-1", 100, 1)
			tt.mutate(&req)

			_, err := svc.SubmitOrder(req)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("SubmitOrder() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestSubmitOrder_StoppedManager(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	svc := NewOrderService(env.manager, env.history)
	env.manager.Stop()

	if _, err := svc.SubmitOrder(limitOrder("acc-1", "c-1", 100, 1)); !errors.Is(err, domain.ErrManagerStopped) {
		t.Errorf("SubmitOrder() error = %v, want %v", err, domain.ErrManagerStopped)
	}
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t, engine.ModeBook)
	svc := NewOrderService(env.manager, env.history)

	if _, err := svc.SubmitOrder(limitOrder("acc-1", "c-1", 100, 5)); err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}
	env.sync(t)
	list, _, _ := svc.ListOrders("acc-1", nil, 1, 20)
	sysID := list[0].OrderSysID

	if err := svc.CancelOrder(CancelOrderRequest{AccountID: "acc-1", Symbol: "rb1905", OrderSysID: sysID}); err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	env.sync(t)

	got, err := svc.GetOrder("acc-1", sysID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if got.Status != domain.OrderStatusCancelled {
		t.Errorf("Status = %v, want %v", got.Status, domain.OrderStatusCancelled)
	}

	// Unknown ids are queued and ignored.
	if err := svc.CancelOrder(CancelOrderRequest{AccountID: "acc-1", Symbol: "rb1905", OrderSysID: "nope"}); err != nil {
		t.Errorf("CancelOrder(unknown) error = %v", err)
	}
}

func TestCancelOrder_Validation(t *testing.T) {
	env := newTestEnv(t, engine.ModeBook)
	svc := NewOrderService(env.manager, env.history)

	tests := []CancelOrderRequest{
		{AccountID: "", Symbol: "rb1905", OrderSysID: "1"},
		{AccountID: "acc-1", Symbol: "", OrderSysID: "1"},
		{AccountID: "acc-1", Symbol: "rb1905", OrderSysID: ""},
	}
	for _, req := range tests {
		var ve *domain.ValidationError
		if err := svc.CancelOrder(req); !errors.As(err, &ve) {
			t.Errorf("CancelOrder(%+v) error = %v, want ValidationError", req, err)
		}
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	svc := NewOrderService(env.manager, env.history)

	if _, err := svc.GetOrder("acc-1", "1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("GetOrder() error = %v, want %v", err, domain.ErrOrderNotFound)
	}
}

func TestListOrders_Validation(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	svc := NewOrderService(env.manager, env.history)

	bad := domain.OrderStatus("pending")
	tests := []struct {
		name        string
		status      *domain.OrderStatus
		page, limit int
	}{
		{"bad status", &bad, 1, 20},
		{"page zero", nil, 0, 20},
		{"limit zero", nil, 1, 0},
		{"limit too large", nil, 1, 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *domain.ValidationError
			if _, _, err := svc.ListOrders("acc-1", tt.status, tt.page, tt.limit); !errors.As(err, &ve) {
				t.Errorf("ListOrders() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestListOrders_StatusFilter(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	svc := NewOrderService(env.manager, env.history)
	market := NewMarketService(env.manager)

	// A close without a position is rejected at admission.
	closing := limitOrder("acc-1", "c-1", 100, 1)
	closing.Offset = domain.OffsetClose
	svc.SubmitOrder(closing)
	svc.SubmitOrder(limitOrder("acc-1", "c-2", 90, 1))
	market.PushTick(tickReq(100, 99, 101, 10))
	env.sync(t)

	rejected := domain.OrderStatusRejected
	list, total, err := svc.ListOrders("acc-1", &rejected, 1, 20)
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if total != 1 || list[0].OrderID != "c-1" {
		t.Errorf("ListOrders(rejected) = %+v, want c-1", list)
	}
	if list[0].StatusMsg != domain.StatusMsgRejectedPosition {
		t.Errorf("StatusMsg = %q, want %q", list[0].StatusMsg, domain.StatusMsgRejectedPosition)
	}
}

func TestListTrades_Validation(t *testing.T) {
	env := newTestEnv(t, engine.ModeQuote)
	svc := NewOrderService(env.manager, env.history)

	var ve *domain.ValidationError
	if _, err := svc.ListTrades("", ""); !errors.As(err, &ve) {
		t.Errorf("ListTrades() error = %v, want ValidationError", err)
	}
	if _, err := svc.ListTrades("acc-1", "bad symbol"); !errors.As(err, &ve) {
		t.Errorf("ListTrades() error = %v, want ValidationError", err)
	}
	trades, err := svc.ListTrades("acc-1", "")
	if err != nil || len(trades) != 0 {
		t.Errorf("ListTrades() = %v, %v, want empty", trades, err)
	}
}
