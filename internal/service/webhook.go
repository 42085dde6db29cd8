package service

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/notify"
	"github.com/efreitasn/simmatch/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	notify.EventOrderUpdated:  true,
	notify.EventTradeExecuted: true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	AccountID string
	URL       string
	Events    []string
}

// WebhookService handles webhook CRUD and delivers order and trade updates
// to subscribers. It implements engine.Sink.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
	now    func() time.Time
	logger *slog.Logger
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(webhookStore *store.WebhookStore, webhookTimeout time.Duration, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
		now:    time.Now,
		logger: logger,
	}
}

// Upsert validates the request and creates or updates webhook subscriptions.
// Returns the resulting webhooks, whether any new subscriptions were created, and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if err := validateAccountID(req.AccountID); err != nil {
		return nil, false, err
	}

	// Validate URL.
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	// Validate events.
	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: order.updated, trade.executed",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	// Upsert each (account_id, event) pair.
	now := s.now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			AccountID: req.AccountID,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if s.store.Upsert(w) {
			anyCreated = true
		}
		webhooks = append(webhooks, w)
	}

	return webhooks, anyCreated, nil
}

// List returns all webhook subscriptions of an account.
func (s *WebhookService) List(accountID string) ([]*domain.Webhook, error) {
	if err := validateAccountID(accountID); err != nil {
		return nil, err
	}
	return s.store.ListByAccount(accountID), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// OrderUpdated delivers an order.updated event to the order's account.
func (s *WebhookService) OrderUpdated(o domain.Order) {
	s.dispatch(o.AccountID, notify.OrderEnvelope(o, s.now()))
}

// TradeUpdated delivers a trade.executed event to the trade's account.
func (s *WebhookService) TradeUpdated(t domain.Trade) {
	if !t.IsFill() {
		return
	}
	s.dispatch(t.AccountID, notify.TradeEnvelope(t, s.now()))
}

// dispatch looks up the subscription and delivers in the background. The
// payload is encoded up front so the delivery goroutine shares no state with
// the caller.
func (s *WebhookService) dispatch(accountID string, e notify.Envelope) {
	wh := s.store.GetByAccountEvent(accountID, e.Event)
	if wh == nil {
		return
	}
	body, err := notify.Marshal(e)
	if err != nil {
		s.logger.Error("encode webhook payload", "event", e.Event, "error", err)
		return
	}
	go s.deliver(wh, e.Event, body)
}

// deliver sends the webhook payload via HTTP POST with the required headers.
// Failures are logged and not retried.
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	deliveryID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", deliveryID)
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webhook delivery failed", "webhook_id", wh.WebhookID, "delivery_id", deliveryID, "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		s.logger.Warn("webhook rejected", "webhook_id", wh.WebhookID, "delivery_id", deliveryID, "status", resp.StatusCode)
	}
}
