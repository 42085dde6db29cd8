package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simmatch/internal/service"
)

// Services bundles the services the router exposes.
type Services struct {
	Orders    *service.OrderService
	Market    *service.MarketService
	Positions *service.PositionService
	Webhooks  *service.WebhookService
}

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware. alive reports whether the matching
// worker is still running; metrics serves the Prometheus exposition.
func NewRouter(svcs Services, alive func() bool, metrics http.Handler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	orderH := NewOrderHandler(svcs.Orders)
	accountH := NewAccountHandler(svcs.Positions)
	marketH := NewMarketHandler(svcs.Market, svcs.Positions)
	webhookH := NewWebhookHandler(svcs.Webhooks)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if alive != nil && !alive() {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "matching_stopped"})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	// Order routes.
	r.Post("/orders", orderH.SubmitOrder)
	r.Delete("/orders/{order_sys_id}", orderH.CancelOrder)

	// Account routes.
	r.Route("/accounts/{account_id}", func(r chi.Router) {
		r.Get("/orders", orderH.ListOrders)
		r.Get("/orders/{order_sys_id}", orderH.GetOrder)
		r.Get("/trades", orderH.ListTrades)
		r.Get("/positions", accountH.GetPositions)
		r.Get("/working-orders", accountH.GetWorkingOrders)
	})

	// Market routes.
	r.Post("/market/ticks", marketH.PushTick)
	r.Post("/market/bars", marketH.PushBar)
	r.Put("/market/trading-day", marketH.SetTradingDay)
	r.Get("/market/{symbol}/depth", marketH.GetDepth)

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
