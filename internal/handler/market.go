package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simmatch/internal/engine"
	"github.com/efreitasn/simmatch/internal/service"
)

// MarketHandler handles HTTP requests for market data endpoints.
type MarketHandler struct {
	marketSvc   *service.MarketService
	positionSvc *service.PositionService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService, positionSvc *service.PositionService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc, positionSvc: positionSvc}
}

// tickRequest is the JSON request body for POST /market/ticks.
type tickRequest struct {
	Symbol     string    `json:"symbol"`
	TradingDay string    `json:"trading_day"`
	ActionDay  string    `json:"action_day"`
	Time       string    `json:"time"`
	LastPrice  float64   `json:"last_price"`
	Volume     float64   `json:"volume"`
	BidPrices  []float64 `json:"bid_prices"`
	BidVolumes []float64 `json:"bid_volumes"`
	AskPrices  []float64 `json:"ask_prices"`
	AskVolumes []float64 `json:"ask_volumes"`
}

// barRequest is the JSON request body for POST /market/bars.
type barRequest struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// tradingDayRequest is the JSON request body for PUT /market/trading-day.
type tradingDayRequest struct {
	TradingDay string `json:"trading_day"`
}

type priceLevelResponse struct {
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	OrderCount int     `json:"order_count"`
}

// depthResponse is the JSON response for GET /market/{symbol}/depth.
type depthResponse struct {
	Symbol string               `json:"symbol"`
	Bids   []priceLevelResponse `json:"bids"`
	Asks   []priceLevelResponse `json:"asks"`
}

// PushTick handles POST /market/ticks.
func (h *MarketHandler) PushTick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	err := h.marketSvc.PushTick(service.TickRequest{
		Symbol:     req.Symbol,
		TradingDay: req.TradingDay,
		ActionDay:  req.ActionDay,
		Time:       req.Time,
		LastPrice:  req.LastPrice,
		Volume:     req.Volume,
		BidPrices:  req.BidPrices,
		BidVolumes: req.BidVolumes,
		AskPrices:  req.AskPrices,
		AskVolumes: req.AskVolumes,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// PushBar handles POST /market/bars.
func (h *MarketHandler) PushBar(w http.ResponseWriter, r *http.Request) {
	var req barRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	err := h.marketSvc.PushBar(service.BarRequest{
		Symbol: req.Symbol,
		Date:   req.Date,
		Time:   req.Time,
		Open:   req.Open,
		High:   req.High,
		Low:    req.Low,
		Close:  req.Close,
		Volume: req.Volume,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SetTradingDay handles PUT /market/trading-day.
func (h *MarketHandler) SetTradingDay(w http.ResponseWriter, r *http.Request) {
	var req tradingDayRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.marketSvc.SetTradingDay(req.TradingDay); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetDepth handles GET /market/{symbol}/depth?levels=N.
func (h *MarketHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	levels, ok := intParam(w, r.URL.Query().Get("levels"), "levels", 5)
	if !ok {
		return
	}
	depth, err := h.positionSvc.Depth(r.Context(), chi.URLParam(r, "symbol"), levels)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, depthResponse{
		Symbol: depth.Symbol,
		Bids:   buildLevels(depth.Bids),
		Asks:   buildLevels(depth.Asks),
	})
}

func buildLevels(levels []engine.PriceLevel) []priceLevelResponse {
	out := make([]priceLevelResponse, len(levels))
	for i, l := range levels {
		out[i] = priceLevelResponse{Price: l.Price, Volume: l.Volume, OrderCount: l.OrderCount}
	}
	return out
}
