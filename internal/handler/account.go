package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simmatch/internal/ledger"
	"github.com/efreitasn/simmatch/internal/notify"
	"github.com/efreitasn/simmatch/internal/service"
)

// AccountHandler handles HTTP requests for live account state.
type AccountHandler struct {
	positionSvc *service.PositionService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(positionSvc *service.PositionService) *AccountHandler {
	return &AccountHandler{positionSvc: positionSvc}
}

type sideResponse struct {
	Qty           float64 `json:"qty"`
	YdQty         float64 `json:"yd_qty"`
	TdQty         float64 `json:"td_qty"`
	Frozen        float64 `json:"frozen"`
	YdFrozen      float64 `json:"yd_frozen"`
	TdFrozen      float64 `json:"td_frozen"`
	Available     float64 `json:"available"`
	AvgPrice      float64 `json:"avg_price"`
	Margin        float64 `json:"margin"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	UpdateTime    string  `json:"update_time"`
}

type detailResponse struct {
	Direction string  `json:"direction"`
	Volume    float64 `json:"volume"`
	Price     float64 `json:"price"`
	Margin    float64 `json:"margin"`
	Yesterday bool    `json:"yesterday"`
	TradeID   string  `json:"trade_id"`
	OpenDate  string  `json:"open_date"`
}

type positionResponse struct {
	Symbol      string           `json:"symbol"`
	Multiplier  float64          `json:"multiplier"`
	NetQty      float64          `json:"net_qty"`
	Long        sideResponse     `json:"long"`
	Short       sideResponse     `json:"short"`
	RealizedPnl float64          `json:"realized_pnl"`
	LastPrice   float64          `json:"last_price"`
	TradingDay  string           `json:"trading_day"`
	Details     []detailResponse `json:"details"`
}

// positionListResponse is the JSON response for GET /accounts/{account_id}/positions.
type positionListResponse struct {
	AccountID string             `json:"account_id"`
	Positions []positionResponse `json:"positions"`
}

// workingOrdersResponse is the JSON response for GET /accounts/{account_id}/working-orders.
type workingOrdersResponse struct {
	Orders []notify.OrderPayload `json:"orders"`
}

// GetPositions handles GET /accounts/{account_id}/positions.
func (h *AccountHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")
	positions, err := h.positionSvc.Positions(r.Context(), accountID)
	if err != nil {
		mapError(w, err)
		return
	}
	out := make([]positionResponse, len(positions))
	for i := range positions {
		out[i] = buildPositionResponse(&positions[i])
	}
	WriteJSON(w, http.StatusOK, positionListResponse{AccountID: accountID, Positions: out})
}

// GetWorkingOrders handles GET /accounts/{account_id}/working-orders.
func (h *AccountHandler) GetWorkingOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.positionSvc.WorkingOrders(r.Context(), chi.URLParam(r, "account_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	out := make([]notify.OrderPayload, len(orders))
	for i, o := range orders {
		out[i] = notify.NewOrderPayload(o)
	}
	WriteJSON(w, http.StatusOK, workingOrdersResponse{Orders: out})
}

func buildPositionResponse(p *ledger.Position) positionResponse {
	details := make([]detailResponse, len(p.Details))
	for i, d := range p.Details {
		details[i] = detailResponse{
			Direction: string(d.Direction),
			Volume:    d.Volume,
			Price:     d.Price,
			Margin:    d.Margin,
			Yesterday: d.Yesterday,
			TradeID:   d.TradeID,
			OpenDate:  d.OpenDate,
		}
	}
	return positionResponse{
		Symbol:      p.Symbol,
		Multiplier:  p.Multiplier,
		NetQty:      p.NetQty(),
		Long:        buildSideResponse(&p.Long),
		Short:       buildSideResponse(&p.Short),
		RealizedPnl: p.RealizedPnl,
		LastPrice:   p.LastPrice,
		TradingDay:  p.TradingDay,
		Details:     details,
	}
}

func buildSideResponse(s *ledger.Side) sideResponse {
	return sideResponse{
		Qty:           s.Qty,
		YdQty:         s.YdQty,
		TdQty:         s.TdQty,
		Frozen:        s.Frozen,
		YdFrozen:      s.YdFrozen,
		TdFrozen:      s.TdFrozen,
		Available:     s.Available(),
		AvgPrice:      s.AvgPrice,
		Margin:        s.Margin,
		UnrealizedPnl: s.UnrealizedPnl,
		UpdateTime:    s.UpdateTime,
	}
}
