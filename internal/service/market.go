package service

import (
	"fmt"
	"regexp"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/engine"
)

var (
	dateRegex = regexp.MustCompile(`^\d{8}$`)
	timeRegex = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d+)?$`)
)

// TickRequest represents an inbound tick. Bid and ask slices hold up to
// domain.Depth levels, best first.
type TickRequest struct {
	Symbol     string
	TradingDay string
	ActionDay  string
	Time       string
	LastPrice  float64
	Volume     float64
	BidPrices  []float64
	BidVolumes []float64
	AskPrices  []float64
	AskVolumes []float64
}

// BarRequest represents an inbound bar.
type BarRequest struct {
	Symbol string
	Date   string
	Time   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MarketService validates market data and queues it on the matching worker.
type MarketService struct {
	manager *engine.Manager
}

// NewMarketService creates a new MarketService.
func NewMarketService(manager *engine.Manager) *MarketService {
	return &MarketService{manager: manager}
}

// PushTick validates and queues a tick.
func (s *MarketService) PushTick(req TickRequest) error {
	if err := validateSymbol(req.Symbol); err != nil {
		return err
	}
	if !dateRegex.MatchString(req.ActionDay) {
		return &domain.ValidationError{Message: "action_day must be a yyyymmdd date"}
	}
	if req.TradingDay != "" && !dateRegex.MatchString(req.TradingDay) {
		return &domain.ValidationError{Message: "trading_day must be a yyyymmdd date"}
	}
	if !timeRegex.MatchString(req.Time) {
		return &domain.ValidationError{Message: "time must be HH:MM:SS"}
	}
	if req.LastPrice < 0 {
		return &domain.ValidationError{Message: "last_price must not be negative"}
	}
	if req.Volume < 0 {
		return &domain.ValidationError{Message: "volume must not be negative"}
	}

	tick := domain.Tick{
		Symbol:     req.Symbol,
		TradingDay: req.TradingDay,
		ActionDay:  req.ActionDay,
		Time:       req.Time,
		LastPrice:  req.LastPrice,
		Volume:     req.Volume,
	}
	levels := []struct {
		name string
		src  []float64
		dst  *[domain.Depth]float64
	}{
		{"bid_prices", req.BidPrices, &tick.BidPrices},
		{"bid_volumes", req.BidVolumes, &tick.BidVolumes},
		{"ask_prices", req.AskPrices, &tick.AskPrices},
		{"ask_volumes", req.AskVolumes, &tick.AskVolumes},
	}
	for _, l := range levels {
		if len(l.src) > domain.Depth {
			return &domain.ValidationError{
				Message: fmt.Sprintf("%s must have at most %d levels", l.name, domain.Depth),
			}
		}
		for i, v := range l.src {
			if v < 0 {
				return &domain.ValidationError{Message: l.name + " must not be negative"}
			}
			l.dst[i] = v
		}
	}

	return s.manager.PushTick(tick)
}

// PushBar validates and queues a bar.
func (s *MarketService) PushBar(req BarRequest) error {
	if err := validateSymbol(req.Symbol); err != nil {
		return err
	}
	if !dateRegex.MatchString(req.Date) {
		return &domain.ValidationError{Message: "date must be a yyyymmdd date"}
	}
	if !timeRegex.MatchString(req.Time) {
		return &domain.ValidationError{Message: "time must be HH:MM:SS"}
	}
	if req.Open < 0 || req.High < 0 || req.Low < 0 || req.Close < 0 {
		return &domain.ValidationError{Message: "prices must not be negative"}
	}
	if req.High < req.Low {
		return &domain.ValidationError{Message: "high must be >= low"}
	}
	if req.Volume < 0 {
		return &domain.ValidationError{Message: "volume must not be negative"}
	}

	return s.manager.PushBar(domain.Bar{
		Symbol: req.Symbol,
		Date:   req.Date,
		Time:   req.Time,
		Open:   req.Open,
		High:   req.High,
		Low:    req.Low,
		Close:  req.Close,
		Volume: req.Volume,
	})
}

// SetTradingDay validates and queues a trading-day change. Working orders of
// the previous day are discarded when it is applied.
func (s *MarketService) SetTradingDay(day string) error {
	if !dateRegex.MatchString(day) {
		return &domain.ValidationError{Message: "trading_day must be a yyyymmdd date"}
	}
	return s.manager.SetTradingDay(day)
}
