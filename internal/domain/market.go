package domain

// Depth is the number of book levels carried by a tick.
const Depth = 5

// Tick is a top-of-book snapshot. Volume is cumulative for the trading day.
type Tick struct {
	Symbol     string
	TradingDay string
	ActionDay  string
	Time       string
	LastPrice  float64
	Volume     float64
	BidPrices  [Depth]float64
	BidVolumes [Depth]float64
	AskPrices  [Depth]float64
	AskVolumes [Depth]float64
}

// Bar is an OHLC aggregate. Volume is the bar's own traded volume.
type Bar struct {
	Symbol string
	Date   string
	Time   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
