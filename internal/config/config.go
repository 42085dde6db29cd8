package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/simmatch/internal/engine"
	"github.com/efreitasn/simmatch/internal/ledger"
)

// Config holds all runtime configuration for the matching service.
type Config struct {
	Port     int
	LogLevel string

	MatchMode      engine.Mode
	InstrumentKind ledger.InstrumentKind
	TickLevels     int
	PriceImpact    float64
	VolumeLimit    float64
	VolumeRound    int
	PriceDecimals  int
	MarginRates    ledger.MarginTable

	QueueSize   int
	PollTimeout time.Duration

	WebhookTimeout  time.Duration
	KafkaBrokers    []string
	KafkaOrderTopic string
	KafkaTradeTopic string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	mode, err := engine.ParseMode(getStr("MATCH_MODE", string(engine.ModeQuote)))
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_MODE: %w", err)
	}

	kind, err := ledger.ParseKind(getStr("INSTRUMENT_KIND", string(ledger.KindFuture)))
	if err != nil {
		return nil, fmt.Errorf("invalid INSTRUMENT_KIND: %w", err)
	}

	tickLevels, err := getInt("TICK_LEVELS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_LEVELS: %w", err)
	}
	if tickLevels != 1 && tickLevels != 5 {
		return nil, fmt.Errorf("invalid TICK_LEVELS: %d, must be 1 or 5", tickLevels)
	}

	priceImpact, err := getFloat("PRICE_IMPACT", 0.1)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_IMPACT: %w", err)
	}

	volumeLimit, err := getFloat("VOLUME_LIMIT", 0.025)
	if err != nil {
		return nil, fmt.Errorf("invalid VOLUME_LIMIT: %w", err)
	}

	volumeRound, err := getInt("VOLUME_ROUND", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid VOLUME_ROUND: %w", err)
	}
	if volumeRound < 0 {
		return nil, fmt.Errorf("invalid VOLUME_ROUND: %d, must be >= 0", volumeRound)
	}

	priceDecimals, err := getInt("PRICE_DECIMALS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_DECIMALS: %w", err)
	}
	if priceDecimals < 0 || priceDecimals > 8 {
		return nil, fmt.Errorf("invalid PRICE_DECIMALS: %d, must be between 0 and 8", priceDecimals)
	}

	margins, err := ledger.ParseMarginTable(getStr("MARGIN_RATES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid MARGIN_RATES: %w", err)
	}

	queueSize, err := getInt("QUEUE_SIZE", 4096)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_SIZE: %w", err)
	}
	if queueSize <= 0 {
		return nil, fmt.Errorf("invalid QUEUE_SIZE: %d, must be > 0", queueSize)
	}

	pollTimeout, err := getDuration("POLL_TIMEOUT", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_TIMEOUT: %w", err)
	}
	if pollTimeout <= 0 {
		return nil, fmt.Errorf("invalid POLL_TIMEOUT: %v, must be > 0", pollTimeout)
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		MatchMode:       mode,
		InstrumentKind:  kind,
		TickLevels:      tickLevels,
		PriceImpact:     priceImpact,
		VolumeLimit:     volumeLimit,
		VolumeRound:     volumeRound,
		PriceDecimals:   priceDecimals,
		MarginRates:     margins,
		QueueSize:       queueSize,
		PollTimeout:     pollTimeout,
		WebhookTimeout:  webhookTimeout,
		KafkaBrokers:    getList("KAFKA_BROKERS"),
		KafkaOrderTopic: getStr("KAFKA_ORDER_TOPIC", "simmatch.orders"),
		KafkaTradeTopic: getStr("KAFKA_TRADE_TOPIC", "simmatch.trades"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// Venue returns the matching-domain configuration.
func (c *Config) Venue() engine.VenueConfig {
	return engine.VenueConfig{
		Mode: c.MatchMode,
		Quote: engine.QuoteConfig{
			Levels:        c.TickLevels,
			PriceImpact:   c.PriceImpact,
			VolumeLimit:   c.VolumeLimit,
			VolumeRound:   c.VolumeRound,
			PriceDecimals: int32(c.PriceDecimals),
		},
		Ledger: ledger.Config{
			Kind:          c.InstrumentKind,
			Margins:       c.MarginRates,
			PriceDecimals: int32(c.PriceDecimals),
		},
	}
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

// getList splits a comma-separated value, dropping empty items.
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
