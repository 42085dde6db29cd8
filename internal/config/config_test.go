package config

import (
	"os"
	"testing"
	"time"

	"github.com/efreitasn/simmatch/internal/engine"
	"github.com/efreitasn/simmatch/internal/ledger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.MatchMode != engine.ModeQuote {
		t.Errorf("MatchMode = %q, want %q", cfg.MatchMode, engine.ModeQuote)
	}
	if cfg.InstrumentKind != ledger.KindFuture {
		t.Errorf("InstrumentKind = %q, want %q", cfg.InstrumentKind, ledger.KindFuture)
	}
	if cfg.TickLevels != 1 {
		t.Errorf("TickLevels = %d, want 1", cfg.TickLevels)
	}
	if cfg.PriceImpact != 0.1 {
		t.Errorf("PriceImpact = %v, want 0.1", cfg.PriceImpact)
	}
	if cfg.VolumeLimit != 0.025 {
		t.Errorf("VolumeLimit = %v, want 0.025", cfg.VolumeLimit)
	}
	if cfg.VolumeRound != 0 {
		t.Errorf("VolumeRound = %d, want 0", cfg.VolumeRound)
	}
	if cfg.PriceDecimals != 2 {
		t.Errorf("PriceDecimals = %d, want 2", cfg.PriceDecimals)
	}
	if len(cfg.MarginRates) != 0 {
		t.Errorf("MarginRates = %v, want empty", cfg.MarginRates)
	}
	if cfg.QueueSize != 4096 {
		t.Errorf("QueueSize = %d, want 4096", cfg.QueueSize)
	}
	if cfg.PollTimeout != 1*time.Second {
		t.Errorf("PollTimeout = %v, want 1s", cfg.PollTimeout)
	}
	if cfg.WebhookTimeout != 5*time.Second {
		t.Errorf("WebhookTimeout = %v, want 5s", cfg.WebhookTimeout)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("KafkaBrokers = %v, want none", cfg.KafkaBrokers)
	}
	if cfg.KafkaOrderTopic != "simmatch.orders" {
		t.Errorf("KafkaOrderTopic = %q, want simmatch.orders", cfg.KafkaOrderTopic)
	}
	if cfg.KafkaTradeTopic != "simmatch.trades" {
		t.Errorf("KafkaTradeTopic = %q, want simmatch.trades", cfg.KafkaTradeTopic)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want 60s", cfg.IdleTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MATCH_MODE", "book")
	t.Setenv("INSTRUMENT_KIND", "equity")
	t.Setenv("TICK_LEVELS", "5")
	t.Setenv("PRICE_IMPACT", "0.2")
	t.Setenv("VOLUME_LIMIT", "0")
	t.Setenv("VOLUME_ROUND", "100")
	t.Setenv("PRICE_DECIMALS", "3")
	t.Setenv("MARGIN_RATES", "rb1905:0.1:0.12,*:0.2")
	t.Setenv("QUEUE_SIZE", "16")
	t.Setenv("POLL_TIMEOUT", "250ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_ORDER_TOPIC", "orders")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.MatchMode != engine.ModeBook {
		t.Errorf("MatchMode = %q, want book", cfg.MatchMode)
	}
	if cfg.InstrumentKind != ledger.KindEquity {
		t.Errorf("InstrumentKind = %q, want equity", cfg.InstrumentKind)
	}
	if cfg.TickLevels != 5 {
		t.Errorf("TickLevels = %d, want 5", cfg.TickLevels)
	}
	if cfg.VolumeRound != 100 {
		t.Errorf("VolumeRound = %d, want 100", cfg.VolumeRound)
	}
	if rate, ok := cfg.MarginRates["rb1905"]; !ok || rate.ShortRatio != 0.12 {
		t.Errorf("MarginRates[rb1905] = %+v, want short ratio 0.12", rate)
	}
	if _, ok := cfg.MarginRates[ledger.Wildcard]; !ok {
		t.Errorf("MarginRates missing wildcard entry")
	}
	if cfg.QueueSize != 16 {
		t.Errorf("QueueSize = %d, want 16", cfg.QueueSize)
	}
	if cfg.PollTimeout != 250*time.Millisecond {
		t.Errorf("PollTimeout = %v, want 250ms", cfg.PollTimeout)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v, want [k1:9092 k2:9092]", cfg.KafkaBrokers)
	}
	if cfg.KafkaOrderTopic != "orders" {
		t.Errorf("KafkaOrderTopic = %q, want orders", cfg.KafkaOrderTopic)
	}
}

func TestConfig_Venue(t *testing.T) {
	clearEnv(t)
	t.Setenv("MATCH_MODE", "book")
	t.Setenv("PRICE_DECIMALS", "4")
	t.Setenv("VOLUME_LIMIT", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vc := cfg.Venue()
	if vc.Mode != engine.ModeBook {
		t.Errorf("Mode = %q, want book", vc.Mode)
	}
	if vc.Quote.PriceDecimals != 4 || vc.Ledger.PriceDecimals != 4 {
		t.Errorf("PriceDecimals = %d/%d, want 4/4", vc.Quote.PriceDecimals, vc.Ledger.PriceDecimals)
	}
	if vc.Quote.VolumeLimit != 0.5 {
		t.Errorf("Quote.VolumeLimit = %v, want 0.5", vc.Quote.VolumeLimit)
	}
	if vc.Ledger.Kind != ledger.KindFuture {
		t.Errorf("Ledger.Kind = %q, want future", vc.Ledger.Kind)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "not-a-number"},
		{"LOG_LEVEL", "verbose"},
		{"MATCH_MODE", "auction"},
		{"INSTRUMENT_KIND", "option"},
		{"TICK_LEVELS", "3"},
		{"TICK_LEVELS", "one"},
		{"PRICE_IMPACT", "high"},
		{"VOLUME_LIMIT", "x"},
		{"VOLUME_ROUND", "-1"},
		{"PRICE_DECIMALS", "9"},
		{"MARGIN_RATES", "rb1905"},
		{"MARGIN_RATES", "rb1905:-0.1"},
		{"QUEUE_SIZE", "0"},
		{"POLL_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	for _, key := range durationEnvKeys {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "not-a-duration")

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for invalid %s", key)
			}
		})
	}
}
