package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("ws://localhost:8080/feed")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.BaseDelay != DefaultBaseDelay || cfg.MaxDelay != DefaultMaxDelay {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config { return DefaultConfig("ws://localhost:8080/feed") }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty url", func(c *Config) { c.URL = "" }, ErrEmptyURL},
		{"zero base delay", func(c *Config) { c.BaseDelay = 0 }, ErrInvalidDelay},
		{"negative base delay", func(c *Config) { c.BaseDelay = -time.Second }, ErrInvalidDelay},
		{"max below base", func(c *Config) { c.MaxDelay = c.BaseDelay / 2 }, ErrInvalidMaxDelay},
		{"jitter above one", func(c *Config) { c.JitterFactor = 1.5 }, ErrInvalidJitter},
		{"jitter negative", func(c *Config) { c.JitterFactor = -0.1 }, ErrInvalidJitter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestComputeBackoff_GrowsAndCaps(t *testing.T) {
	cfg := DefaultConfig("ws://localhost:8080/feed")
	cfg.JitterFactor = 0 // deterministic
	client, err := NewClient(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	want := []time.Duration{
		DefaultBaseDelay,
		2 * DefaultBaseDelay,
		4 * DefaultBaseDelay,
		8 * DefaultBaseDelay,
	}
	for i, w := range want {
		client.reconnectCount = int64(i)
		if got := client.computeBackoff(); got != w {
			t.Errorf("attempt %d: backoff = %v, want %v", i, got, w)
		}
	}

	client.reconnectCount = 60 // far beyond the shift cap
	if got := client.computeBackoff(); got != cfg.MaxDelay {
		t.Errorf("capped backoff = %v, want %v", got, cfg.MaxDelay)
	}
}

func TestComputeBackoff_JitterBounds(t *testing.T) {
	cfg := DefaultConfig("ws://localhost:8080/feed")
	client, err := NewClient(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.reconnectCount = 3
	base := 8 * DefaultBaseDelay
	lo := time.Duration(float64(base) * (1 - cfg.JitterFactor/2))
	hi := time.Duration(float64(base) * (1 + cfg.JitterFactor/2))

	for i := 0; i < 100; i++ {
		got := client.computeBackoff()
		if got < lo || got > hi {
			t.Fatalf("backoff %v outside jitter window [%v, %v]", got, lo, hi)
		}
	}
}
