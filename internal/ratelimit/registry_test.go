package ratelimit

import (
	"context"
	"testing"
)

func TestRegistryRates(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		exchange string
		rate     float64
		burst    float64
	}{
		{"binance", 20, 40},
		{"okx", 300, 600},
		{"kraken", 10, 20},
	}
	for _, tt := range tests {
		l := r.For(tt.exchange)
		if l.rate != tt.rate {
			t.Fatalf("%s rate = %f, want %f", tt.exchange, l.rate, tt.rate)
		}
		if l.burst != tt.burst {
			t.Fatalf("%s burst = %f, want %f", tt.exchange, l.burst, tt.burst)
		}
	}
}

func TestRegistrySharedPerExchange(t *testing.T) {
	r := NewRegistry(nil)

	if r.For("binance") != r.For("Binance") {
		t.Fatal("exchange names should be case-insensitive")
	}
	if r.For("binance") == r.For("okx") {
		t.Fatal("exchanges must not share a limiter")
	}
}

func TestRegistryOverride(t *testing.T) {
	r := NewRegistry(map[string]float64{"Binance": 50, "bogus": -1})

	if l := r.For("binance"); l.rate != 50 {
		t.Fatalf("override rate = %f, want 50", l.rate)
	}
	// Non-positive overrides are dropped at construction.
	if l := r.For("bogus"); l.rate != _rateDefault {
		t.Fatalf("invalid override should fall back to default, got %f", l.rate)
	}
}

func TestRegistryIsolation(t *testing.T) {
	r := NewRegistry(map[string]float64{"slow": 1})

	slow := r.For("slow")
	if err := slow.Acquire(context.Background(), 2); err != nil {
		t.Fatalf("drain slow, err: %+v", err)
	}

	// Draining one exchange leaves the other's bucket untouched.
	fast := r.For("binance")
	for i := 0; i < 40; i++ {
		if err := fast.Acquire(context.Background(), 1); err != nil {
			t.Fatalf("fast acquire %d, err: %+v", i, err)
		}
	}

	stats := r.Stats()
	if stats["slow"].Requests != 1 {
		t.Fatalf("slow requests = %d, want 1", stats["slow"].Requests)
	}
	if stats["binance"].Requests != 40 {
		t.Fatalf("binance requests = %d, want 40", stats["binance"].Requests)
	}
}
