package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/risk"
)

func validFileConfig() FileConfig {
	return FileConfig{
		Exchange:    "binance",
		Mode:        ModePaper,
		InitialCash: decimal.NewFromInt(10000),
		FeeRate:     decimal.NewFromFloat(0.001),
		Risk: risk.Parameters{
			MaxPositionSize:      decimal.NewFromFloat(0.3),
			StopLossPercentage:   decimal.NewFromInt(2),
			TakeProfitPercentage: decimal.NewFromInt(4),
		},
	}
}

func TestResolveDefaults(t *testing.T) {
	loaded, err := Resolve(validFileConfig())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, loaded.GatewayTimeout)
	assert.Equal(t, 3, loaded.GatewayRetries)
	assert.Equal(t, 5*time.Second, loaded.MonitorInterval)
}

func TestResolveModeDefaultsToPaper(t *testing.T) {
	cfg := validFileConfig()
	cfg.Mode = ""
	loaded, err := Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, ModePaper, loaded.Mode)
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FileConfig)
	}{
		{"empty exchange", func(c *FileConfig) { c.Exchange = "" }},
		{"unknown mode", func(c *FileConfig) { c.Mode = "dry-run" }},
		{"zero initial cash", func(c *FileConfig) { c.InitialCash = decimal.Zero }},
		{"negative fee", func(c *FileConfig) { c.FeeRate = decimal.NewFromFloat(-0.01) }},
		{"absurd fee", func(c *FileConfig) { c.FeeRate = decimal.NewFromFloat(0.5) }},
		{"live without credentials", func(c *FileConfig) { c.Mode = ModeLive }},
		{"invalid risk params", func(c *FileConfig) { c.Risk.MaxPositionSize = decimal.NewFromInt(2) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validFileConfig()
			tt.mutate(&cfg)
			_, err := Resolve(cfg)
			assert.Error(t, err)
		})
	}
}

func TestResolveLiveWithCredentials(t *testing.T) {
	cfg := validFileConfig()
	cfg.Mode = ModeLive
	cfg.API = APIConfig{Key: "k", Secret: "s", Testnet: true}

	loaded, err := Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, ModeLive, loaded.Mode)
	assert.True(t, loaded.API.Testnet)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"exchange": "okx",
		"mode": "paper",
		"initialCash": 25000,
		"feeRate": 0.0005,
		"rateLimits": {"okx": 250},
		"gateway": {"timeoutSeconds": 10, "maxRetries": 5},
		"risk": {
			"maxPositionSize": 0.25,
			"stopLossPercentage": 2,
			"takeProfitPercentage": 4
		},
		"journalPath": "data/fills.jsonl",
		"monitorIntervalSeconds": 2
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "okx", loaded.Exchange)
	assert.True(t, loaded.InitialCash.Equal(decimal.NewFromInt(25000)),
		"initial cash = %s", loaded.InitialCash)
	assert.Equal(t, float64(250), loaded.RateLimits["okx"])
	assert.Equal(t, 10*time.Second, loaded.GatewayTimeout)
	assert.Equal(t, 5, loaded.GatewayRetries)
	assert.Equal(t, 2*time.Second, loaded.MonitorInterval)
	assert.Equal(t, "data/fills.jsonl", loaded.JournalPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
