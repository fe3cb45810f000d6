package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/risk"
)

// Mode selects how orders are executed.
type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Exchange               string             `json:"exchange"`
	Mode                   Mode               `json:"mode"`
	InitialCash            decimal.Decimal    `json:"initialCash"`
	FeeRate                decimal.Decimal    `json:"feeRate"`
	API                    APIConfig          `json:"api"`
	RateLimits             map[string]float64 `json:"rateLimits"`
	Gateway                GatewayConfig      `json:"gateway"`
	Risk                   risk.Parameters    `json:"risk"`
	JournalPath            string             `json:"journalPath"`
	SnapshotPath           string             `json:"snapshotPath"`
	Store                  StoreConfig        `json:"store"`
	Feed                   FeedConfig         `json:"feed"`
	MonitorIntervalSeconds int                `json:"monitorIntervalSeconds"`
}

// APIConfig holds exchange credentials.
type APIConfig struct {
	Key     string `json:"key"`
	Secret  string `json:"secret"`
	Testnet bool   `json:"testnet"`
}

// GatewayConfig tunes the resilience stages.
type GatewayConfig struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
	MaxRetries     int `json:"maxRetries"`
}

// StoreConfig points at the optional audit database.
type StoreConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// FeedConfig points at the shared mark-price cache.
type FeedConfig struct {
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"redisPassword"`
	RedisDB       int    `json:"redisDb"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Exchange        string
	Mode            Mode
	InitialCash     decimal.Decimal
	FeeRate         decimal.Decimal
	API             APIConfig
	RateLimits      map[string]float64
	GatewayTimeout  time.Duration
	GatewayRetries  int
	Risk            risk.Parameters
	JournalPath     string
	SnapshotPath    string
	Store           StoreConfig
	Feed            FeedConfig
	MonitorInterval time.Duration
}

var (
	errExchangeEmpty   = errors.New("ops: exchange is empty")
	errModeUnknown     = errors.New("ops: mode must be paper or live")
	errInitialCash     = errors.New("ops: initialCash must be > 0")
	errFeeRate         = errors.New("ops: feeRate must be in [0, 0.1]")
	errLiveCredentials = errors.New("ops: live mode requires api key and secret")
)

// Load reads a JSON config file and resolves it with defaults.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a file config and applies defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Exchange == "" {
		return Loaded{}, errExchangeEmpty
	}
	if cfg.Mode == "" {
		cfg.Mode = ModePaper
	}
	if cfg.Mode != ModePaper && cfg.Mode != ModeLive {
		return Loaded{}, errModeUnknown
	}
	if cfg.InitialCash.LessThanOrEqual(decimal.Zero) {
		return Loaded{}, errInitialCash
	}
	if cfg.FeeRate.IsNegative() || cfg.FeeRate.GreaterThan(decimal.NewFromFloat(0.1)) {
		return Loaded{}, errFeeRate
	}
	if cfg.Mode == ModeLive && (cfg.API.Key == "" || cfg.API.Secret == "") {
		return Loaded{}, errLiveCredentials
	}
	if err := cfg.Risk.Validate(); err != nil {
		return Loaded{}, err
	}

	timeout := time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second
	if cfg.Gateway.TimeoutSeconds <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.Gateway.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	monitor := time.Duration(cfg.MonitorIntervalSeconds) * time.Second
	if cfg.MonitorIntervalSeconds <= 0 {
		monitor = 5 * time.Second
	}

	return Loaded{
		Exchange:        cfg.Exchange,
		Mode:            cfg.Mode,
		InitialCash:     cfg.InitialCash,
		FeeRate:         cfg.FeeRate,
		API:             cfg.API,
		RateLimits:      cfg.RateLimits,
		GatewayTimeout:  timeout,
		GatewayRetries:  retries,
		Risk:            cfg.Risk,
		JournalPath:     cfg.JournalPath,
		SnapshotPath:    cfg.SnapshotPath,
		Store:           cfg.Store,
		Feed:            cfg.Feed,
		MonitorInterval: monitor,
	}, nil
}
