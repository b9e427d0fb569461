package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PortfoLink/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider   string        `yaml:"provider"` // yahoo or mock
		RatePerSec float64       `yaml:"rate_per_sec"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Fetch struct {
		MaxConcurrency int           `yaml:"max_concurrency"`
		CacheMaxAge    time.Duration `yaml:"cache_max_age"`
	} `yaml:"fetch"`
	Metrics struct {
		RiskFreeRate    float64 `yaml:"risk_free_rate"`
		BenchmarkSymbol string  `yaml:"benchmark_symbol"`
	} `yaml:"metrics"`
	Recommend struct {
		TopN    int      `yaml:"top_n"`
		Horizon string   `yaml:"horizon"` // digest and bot default
		Risk    string   `yaml:"risk"`
		Sectors []string `yaml:"sectors"`
	} `yaml:"recommend"`
	Universe []model.Instrument `yaml:"universe"`
	Funds    struct {
		NAVAllURL string `yaml:"navall_url"`
	} `yaml:"funds"`
	Schedule struct {
		PriceSyncCron string `yaml:"price_sync_cron"`
		FundSyncCron  string `yaml:"fund_sync_cron"`
		DigestCron    string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// DefaultUniverse is seeded when the config lists no instruments.
var DefaultUniverse = []model.Instrument{
	{Symbol: "RELIANCE.NS", Name: "Reliance Industries", Sector: "Energy"},
	{Symbol: "TCS.NS", Name: "Tata Consultancy Services", Sector: "Technology"},
	{Symbol: "INFY.NS", Name: "Infosys", Sector: "Technology"},
	{Symbol: "HDFCBANK.NS", Name: "HDFC Bank", Sector: "Banking"},
	{Symbol: "ICICIBANK.NS", Name: "ICICI Bank", Sector: "Banking"},
	{Symbol: "SUNPHARMA.NS", Name: "Sun Pharmaceutical", Sector: "Pharma"},
	{Symbol: "HINDUNILVR.NS", Name: "Hindustan Unilever", Sector: "FMCG"},
	{Symbol: "KOTAKBANK.NS", Name: "Kotak Mahindra Bank", Sector: "Banking"},
	{Symbol: "LT.NS", Name: "Larsen & Toubro", Sector: "Industrials"},
	{Symbol: "AXISBANK.NS", Name: "Axis Bank", Sector: "Banking"},
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Metrics.RiskFreeRate = rate
		}
	}
	if v := os.Getenv("BENCHMARK_SYMBOL"); v != "" {
		cfg.Metrics.BenchmarkSymbol = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.RatePerSec == 0 {
		c.DataSource.RatePerSec = 2
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxConcurrency == 0 {
		c.Fetch.MaxConcurrency = 4
	}
	if c.Fetch.CacheMaxAge == 0 {
		c.Fetch.CacheMaxAge = 24 * time.Hour
	}
	if c.Metrics.RiskFreeRate == 0 {
		c.Metrics.RiskFreeRate = 0.05
	}
	if c.Metrics.BenchmarkSymbol == "" {
		c.Metrics.BenchmarkSymbol = "^NSEI"
	}
	if c.Recommend.TopN == 0 {
		c.Recommend.TopN = 5
	}
	if c.Recommend.Horizon == "" {
		c.Recommend.Horizon = string(model.HorizonMedium)
	}
	if c.Recommend.Risk == "" {
		c.Recommend.Risk = string(model.RiskMedium)
	}
	if len(c.Recommend.Sectors) == 0 {
		c.Recommend.Sectors = []string{"Technology", "Pharma", "Banking", "Energy", "FMCG"}
	}
	if len(c.Universe) == 0 {
		c.Universe = append([]model.Instrument(nil), DefaultUniverse...)
	}
	if c.Funds.NAVAllURL == "" {
		c.Funds.NAVAllURL = "https://www.amfiindia.com/spages/NAVAll.txt"
	}
	if c.Schedule.PriceSyncCron == "" {
		c.Schedule.PriceSyncCron = "0 30 18 * * 1-5"
	}
	if c.Schedule.FundSyncCron == "" {
		c.Schedule.FundSyncCron = "0 0 23 * * 1-5"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 19 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/portfolink.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.Provider != "yahoo" && c.DataSource.Provider != "mock" {
		return fmt.Errorf("data_source.provider must be yahoo or mock, got %q", c.DataSource.Provider)
	}
	if c.DataSource.RatePerSec <= 0 {
		return fmt.Errorf("data_source.rate_per_sec must be positive")
	}
	if c.Fetch.MaxConcurrency < 1 {
		return fmt.Errorf("fetch.max_concurrency must be at least 1")
	}
	if c.Metrics.RiskFreeRate < 0 || c.Metrics.RiskFreeRate >= 1 {
		return fmt.Errorf("metrics.risk_free_rate must be in [0, 1)")
	}
	if c.Recommend.TopN < 1 {
		return fmt.Errorf("recommend.top_n must be positive")
	}
	if _, err := model.NewProfile(c.Recommend.Horizon, c.Recommend.Risk, c.Recommend.Sectors); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	for i, in := range c.Universe {
		if in.Symbol == "" {
			return fmt.Errorf("universe[%d].symbol is required", i)
		}
	}
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	return nil
}

// DefaultProfile is the profile used by the digest and by bot commands
// without arguments.
func (c *Config) DefaultProfile() model.Profile {
	p, _ := model.NewProfile(c.Recommend.Horizon, c.Recommend.Risk, c.Recommend.Sectors)
	return p
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
