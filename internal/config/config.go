package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type FeedConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

const (
	_feedURLDefault     = "https://portal.amfiindia.com/spages/NAVAll.txt"
	_feedTimeoutDefault = 10 * time.Second
	_feedRPMDefault     = 10
)

func (c *FeedConfig) Setup() error {
	if c.URL == "" {
		c.URL = _feedURLDefault
	}
	if _, err := url.Parse(c.URL); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		c.Timeout = _feedTimeoutDefault
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _feedRPMDefault
	}
	return nil
}

type HistoryConfig struct {
	Address           string        `yaml:"address"`
	HistoryTimeout    time.Duration `yaml:"history_timeout"`
	MetaTimeout       time.Duration `yaml:"meta_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

const (
	_historyAddressDefault = "https://api.mfapi.in"
	_historyTimeoutDefault = 10 * time.Second
	_metaTimeoutDefault    = 5 * time.Second
	_historyRPMDefault     = 120
)

func (c *HistoryConfig) Setup() error {
	if c.Address == "" {
		c.Address = _historyAddressDefault
	}
	if _, err := url.Parse(c.Address); err != nil {
		return err
	}
	if c.HistoryTimeout <= 0 {
		c.HistoryTimeout = _historyTimeoutDefault
	}
	if c.MetaTimeout <= 0 {
		c.MetaTimeout = _metaTimeoutDefault
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _historyRPMDefault
	}
	return nil
}

type SyncConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	StaleAfter     time.Duration `yaml:"stale_after"`
	BackfillRowCap int           `yaml:"backfill_row_cap"`
	Workers        int           `yaml:"workers"`
	SkipEnrich     bool          `yaml:"skip_enrich"`
}

const (
	_batchSizeDefault      = 100
	_staleAfterDefault     = 5 * 24 * time.Hour
	_backfillRowCapDefault = 3000
	_workersDefault        = 1
)

func (c *SyncConfig) Setup() {
	if c.BatchSize <= 0 {
		c.BatchSize = _batchSizeDefault
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = _staleAfterDefault
	}
	if c.BackfillRowCap <= 0 {
		c.BackfillRowCap = _backfillRowCapDefault
	}
	if c.Workers <= 0 {
		c.Workers = _workersDefault
	}
}

type ValuationConfig struct {
	ZeroEpsilon        float64 `yaml:"zero_epsilon"`
	EquityLongTermDays int     `yaml:"equity_long_term_days"`
	OtherLongTermDays  int     `yaml:"other_long_term_days"`
	Week52Days         int     `yaml:"week52_days"`
}

const (
	_zeroEpsilonDefault        = 1e-4
	_equityLongTermDaysDefault = 365
	_otherLongTermDaysDefault  = 1095
	_week52DaysDefault         = 365
)

func (c *ValuationConfig) Setup() {
	if c.ZeroEpsilon <= 0 {
		c.ZeroEpsilon = _zeroEpsilonDefault
	}
	if c.EquityLongTermDays <= 0 {
		c.EquityLongTermDays = _equityLongTermDaysDefault
	}
	if c.OtherLongTermDays <= 0 {
		c.OtherLongTermDays = _otherLongTermDaysDefault
	}
	if c.Week52Days <= 0 {
		c.Week52Days = _week52DaysDefault
	}
}

type ServerConfig struct {
	Port        string        `yaml:"port"`
	SyncTimeout time.Duration `yaml:"sync_timeout"`
}

const (
	_portDefault        = "8080"
	_syncTimeoutDefault = 10 * time.Minute
)

func (c *ServerConfig) Setup() {
	if c.Port == "" {
		c.Port = _portDefault
	}
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = _syncTimeoutDefault
	}
}

type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Tracing   bool            `yaml:"tracing"`
	Feed      FeedConfig      `yaml:"feed"`
	History   HistoryConfig   `yaml:"history"`
	Sync      SyncConfig      `yaml:"sync"`
	Valuation ValuationConfig `yaml:"valuation"`
	Server    ServerConfig    `yaml:"server"`
}

// Default returns a config with every default applied.
func Default() Config {
	var cfg Config
	_ = cfg.ValidateAndSetup()
	return cfg
}

func (c *Config) ValidateAndSetup() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if err := c.Feed.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup feed", err)
	}
	if err := c.History.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup history", err)
	}
	c.Sync.Setup()
	c.Valuation.Setup()
	c.Server.Setup()

	return nil
}

func LoadConfig(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
