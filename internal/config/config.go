// Package config loads the job configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"polymarket-smartmoney/internal/domain"
)

type Config struct {
	App        AppConfig
	ClickHouse ClickHouseConfig
	Postgres   PostgresConfig
	SmartMoney SmartMoneyConfig
	Metrics    MetricsConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ClickHouseConfig struct {
	Host        string        `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port        int           `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User        string        `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password    string        `envconfig:"CLICKHOUSE_PASSWORD"`
	Database    string        `envconfig:"CLICKHOUSE_DATABASE" default:"polymarket"`
	Protocol    string        `envconfig:"CLICKHOUSE_PROTOCOL" default:"native"` // native or http
	DialTimeout time.Duration `envconfig:"CLICKHOUSE_DIAL_TIMEOUT" default:"10s"`
}

// DSN renders the connection string understood by clickhouse.NewConn.
func (c ClickHouseConfig) DSN() string {
	u := url.URL{
		Scheme: "clickhouse",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	if c.Protocol != "" {
		q.Set("protocol", strings.ToLower(c.Protocol))
	}
	if c.DialTimeout > 0 {
		q.Set("dial_timeout", c.DialTimeout.String())
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type PostgresConfig struct {
	// ConnectionString overrides every other field when set.
	ConnectionString string `envconfig:"POSTGRES_CONNECTION_STRING"`
	Host             string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port             int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User             string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password         string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	Database         string `envconfig:"POSTGRES_DATABASE" default:"default"`
	SSLMode          string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
}

// DSN renders a postgres:// URL for pgxpool.
func (c PostgresConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

type SmartMoneyConfig struct {
	LiquidityAgents []string `envconfig:"SMARTMONEY_LIQUIDITY_AGENTS" default:"0x4bfb41d5b3570defd03c39a9a4d8de6bd8b8982e,0xc5d563a36ae78145c45a50134d48a1215220f80a"`
	CashAssetID     string   `envconfig:"SMARTMONEY_CASH_ASSET_ID" default:"0"`
}

// RankQuery builds the query for one run.
func (c SmartMoneyConfig) RankQuery(limit int) domain.RankQuery {
	agents := make([]string, len(c.LiquidityAgents))
	copy(agents, c.LiquidityAgents)
	return domain.RankQuery{
		Limit:           limit,
		CashAssetID:     c.CashAssetID,
		LiquidityAgents: agents,
	}
}

type MetricsConfig struct {
	PushgatewayURL string `envconfig:"METRICS_PUSHGATEWAY_URL"` // empty disables pushing
	Job            string `envconfig:"METRICS_JOB" default:"smartmoney_polymarket"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	var errs []error

	if c.ClickHouse.Host == "" {
		errs = append(errs, errors.New("CLICKHOUSE_HOST is required"))
	}
	if c.ClickHouse.Database == "" {
		errs = append(errs, errors.New("CLICKHOUSE_DATABASE is required"))
	}
	if c.ClickHouse.Port <= 0 {
		errs = append(errs, fmt.Errorf("CLICKHOUSE_PORT must be positive, got %d", c.ClickHouse.Port))
	}
	switch strings.ToLower(c.ClickHouse.Protocol) {
	case "native", "http":
	default:
		errs = append(errs, fmt.Errorf("CLICKHOUSE_PROTOCOL must be native or http, got %q", c.ClickHouse.Protocol))
	}

	if c.Postgres.ConnectionString == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, errors.New("POSTGRES_HOST is required"))
		}
		if c.Postgres.Port <= 0 {
			errs = append(errs, fmt.Errorf("POSTGRES_PORT must be positive, got %d", c.Postgres.Port))
		}
	}

	if c.SmartMoney.CashAssetID == "" {
		errs = append(errs, errors.New("SMARTMONEY_CASH_ASSET_ID is required"))
	}
	for i, a := range c.SmartMoney.LiquidityAgents {
		if domain.NormalizeAddress(a) == "" {
			errs = append(errs, fmt.Errorf("SMARTMONEY_LIQUIDITY_AGENTS entry %d is empty", i))
		}
	}

	return errors.Join(errs...)
}
