package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "pitwall"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App    AppConfig
	League LeagueConfig
	Poll   PollConfig
	Views  ViewsConfig
	Redis  RedisConfig
	JWT    JWTConfig
	CORS   CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.League.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Poll.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PITWALL_APP_ENV" required:"true"`
	Port         string `envconfig:"PITWALL_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"PITWALL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PITWALL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// LeagueConfig points the gateway at the upstream league API host.
type LeagueConfig struct {
	BaseURL        string        `envconfig:"PITWALL_LEAGUE_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"PITWALL_LEAGUE_REQUEST_TIMEOUT" default:"10s"`
}

func (l LeagueConfig) validate() error {
	parsed, err := url.Parse(l.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid league base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("league base url must be absolute")
	}
	if l.RequestTimeout <= 0 {
		return errors.New("league request timeout must be positive")
	}
	return nil
}

// PollConfig carries the confirmation polling cadence and ceiling. The
// defaults match the provider's two-minute PIX charge window.
type PollConfig struct {
	Interval    time.Duration `envconfig:"PITWALL_POLL_INTERVAL" default:"1s"`
	MaxAttempts int           `envconfig:"PITWALL_POLL_MAX_ATTEMPTS" default:"120"`
}

func (p PollConfig) validate() error {
	if p.Interval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if p.MaxAttempts <= 0 {
		return errors.New("poll max attempts must be positive")
	}
	return nil
}

// ViewsConfig controls the read-side snapshot cache.
type ViewsConfig struct {
	CacheTTL time.Duration `envconfig:"PITWALL_VIEWS_CACHE_TTL" default:"30s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PITWALL_REDIS_URL"`
	Address      string        `envconfig:"PITWALL_REDIS_ADDR"`
	Password     string        `envconfig:"PITWALL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PITWALL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PITWALL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PITWALL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PITWALL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PITWALL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PITWALL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies the league-issued team tokens the browser sends along.
type JWTConfig struct {
	Secret string `envconfig:"PITWALL_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"PITWALL_JWT_ISSUER"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PITWALL_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
