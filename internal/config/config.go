package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"parking-analytics-service/internal/model"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AnalysisConfig struct {
	Strategy     model.Strategy
	QueryTimeout time.Duration
}

type LiveConfig struct {
	Channel      string
	PingInterval time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Analysis    AnalysisConfig
	Live        LiveConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Analysis: AnalysisConfig{
			Strategy:     model.Strategy(v.GetString("ANALYSIS_STRATEGY")),
			QueryTimeout: v.GetDuration("ANALYSIS_QUERY_TIMEOUT"),
		},
		Live: LiveConfig{
			Channel:      v.GetString("LIVE_CHANNEL"),
			PingInterval: v.GetDuration("LIVE_PING_INTERVAL"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7071
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Analysis.Strategy == "" {
		cfg.Analysis.Strategy = model.StrategyDistribution
	}
	if cfg.Analysis.QueryTimeout <= 0 {
		cfg.Analysis.QueryTimeout = 30 * time.Second
	}
	if cfg.Live.Channel == "" {
		cfg.Live.Channel = "sensor_status"
	}
	if cfg.Live.PingInterval <= 0 {
		cfg.Live.PingInterval = 30 * time.Second
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if !cfg.Analysis.Strategy.Valid() {
		return fmt.Errorf("ANALYSIS_STRATEGY must be %q or %q", model.StrategyDistribution, model.StrategyDuration)
	}
	return nil
}
