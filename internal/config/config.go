// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Summary   SummaryConfig   `yaml:"summary" mapstructure:"summary"`
	Optimizer OptimizerConfig `yaml:"optimizer" mapstructure:"optimizer"`
	Brief     BriefConfig     `yaml:"brief" mapstructure:"brief"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the plan database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DataConfig configures the raw dataset location.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// SummaryConfig holds the candidate-construction policy. DiscountRate and
// DemandUplift are business policy and deliberately configurable.
type SummaryConfig struct {
	TopK         int     `yaml:"top_k" mapstructure:"top_k"`
	DiscountRate float64 `yaml:"discount_rate" mapstructure:"discount_rate"`
	DemandUplift float64 `yaml:"demand_uplift" mapstructure:"demand_uplift"`
}

// OptimizerConfig configures the promotion solve.
type OptimizerConfig struct {
	Budget      float64 `yaml:"budget" mapstructure:"budget"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxNodes    int64   `yaml:"max_nodes" mapstructure:"max_nodes"`
}

// BriefConfig selects the report renderer: "template" or "claude".
type BriefConfig struct {
	Renderer string `yaml:"renderer" mapstructure:"renderer"`
}

// AnthropicConfig holds Anthropic API settings for the Claude renderer.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.database_url", "promoplan.db")
	v.SetDefault("data.dir", "data")
	v.SetDefault("summary.top_k", 5)
	v.SetDefault("summary.discount_rate", 0.90)
	v.SetDefault("summary.demand_uplift", 1.20)
	v.SetDefault("optimizer.budget", 500.0)
	v.SetDefault("optimizer.timeout_secs", 30)
	v.SetDefault("optimizer.max_nodes", 5_000_000)
	v.SetDefault("brief.renderer", "template")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 600)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
