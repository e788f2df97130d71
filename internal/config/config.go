package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Profiler ProfilerConfig `yaml:"profiler" mapstructure:"profiler"`
	Serper   SerperConfig   `yaml:"serper" mapstructure:"serper"`
	Serp     SerpConfig     `yaml:"serp" mapstructure:"serp"`
	Writer   WriterConfig   `yaml:"writer" mapstructure:"writer"`
	QC       QCConfig       `yaml:"qc" mapstructure:"qc"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ProfilerConfig holds page profiler API settings.
type ProfilerConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SerperConfig holds Serper API settings.
type SerperConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// SerpConfig configures SERP research behavior.
type SerpConfig struct {
	TopN          int    `yaml:"top_n" mapstructure:"top_n"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	Location      string `yaml:"location" mapstructure:"location"`
}

// CacheTTL returns the cache TTL as a duration.
func (c SerpConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// WriterConfig holds Anthropic generation settings.
type WriterConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// QCConfig configures quality thresholds.
type QCConfig struct {
	LSIMin          int `yaml:"lsi_min" mapstructure:"lsi_min"`
	LSIMax          int `yaml:"lsi_max" mapstructure:"lsi_max"`
	LSIWindow       int `yaml:"lsi_window" mapstructure:"lsi_window"`
	MinTrustSources int `yaml:"min_trust_sources" mapstructure:"min_trust_sources"`
}

// PipelineConfig configures run orchestration.
type PipelineConfig struct {
	DefaultMinWordCount int      `yaml:"default_min_word_count" mapstructure:"default_min_word_count"`
	SignoffVerticals    []string `yaml:"signoff_verticals" mapstructure:"signoff_verticals"`
	GuardCapacity       int      `yaml:"guard_capacity" mapstructure:"guard_capacity"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LINKFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "linkforge.db")
	v.SetDefault("profiler.base_url", "https://profiler.sellsgroup.dev/v1")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.rate_per_sec", 5.0)
	v.SetDefault("serp.top_n", 10)
	v.SetDefault("serp.cache_ttl_hours", 24)
	v.SetDefault("serp.location", "")
	v.SetDefault("writer.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("writer.max_tokens", 8192)
	v.SetDefault("writer.temperature", 0.7)
	v.SetDefault("qc.lsi_min", 6)
	v.SetDefault("qc.lsi_max", 10)
	v.SetDefault("qc.lsi_window", 2)
	v.SetDefault("qc.min_trust_sources", 3)
	v.SetDefault("pipeline.default_min_word_count", 800)
	v.SetDefault("pipeline.signoff_verticals", []string{"gambling", "finance", "health"})
	v.SetDefault("pipeline.guard_capacity", 1024)
	v.SetDefault("server.port", 8080)
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
