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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Trends     TrendsConfig     `yaml:"trends" mapstructure:"trends"`
	Collection CollectionConfig `yaml:"collection" mapstructure:"collection"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// TrendsConfig holds Google Trends request settings.
type TrendsConfig struct {
	Language       string `yaml:"language" mapstructure:"language"`
	Geo            string `yaml:"geo" mapstructure:"geo"`
	Timeframe      string `yaml:"timeframe" mapstructure:"timeframe"`
	TimezoneOffset int    `yaml:"timezone_offset" mapstructure:"timezone_offset"`
}

// CollectionConfig configures collection pacing, retries, and staleness.
type CollectionConfig struct {
	DelaySeconds  int    `yaml:"delay_seconds" mapstructure:"delay_seconds"`
	RetryAttempts int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	StalenessDays int    `yaml:"staleness_days" mapstructure:"staleness_days"`
	KeywordsFile  string `yaml:"keywords_file" mapstructure:"keywords_file"`
}

// ServerConfig configures the read-only query API server.
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
	v.AddConfigPath("./config")

	// Environment
	v.SetEnvPrefix("TRENDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/trends.db")
	v.SetDefault("trends.language", "fr-CA")
	v.SetDefault("trends.geo", "CA-QC")
	v.SetDefault("trends.timeframe", "today 12-m")
	v.SetDefault("trends.timezone_offset", 360)
	v.SetDefault("collection.delay_seconds", 60)
	v.SetDefault("collection.retry_attempts", 3)
	v.SetDefault("collection.staleness_days", 1)
	v.SetDefault("collection.keywords_file", "config/keywords.yaml")
	v.SetDefault("server.port", 8501)
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
