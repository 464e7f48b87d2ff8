// Package config loads application configuration from config.yaml and
// COASTLINE_* environment variables, and initializes the global logger.
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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Layers   LayersConfig   `yaml:"layers" mapstructure:"layers"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	// Driver selects sqlite or postgres.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// Path is the SQLite database file.
	Path     string `yaml:"path" mapstructure:"path"`
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LayersConfig locates the study-area data.
type LayersConfig struct {
	// Manifest is the YAML manifest binding layer names to files.
	Manifest string `yaml:"manifest" mapstructure:"manifest"`
	// Coastline is the GeoJSON file holding the base coastline.
	Coastline string `yaml:"coastline" mapstructure:"coastline"`
}

// PipelineConfig tunes the scoring engine.
type PipelineConfig struct {
	// Workers bounds the per-segment evaluation fan-out.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// DefaultResolution and DefaultUnit apply when a run does not set
	// its own.
	DefaultResolution float64 `yaml:"default_resolution" mapstructure:"default_resolution"`
	DefaultUnit       string  `yaml:"default_unit" mapstructure:"default_unit"`
	DefaultCategories int     `yaml:"default_categories" mapstructure:"default_categories"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml (optional) plus environment overrides.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COASTLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "coastline-runs.db")
	v.SetDefault("layers.manifest", "layers.yaml")
	v.SetDefault("layers.coastline", "coastline.geojson")
	v.SetDefault("pipeline.workers", 8)
	v.SetDefault("pipeline.default_resolution", 1000)
	v.SetDefault("pipeline.default_unit", "ft")
	v.SetDefault("pipeline.default_categories", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.cors_origins", []string{"*"})
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
