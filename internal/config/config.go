package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Build   BuildConfig   `yaml:"build" mapstructure:"build"`
	Query   QueryConfig   `yaml:"query" mapstructure:"query"`
	Load    LoadConfig    `yaml:"load" mapstructure:"load"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ScoringConfig configures similarity vector scoring.
type ScoringConfig struct {
	// SpreadFactor is the number of standard deviations above the median
	// at which a subcomponent score saturates at 100.
	SpreadFactor float64 `yaml:"spread_factor" mapstructure:"spread_factor"`
	// YearBuiltMissing lists median-year-built values that mean "no data".
	YearBuiltMissing []float64 `yaml:"year_built_missing" mapstructure:"year_built_missing"`
}

// BuildConfig configures product set construction.
type BuildConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// QueryConfig configures query defaults.
type QueryConfig struct {
	DefaultN int `yaml:"default_n" mapstructure:"default_n"`
}

// LoadConfig configures source table ingestion.
type LoadConfig struct {
	Encoding  string `yaml:"encoding" mapstructure:"encoding"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Store:   StoreConfig{Driver: "sqlite", DatabaseURL: "geodata.db"},
		Log:     LogConfig{Level: "info", Format: "json"},
		Scoring: ScoringConfig{SpreadFactor: 3, YearBuiltMissing: []float64{0}},
		Build:   BuildConfig{Concurrency: 4},
		Query:   QueryConfig{DefaultN: 15},
		Load:    LoadConfig{Encoding: "latin1", Delimiter: ","},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEODATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	d := Defaults()
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.database_url", d.Store.DatabaseURL)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("scoring.spread_factor", d.Scoring.SpreadFactor)
	v.SetDefault("scoring.year_built_missing", d.Scoring.YearBuiltMissing)
	v.SetDefault("build.concurrency", d.Build.Concurrency)
	v.SetDefault("query.default_n", d.Query.DefaultN)
	v.SetDefault("load.encoding", d.Load.Encoding)
	v.SetDefault("load.delimiter", d.Load.Delimiter)

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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	if c.Scoring.SpreadFactor <= 0 {
		return eris.Errorf("config: scoring.spread_factor must be positive, got %v", c.Scoring.SpreadFactor)
	}
	if c.Build.Concurrency < 1 {
		return eris.Errorf("config: build.concurrency must be at least 1, got %d", c.Build.Concurrency)
	}
	if c.Query.DefaultN < 0 {
		return eris.Errorf("config: query.default_n must not be negative, got %d", c.Query.DefaultN)
	}
	if len([]rune(c.Load.Delimiter)) != 1 {
		return eris.Errorf("config: load.delimiter must be a single character, got %q", c.Load.Delimiter)
	}
	return nil
}

// Save writes cfg as YAML to path.
func Save(cfg *Config, path string) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return eris.Wrapf(err, "config: write %s", path)
	}
	return nil
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
