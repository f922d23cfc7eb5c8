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
	Geometry Geometry `yaml:"geometry" mapstructure:"geometry"`
	USPS     USPS     `yaml:"usps" mapstructure:"usps"`
	Census   Census   `yaml:"census" mapstructure:"census"`
	Google   Google   `yaml:"google" mapstructure:"google"`
	Oracle   Oracle   `yaml:"oracle" mapstructure:"oracle"`
	Engine   Engine   `yaml:"engine" mapstructure:"engine"`
	Validate Validate `yaml:"validate" mapstructure:"validate"`
	Cache    Cache    `yaml:"cache" mapstructure:"cache"`
	Server   Server   `yaml:"server" mapstructure:"server"`
	Log      Log      `yaml:"log" mapstructure:"log"`
}

// Geometry configures the district geometry source.
type Geometry struct {
	// Source is a .shp path, a .zip path, or an http(s):// or ftp:// URL of a
	// TIGER/Line congressional-district archive.
	Source       string `yaml:"source" mapstructure:"source"`
	TempDir      string `yaml:"temp_dir" mapstructure:"temp_dir"`
	CacheTTLHrs  int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	ZipTablePath string `yaml:"zip_table_path" mapstructure:"zip_table_path"`
}

// USPS configures the structured-standardization provider.
type USPS struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserID      string `yaml:"user_id" mapstructure:"user_id"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Census configures the free geocoder provider.
type Census struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Benchmark   string  `yaml:"benchmark" mapstructure:"benchmark"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Google configures the commercial geocoder provider.
type Google struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Oracle configures the address-correction oracle.
type Oracle struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// Engine configures the address-resolution retry loop.
type Engine struct {
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	BudgetSecs int `yaml:"budget_secs" mapstructure:"budget_secs"`
}

// Validate configures multi-provider validation.
type Validate struct {
	Methods            []string `yaml:"methods" mapstructure:"methods"`
	AdapterTimeoutSecs int      `yaml:"adapter_timeout_secs" mapstructure:"adapter_timeout_secs"`
	AnalysisConfigPath string   `yaml:"analysis_config_path" mapstructure:"analysis_config_path"`
}

// Cache configures the geocode-cache backend.
type Cache struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	GeocodeTTL  int    `yaml:"geocode_ttl_days" mapstructure:"geocode_ttl_days"`
}

// Server configures the HTTP API.
type Server struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeometryTTL returns the geometry cache TTL as a duration.
func (g Geometry) GeometryTTL() time.Duration {
	return time.Duration(g.CacheTTLHrs) * time.Hour
}

// GeocodeTTLDuration returns the geocode cache TTL as a duration.
func (c Cache) GeocodeTTLDuration() time.Duration {
	return time.Duration(c.GeocodeTTL) * 24 * time.Hour
}

// AdapterTimeout returns the per-adapter validation timeout.
func (v Validate) AdapterTimeout() time.Duration {
	return time.Duration(v.AdapterTimeoutSecs) * time.Second
}

// Budget returns the engine wall-clock budget.
func (e Engine) Budget() time.Duration {
	return time.Duration(e.BudgetSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISTRICT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("geometry.source", "https://www2.census.gov/geo/tiger/TIGER2024/CD/tl_2024_us_cd119.zip")
	v.SetDefault("geometry.temp_dir", "/tmp/district-cli")
	v.SetDefault("geometry.cache_ttl_hours", 24)
	v.SetDefault("usps.base_url", "https://secure.shippingapis.com/ShippingAPI.dll")
	v.SetDefault("usps.timeout_secs", 10)
	v.SetDefault("census.base_url", "https://geocoding.geo.census.gov/geocoder")
	v.SetDefault("census.benchmark", "Public_AR_Current")
	v.SetDefault("census.rate_limit", 50)
	v.SetDefault("census.timeout_secs", 10)
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("google.timeout_secs", 10)
	v.SetDefault("oracle.model", "claude-haiku-4-5-20251001")
	v.SetDefault("oracle.max_tokens", 1024)
	v.SetDefault("engine.max_retries", 3)
	v.SetDefault("engine.budget_secs", 60)
	v.SetDefault("validate.methods", []string{"usps", "census", "google"})
	v.SetDefault("validate.adapter_timeout_secs", 10)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.database_url", "district-cache.db")
	v.SetDefault("cache.geocode_ttl_days", 7)
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
func InitLogger(cfg Log) error {
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
