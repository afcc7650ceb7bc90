// Package config loads application settings from config.yaml, a .env file
// and DEMOGRAPHICS_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Session    SessionConfig    `yaml:"session" mapstructure:"session"`
	Table      TableConfig      `yaml:"table" mapstructure:"table"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	ResultsDir     string   `yaml:"results_dir" mapstructure:"results_dir"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// DataConfig configures where city files come from.
type DataConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	RegistryPath string `yaml:"registry_path" mapstructure:"registry_path"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns TimeoutSecs as a duration.
func (d DataConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSecs) * time.Second
}

// SessionConfig bounds the in-memory session store.
type SessionConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// TTL returns TTLMinutes as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// TableConfig configures the district table.
type TableConfig struct {
	Locale string `yaml:"locale" mapstructure:"locale"`
}

// MonitoringConfig configures fetch failure alerting.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	MinFetches           int     `yaml:"min_fetches" mapstructure:"min_fetches"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	AlertCooldownMins    int     `yaml:"alert_cooldown_mins" mapstructure:"alert_cooldown_mins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory is applied to the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEMOGRAPHICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.results_dir", "public/results")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("data.base_url", "http://localhost:8080")
	v.SetDefault("data.registry_path", "cities.yaml")
	v.SetDefault("data.timeout_secs", 30)
	v.SetDefault("data.max_retries", 3)
	v.SetDefault("data.user_agent", "district-demographics/1.0")
	v.SetDefault("session.max_entries", 1000)
	v.SetDefault("session.ttl_minutes", 60)
	v.SetDefault("table.locale", "en")
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.min_fetches", 5)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.alert_cooldown_mins", 60)
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

// Validate checks the settings a command mode depends on. Mode is one of
// "serve", "export" or "validate".
func (c *Config) Validate(mode string) error {
	var problems []string
	add := func(p string) { problems = append(problems, p) }

	data := func() {
		if c.Data.RegistryPath == "" {
			add("data.registry_path is required")
		}
		if c.Data.TimeoutSecs <= 0 {
			add("data.timeout_secs must be positive")
		}
		if c.Data.MaxRetries <= 0 {
			add("data.max_retries must be positive")
		}
	}

	switch mode {
	case "serve":
		data()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be between 1 and 65535")
		}
		if c.Session.MaxEntries <= 0 {
			add("session.max_entries must be positive")
		}
		if c.Session.TTLMinutes <= 0 {
			add("session.ttl_minutes must be positive")
		}
		if t := c.Monitoring.FailureRateThreshold; t < 0 || t > 1 {
			add("monitoring.failure_rate_threshold must be between 0 and 1")
		}
	case "export", "validate":
		data()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
