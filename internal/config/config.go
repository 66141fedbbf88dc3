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
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Browser   BrowserConfig   `yaml:"browser" mapstructure:"browser"`
	Harness   HarnessConfig   `yaml:"harness" mapstructure:"harness"`
	Run       RunConfig       `yaml:"run" mapstructure:"run"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// HTTPConfig configures the direct-HTTP download strategy.
type HTTPConfig struct {
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retries          int           `yaml:"retries" mapstructure:"retries"`
	RetryWait        time.Duration `yaml:"retry_wait" mapstructure:"retry_wait"`
	MaxRetryWait     time.Duration `yaml:"max_retry_wait" mapstructure:"max_retry_wait"`
	UserAgent        string        `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit        float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst            int           `yaml:"burst" mapstructure:"burst"`
	CloudflareBypass bool          `yaml:"cloudflare_bypass" mapstructure:"cloudflare_bypass"`
}

// BrowserConfig configures the headless download strategy.
type BrowserConfig struct {
	Headless     bool          `yaml:"headless" mapstructure:"headless"`
	ProxyURL     string        `yaml:"proxy_url" mapstructure:"proxy_url"`
	Bin          string        `yaml:"bin" mapstructure:"bin"`
	ImplicitWait time.Duration `yaml:"implicit_wait" mapstructure:"implicit_wait"`
}

// HarnessConfig configures the slowness guard used by validation runs.
type HarnessConfig struct {
	WarnThreshold time.Duration `yaml:"warn_threshold" mapstructure:"warn_threshold"`
	MaxThreshold  time.Duration `yaml:"max_threshold" mapstructure:"max_threshold"`
	LenientEnv    string        `yaml:"lenient_env" mapstructure:"lenient_env"`
}

// RunConfig configures multi-site runs.
type RunConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TelemetryConfig configures trace export. Tracing stays off while Endpoint
// is empty.
type TelemetryConfig struct {
	Endpoint    string            `yaml:"endpoint" mapstructure:"endpoint"`
	Protocol    string            `yaml:"protocol" mapstructure:"protocol"` // http or grpc
	Headers     map[string]string `yaml:"headers" mapstructure:"headers"`
	ServiceName string            `yaml:"service_name" mapstructure:"service_name"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COURTSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.retries", 3)
	v.SetDefault("http.retry_wait", 500*time.Millisecond)
	v.SetDefault("http.max_retry_wait", 10*time.Second)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	v.SetDefault("http.rate_limit", 2.0)
	v.SetDefault("http.burst", 2)
	v.SetDefault("http.cloudflare_bypass", false)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.proxy_url", "")
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.implicit_wait", 30*time.Second)
	v.SetDefault("harness.warn_threshold", time.Second)
	v.SetDefault("harness.max_threshold", 15*time.Second)
	v.SetDefault("harness.lenient_env", "TRAVIS")
	v.SetDefault("run.concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.protocol", "http")
	v.SetDefault("telemetry.service_name", "courtscrape")

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
