package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// DBPathEnv is the environment variable for the SQLite database file.
	DBPathEnv = "DB_PATH"

	// DBTableEnv is the environment variable for the catalog table name.
	DBTableEnv = "DB_TABLE"

	// CSVSourceEnv is the environment variable for the catalog CSV (URL or local path).
	CSVSourceEnv = "CSV_SOURCE"

	// ExchangeRateBaseURLEnv is the environment variable for the quotation endpoint base URL.
	ExchangeRateBaseURLEnv = "EXCHANGE_RATE_BASE_URL"

	// ExchangeRateCurrencyEnv is the environment variable for the quoted currency code.
	ExchangeRateCurrencyEnv = "EXCHANGE_RATE_CURRENCY"

	// HTTPTimeoutEnv is the environment variable for the outbound HTTP timeout in seconds.
	HTTPTimeoutEnv = "HTTP_TIMEOUT_SECONDS"

	// HTTPServerPortEnv is the environment variable for HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// ConfigFileEnv is the environment variable for an optional YAML config file.
	ConfigFileEnv = "CONFIG_FILE"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for SQS queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"
)

const (
	defaultDBPath       = "base1.db"
	defaultDBTable      = "bigbasket"
	defaultCSVSource    = "https://raw.githubusercontent.com/Paulita11111/TPinf/main/Updated_Clothing_Products.csv"
	defaultRateBaseURL  = "https://dolarapi.com/v1/cotizaciones/"
	defaultRateCurrency = "eur"
	defaultHTTPTimeout  = "10"
	defaultHTTPPort     = "8080"
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")

	// ErrInvalidConfig is returned when a configuration value is malformed.
	ErrInvalidConfig = errors.New("invalid config data")

	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Config represents the application configuration.
type Config struct {
	DebugMode     bool         `yaml:"debug_mode"`
	Database      DB           `yaml:"database"`
	Catalog       Catalog      `yaml:"catalog"`
	ExchangeRate  ExchangeRate `yaml:"exchange_rate"`
	HTTPServer    Server       `yaml:"http_server"`
	MetricsServer Server       `yaml:"metrics_server"`
	AWS           AWSConfig    `yaml:"aws"`
}

// DB represents database configuration settings.
type DB struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// Catalog represents where the product CSV comes from.
type Catalog struct {
	Source string `yaml:"source"`
}

// ExchangeRate represents the quotation endpoint settings.
type ExchangeRate struct {
	BaseURL        string `yaml:"base_url"`
	Currency       string `yaml:"currency"`
	TimeoutSeconds string `yaml:"timeout_seconds"`
}

// Timeout returns the outbound HTTP timeout.
func (e ExchangeRate) Timeout() time.Duration {
	seconds, err := strconv.Atoi(e.TimeoutSeconds)
	if err != nil || seconds <= 0 {
		seconds, _ = strconv.Atoi(defaultHTTPTimeout)
	}
	return time.Duration(seconds) * time.Second
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	SQSQueueURL string `yaml:"sqs_queue_url"`
}

// Server represents server configuration settings.
type Server struct {
	Port string `yaml:"port"`
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func validTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		slog.Error("configuration validation failed", slog.String("key", DBTableEnv), slog.String("value", name))
		return fmt.Errorf("%w: table name %q is not a plain identifier", ErrInvalidConfig, name)
	}
	return nil
}

func (c *Config) validate() error {
	if err := allNonEmpty(map[string]string{
		DBPathEnv:  c.Database.Path,
		DBTableEnv: c.Database.Table,
	}); err != nil {
		return fmt.Errorf("database configuration incomplete: %w", err)
	}

	if err := validTableName(c.Database.Table); err != nil {
		return err
	}

	if err := allNonEmpty(map[string]string{
		CSVSourceEnv:            c.Catalog.Source,
		ExchangeRateBaseURLEnv:  c.ExchangeRate.BaseURL,
		ExchangeRateCurrencyEnv: c.ExchangeRate.Currency,
	}); err != nil {
		return fmt.Errorf("source configuration incomplete: %w", err)
	}

	numbers := map[string]string{
		HTTPTimeoutEnv:    c.ExchangeRate.TimeoutSeconds,
		HTTPServerPortEnv: c.HTTPServer.Port,
	}
	// the metrics server is optional
	if c.MetricsServer.Port != "" {
		numbers[MetricsServerPortEnv] = c.MetricsServer.Port
	}
	if err := allNumbers(numbers); err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}

	return nil
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func setFromEnv(target *string, name string) {
	if val := os.Getenv(name); val != "" {
		*target = val
	}
}

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Database: DB{
			Path:  defaultDBPath,
			Table: defaultDBTable,
		},
		Catalog: Catalog{
			Source: defaultCSVSource,
		},
		ExchangeRate: ExchangeRate{
			BaseURL:        defaultRateBaseURL,
			Currency:       defaultRateCurrency,
			TimeoutSeconds: defaultHTTPTimeout,
		},
		HTTPServer: Server{
			Port: defaultHTTPPort,
		},
	}
}

func applyFile(conf *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables and validates it.
// CONFIG_FILE, when set, names a YAML file providing base values.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(ConfigFileEnv))
}

// Load builds the configuration from defaults, the optional YAML file at configFile
// and the environment, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	err := ApplyEnvFile(envPath)
	if err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	conf := defaults()
	if configFile != "" {
		if err := applyFile(conf, configFile); err != nil {
			return nil, err
		}
	}

	conf.DebugMode = getEnvAsBool(DebugModeEnv, conf.DebugMode)
	setFromEnv(&conf.Database.Path, DBPathEnv)
	setFromEnv(&conf.Database.Table, DBTableEnv)
	setFromEnv(&conf.Catalog.Source, CSVSourceEnv)
	setFromEnv(&conf.ExchangeRate.BaseURL, ExchangeRateBaseURLEnv)
	setFromEnv(&conf.ExchangeRate.Currency, ExchangeRateCurrencyEnv)
	setFromEnv(&conf.ExchangeRate.TimeoutSeconds, HTTPTimeoutEnv)
	setFromEnv(&conf.HTTPServer.Port, HTTPServerPortEnv)
	setFromEnv(&conf.MetricsServer.Port, MetricsServerPortEnv)
	setFromEnv(&conf.AWS.Region, AWSRegionEnv)
	setFromEnv(&conf.AWS.Endpoint, AWSEndpointEnv)
	setFromEnv(&conf.AWS.SQSQueueURL, SQSQueueURLEnv)

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}
