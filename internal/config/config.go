package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. ETF_SERVER_PORT.
const EnvPrefix = "ETF"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Render    RenderConfig    `yaml:"render" envconfig:"RENDER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"warn"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/runtime/log_processing.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	RootDir    string `yaml:"root_dir" envconfig:"ROOT_DIR" default:"."`
	DatasetDir string `yaml:"dataset_dir" envconfig:"DATASET_DIR" default:"docs/dataset"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"exports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// DatasetConfig names the serialized collections produced by the pipeline
type DatasetConfig struct {
	Categories     []string `yaml:"categories" envconfig:"CATEGORIES" default:"ETF_sector,ETF_equity/PPA"`
	PriceFile      string   `yaml:"price_file" envconfig:"PRICE_FILE" default:"pivot_stats.json"`
	VolumeFile     string   `yaml:"volume_file" envconfig:"VOLUME_FILE" default:"pivot_vol_stats.json"`
	UniqueDaysFile string   `yaml:"unique_days_file" envconfig:"UNIQUE_DAYS_FILE" default:"pivot_unique_days.json"`
	FREDDir        string   `yaml:"fred_dir" envconfig:"FRED_DIR" default:"economic_data/FRED"`
	FREDFile       string   `yaml:"fred_file" envconfig:"FRED_FILE" default:"fred_data.json"`
}

// StorageConfig selects where the dataset tree is read from
type StorageConfig struct {
	Backend string `yaml:"backend" envconfig:"BACKEND" default:"fs"`
	Bucket  string `yaml:"bucket" envconfig:"BUCKET"`
	Prefix  string `yaml:"prefix" envconfig:"PREFIX" default:"docs/dataset"`
	Region  string `yaml:"region" envconfig:"REGION" default:"us-east-1"`
	Profile string `yaml:"profile" envconfig:"PROFILE"`
}

// CacheConfig configures the optional Redis tier behind the in-process memo
type CacheConfig struct {
	RedisEnabled  bool          `yaml:"redis_enabled" envconfig:"REDIS_ENABLED" default:"false"`
	RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB" default:"0"`
	TTL           time.Duration `yaml:"ttl" envconfig:"TTL" default:"24h"`
	KeyPrefix     string        `yaml:"key_prefix" envconfig:"KEY_PREFIX" default:"etfseasonal:"`
}

// RenderConfig holds chart and table styling
type RenderConfig struct {
	ChartWidth           int     `yaml:"chart_width" envconfig:"CHART_WIDTH" default:"850"`
	ChartHeight          int     `yaml:"chart_height" envconfig:"CHART_HEIGHT" default:"350"`
	HighlightColor       string  `yaml:"highlight_color" envconfig:"HIGHLIGHT_COLOR" default:"lightblue"`
	NullColor            string  `yaml:"null_color" envconfig:"NULL_COLOR" default:"gray"`
	NegativeBarColor     string  `yaml:"negative_bar_color" envconfig:"NEGATIVE_BAR_COLOR" default:"#FFA07A"`
	PositiveBarColor     string  `yaml:"positive_bar_color" envconfig:"POSITIVE_BAR_COLOR" default:"lightgreen"`
	ProbabilityThreshold float64 `yaml:"probability_threshold" envconfig:"PROBABILITY_THRESHOLD" default:"0.7"`
	EconomicStartYear    int     `yaml:"economic_start_year" envconfig:"ECONOMIC_START_YEAR" default:"1980"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"4096"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
	MaxMessageSize  int64         `yaml:"max_message_size" envconfig:"MAX_MESSAGE_SIZE" default:"8192"`
}

// Load loads configuration from .env, environment variables and config file
func Load() (*Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. A value set explicitly in
// the environment wins; otherwise a non-zero file value replaces the default.
func mergeConfigs(fileConfig, envConfig Config) Config {
	pickInt(&envConfig.Server.Port, fileConfig.Server.Port, "SERVER_PORT")
	pickDuration(&envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	pickDuration(&envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	pickDuration(&envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")

	pickString(&envConfig.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	pickString(&envConfig.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	pickString(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	pickString(&envConfig.Paths.RootDir, fileConfig.Paths.RootDir, "PATHS_ROOT_DIR")
	pickString(&envConfig.Paths.DatasetDir, fileConfig.Paths.DatasetDir, "PATHS_DATASET_DIR")
	pickString(&envConfig.Paths.ExportsDir, fileConfig.Paths.ExportsDir, "PATHS_EXPORTS_DIR")
	pickString(&envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir, "PATHS_LOGS_DIR")

	if len(fileConfig.Dataset.Categories) > 0 && !envSet("DATASET_CATEGORIES") {
		envConfig.Dataset.Categories = fileConfig.Dataset.Categories
	}

	pickString(&envConfig.Storage.Backend, fileConfig.Storage.Backend, "STORAGE_BACKEND")
	pickString(&envConfig.Storage.Bucket, fileConfig.Storage.Bucket, "STORAGE_BUCKET")
	pickString(&envConfig.Storage.Prefix, fileConfig.Storage.Prefix, "STORAGE_PREFIX")
	pickString(&envConfig.Storage.Region, fileConfig.Storage.Region, "STORAGE_REGION")

	if fileConfig.Cache.RedisEnabled && !envSet("CACHE_REDIS_ENABLED") {
		envConfig.Cache.RedisEnabled = true
	}
	pickString(&envConfig.Cache.RedisAddr, fileConfig.Cache.RedisAddr, "CACHE_REDIS_ADDR")
	pickDuration(&envConfig.Cache.TTL, fileConfig.Cache.TTL, "CACHE_TTL")

	pickInt(&envConfig.Render.ChartWidth, fileConfig.Render.ChartWidth, "RENDER_CHART_WIDTH")
	pickInt(&envConfig.Render.ChartHeight, fileConfig.Render.ChartHeight, "RENDER_CHART_HEIGHT")
	pickString(&envConfig.Render.HighlightColor, fileConfig.Render.HighlightColor, "RENDER_HIGHLIGHT_COLOR")
	pickString(&envConfig.Render.NullColor, fileConfig.Render.NullColor, "RENDER_NULL_COLOR")

	return envConfig
}

func envSet(name string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + name)
	return ok
}

func pickString(dst *string, fileVal, env string) {
	if fileVal != "" && !envSet(env) {
		*dst = fileVal
	}
}

func pickInt(dst *int, fileVal int, env string) {
	if fileVal != 0 && !envSet(env) {
		*dst = fileVal
	}
}

func pickDuration(dst *time.Duration, fileVal time.Duration, env string) {
	if fileVal != 0 && !envSet(env) {
		*dst = fileVal
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Dataset.Categories) == 0 {
		return fmt.Errorf("at least one ETF category must be configured")
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "fs":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Render.ProbabilityThreshold <= 0 || c.Render.ProbabilityThreshold > 1 {
		return fmt.Errorf("probability threshold must be in (0, 1], got %v", c.Render.ProbabilityThreshold)
	}

	if c.Render.ChartWidth <= 0 || c.Render.ChartHeight <= 0 {
		return fmt.Errorf("chart size must be positive")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/runtime/log_processing.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "warn",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/runtime/log_processing.log",
		},
		Paths: PathsConfig{
			RootDir:    ".",
			DatasetDir: "docs/dataset",
			ExportsDir: "exports",
			LogsDir:    "logs",
		},
		Dataset: DatasetConfig{
			Categories:     []string{"ETF_sector", "ETF_equity/PPA"},
			PriceFile:      "pivot_stats.json",
			VolumeFile:     "pivot_vol_stats.json",
			UniqueDaysFile: "pivot_unique_days.json",
			FREDDir:        "economic_data/FRED",
			FREDFile:       "fred_data.json",
		},
		Storage: StorageConfig{
			Backend: "fs",
			Prefix:  "docs/dataset",
			Region:  "us-east-1",
		},
		Cache: CacheConfig{
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
			KeyPrefix: "etfseasonal:",
		},
		Render: RenderConfig{
			ChartWidth:           850,
			ChartHeight:          350,
			HighlightColor:       "lightblue",
			NullColor:            "gray",
			NegativeBarColor:     "#FFA07A",
			PositiveBarColor:     "lightgreen",
			ProbabilityThreshold: 0.7,
			EconomicStartYear:    1980,
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			EnableMetrics: true,
			TraceExporter: "stdout",
			SampleRatio:   1.0,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
			MaxMessageSize:  8192,
		},
	}
}
