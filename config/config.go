package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config holds the complete application configuration
type Config struct {
	// HTTP server settings
	HTTP struct {
		Address     string   `yaml:"address"`
		Port        string   `yaml:"port"`
		StaticDir   string   `yaml:"static_dir"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"http"`

	// Storage settings
	Storage struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`

	// IBGE localidades API settings
	IBGE struct {
		BaseURL     string        `yaml:"base_url"`
		Timeout     time.Duration `yaml:"timeout"`
		SyncOnStart bool          `yaml:"sync_on_start"`
	} `yaml:"ibge"`

	// States GeoJSON source
	Geo struct {
		StatesURL string `yaml:"states_url"`
	} `yaml:"geo"`

	// File cache for upstream documents
	Cache struct {
		Dir string        `yaml:"dir"`
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	// Redis listing cache; an empty address disables it
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	// Logging settings
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// Resilience settings (embedded)
	Resilience ResilienceConfig `yaml:"resilience"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	// Validate HTTP settings
	if c.HTTP.Port == "" {
		errors = append(errors, "HTTP port is required")
	}

	// Validate storage settings
	if c.Storage.Driver != DriverBolt && c.Storage.Driver != DriverSQLite {
		errors = append(errors, fmt.Sprintf("Storage driver must be %q or %q, got %q", DriverBolt, DriverSQLite, c.Storage.Driver))
	}
	if c.Storage.Path == "" {
		errors = append(errors, "Storage path is required")
	}

	// Validate IBGE settings
	if c.IBGE.BaseURL == "" {
		errors = append(errors, "IBGE base URL is required")
	}
	if c.IBGE.Timeout <= 0 {
		errors = append(errors, "IBGE timeout must be positive")
	}

	// Validate geo settings
	if c.Geo.StatesURL == "" {
		errors = append(errors, "Geo states URL is required")
	}

	// Validate cache settings
	if c.Cache.Dir == "" {
		errors = append(errors, "Cache directory is required")
	}
	if c.Cache.TTL <= 0 {
		errors = append(errors, "Cache TTL must be positive")
	}

	// Validate Redis settings
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		errors = append(errors, "Redis TTL must be positive")
	}
	if c.Redis.DB < 0 {
		errors = append(errors, "Redis DB must not be negative")
	}

	// Validate logging settings
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errors = append(errors, "Log level must be one of: DEBUG, INFO, WARN, ERROR")
	}
	if c.Log.Format != LogFormatJSON && c.Log.Format != LogFormatText {
		errors = append(errors, "Log format must be one of: json, text")
	}

	// Validate resilience config
	if err := c.Resilience.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("Resilience config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	// HTTP defaults
	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "8080"
	cfg.HTTP.StaticDir = "web/dist"
	cfg.HTTP.CORSOrigins = []string{"*"}

	// Storage defaults
	cfg.Storage.Driver = DriverBolt
	cfg.Storage.Path = "data/censo.db"

	// IBGE defaults
	cfg.IBGE.BaseURL = "https://servicodados.ibge.gov.br/api/v1/localidades"
	cfg.IBGE.Timeout = 60 * time.Second
	cfg.IBGE.SyncOnStart = false

	// Geo default
	cfg.Geo.StatesURL = "https://raw.githubusercontent.com/codeforgermany/click_that_hood/main/public/data/brazil-states.geojson"

	// Cache defaults
	cfg.Cache.Dir = "data/cache"
	cfg.Cache.TTL = 24 * time.Hour

	// Redis defaults (disabled until an address is set)
	cfg.Redis.TTL = 10 * time.Minute

	// Logging defaults
	cfg.Log.Level = "INFO"
	cfg.Log.Format = LogFormatJSON

	// Resilience defaults
	cfg.Resilience = *DefaultResilienceConfig()

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if it exists) and applies environment
// variable overrides. An empty path falls back to CONFIG_FILE, then config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = "config.yaml"
	}

	var cfg *Config

	// Try to load from file if it exists
	if _, err := os.Stat(path); err == nil {
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist, use defaults
		cfg = Default()
	} else {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Normalize directories to absolute paths
	dir, err := absPath(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Cache.Dir = dir

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	parser := &envParser{}

	// HTTP settings
	parser.parseString("HTTP_ADDRESS", &cfg.HTTP.Address)
	parser.parseString("HTTP_PORT", &cfg.HTTP.Port)
	parser.parseString("STATIC_DIR", &cfg.HTTP.StaticDir)
	parser.parseList("CORS_ORIGINS", &cfg.HTTP.CORSOrigins)

	// Storage settings
	parser.parseEnum("STORAGE_DRIVER", &cfg.Storage.Driver, DriverBolt, DriverSQLite)
	parser.parseString("DB_PATH", &cfg.Storage.Path)

	// IBGE settings
	parser.parseString("IBGE_BASE_URL", &cfg.IBGE.BaseURL)
	parser.parseDuration("IBGE_TIMEOUT", &cfg.IBGE.Timeout)
	parser.parseBool("SYNC_ON_START", &cfg.IBGE.SyncOnStart)

	// Geo settings
	parser.parseString("GEO_STATES_URL", &cfg.Geo.StatesURL)

	// Cache settings
	parser.parseString("CACHE_DIR", &cfg.Cache.Dir)
	parser.parseDuration("CACHE_TTL", &cfg.Cache.TTL)

	// Redis settings
	parser.parseString("REDIS_ADDR", &cfg.Redis.Addr)
	parser.parseString("REDIS_PASSWORD", &cfg.Redis.Password)
	parser.parseInt("REDIS_DB", &cfg.Redis.DB, 0)
	parser.parseDuration("REDIS_TTL", &cfg.Redis.TTL)

	// Logging settings
	parser.parseEnum("LOG_LEVEL", &cfg.Log.Level, "DEBUG", "INFO", "WARN", "ERROR")
	parser.parseEnum("LOG_FORMAT", &cfg.Log.Format, LogFormatJSON, LogFormatText)

	// Resilience settings
	cfg.Resilience.applyEnv(parser)

	return parser.err()
}

// absPath resolves a directory to an absolute path
func absPath(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s: %w", dir, err)
	}
	return abs, nil
}

// ListenAddr returns the address the HTTP server binds to
func (c *Config) ListenAddr() string {
	return c.HTTP.Address + ":" + c.HTTP.Port
}

// Print outputs the configuration to stdout, masking secrets
func (c *Config) Print() {
	fmt.Printf("httpAddress: %v\n", c.HTTP.Address)
	fmt.Printf("httpPort: %v\n", c.HTTP.Port)
	fmt.Printf("staticDir: %v\n", c.HTTP.StaticDir)
	fmt.Printf("corsOrigins: %v\n", strings.Join(c.HTTP.CORSOrigins, ","))
	fmt.Printf("storageDriver: %v\n", c.Storage.Driver)
	fmt.Printf("storagePath: %v\n", c.Storage.Path)
	fmt.Printf("ibgeBaseUrl: %v\n", c.IBGE.BaseURL)
	fmt.Printf("ibgeTimeout: %v\n", c.IBGE.Timeout)
	fmt.Printf("syncOnStart: %v\n", c.IBGE.SyncOnStart)
	fmt.Printf("geoStatesUrl: %v\n", c.Geo.StatesURL)
	fmt.Printf("cacheDir: %v\n", c.Cache.Dir)
	fmt.Printf("cacheTTL: %v\n", c.Cache.TTL)
	fmt.Printf("redisAddr: %v\n", c.Redis.Addr)
	if c.Redis.Password != "" {
		fmt.Printf("redisPassword: ****\n")
	}
	fmt.Printf("redisDB: %v\n", c.Redis.DB)
	fmt.Printf("redisTTL: %v\n", c.Redis.TTL)
	fmt.Printf("logLevel: %v\n", c.Log.Level)
	fmt.Printf("logFormat: %v\n", c.Log.Format)
	fmt.Printf("cbFailureThreshold: %v\n", c.Resilience.CBFailureThreshold)
	fmt.Printf("cbTimeout: %v\n", c.Resilience.CBTimeout)
	fmt.Printf("rateLimitRps: %v\n", c.Resilience.RateLimitRPS)
	fmt.Printf("rateLimitBurst: %v\n", c.Resilience.RateLimitBurst)
}
