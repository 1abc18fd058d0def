package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ResilienceConfig centralizes all resilience-related configuration
type ResilienceConfig struct {
	// Circuit breaker settings for upstream fetches (GeoJSON):
	// failures before opening, time spent open, probes allowed half-open
	CBFailureThreshold int           `yaml:"cb_failure_threshold"`
	CBTimeout          time.Duration `yaml:"cb_timeout"`
	CBHalfOpenRequests int           `yaml:"cb_half_open_requests"`

	// Write rate limiting per client; zero RPS disables limiting
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// DefaultResilienceConfig returns a ResilienceConfig with sensible defaults
func DefaultResilienceConfig() *ResilienceConfig {
	return &ResilienceConfig{
		// Circuit breaker defaults
		CBFailureThreshold: 5,
		CBTimeout:          30 * time.Second,
		CBHalfOpenRequests: 1,

		// Rate limit defaults
		RateLimitRPS:   5,
		RateLimitBurst: 10,
	}
}

// envParser is a helper for parsing environment variables with validation.
// Problems are collected so every bad variable is reported at once.
type envParser struct {
	errors []string
}

// parseString copies a non-empty environment variable into target
func (p *envParser) parseString(envName string, target *string) {
	if val := os.Getenv(envName); val != "" {
		*target = val
	}
}

// parseList splits a comma-separated environment variable, dropping blanks
func (p *envParser) parseList(envName string, target *[]string) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*target = items
}

// parseBool parses a boolean environment variable
func (p *envParser) parseBool(envName string, target *bool) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be true or false", envName))
		return
	}
	*target = b
}

// parseDuration parses a duration environment variable, ensuring it's positive
func (p *envParser) parseDuration(envName string, target *time.Duration) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: invalid duration format (use '30s', '1m', etc.)", envName))
		return
	}

	if duration <= 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must be positive", envName))
		return
	}

	*target = duration
}

// parseInt parses an integer environment variable, ensuring it's at least minVal
func (p *envParser) parseInt(envName string, target *int, minVal int) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be a valid integer", envName))
		return
	}

	if intVal < minVal {
		p.errors = append(p.errors, fmt.Sprintf("%s must be at least %d", envName, minVal))
		return
	}

	*target = intVal
}

// parseFloat parses a non-negative float environment variable
func (p *envParser) parseFloat(envName string, target *float64) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be a valid number", envName))
		return
	}

	if f < 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must not be negative", envName))
		return
	}

	*target = f
}

// parseEnum parses an enum environment variable from a set of valid values
func (p *envParser) parseEnum(envName string, target *string, validValues ...string) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	normalized := strings.ToLower(strings.TrimSpace(val))
	for _, v := range validValues {
		if strings.ToLower(v) == normalized {
			*target = v
			return
		}
	}
	p.errors = append(p.errors, fmt.Sprintf("%s must be one of: %s", envName, strings.Join(validValues, ", ")))
}

// err returns the collected problems as one error, or nil
func (p *envParser) err() error {
	if len(p.errors) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(p.errors, "\n  - "))
}

// applyEnv overrides resilience settings from environment variables
func (c *ResilienceConfig) applyEnv(parser *envParser) {
	parser.parseInt("CB_FAILURE_THRESHOLD", &c.CBFailureThreshold, 1)
	parser.parseDuration("CB_TIMEOUT", &c.CBTimeout)
	parser.parseInt("CB_HALF_OPEN_REQUESTS", &c.CBHalfOpenRequests, 1)
	parser.parseFloat("RATE_LIMIT_RPS", &c.RateLimitRPS)
	parser.parseInt("RATE_LIMIT_BURST", &c.RateLimitBurst, 1)
}

// LoadFromEnv loads resilience configuration from environment variables
// and returns an error if any value is invalid
func LoadFromEnv() (*ResilienceConfig, error) {
	cfg := DefaultResilienceConfig()
	parser := &envParser{}
	cfg.applyEnv(parser)

	if err := parser.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs additional validation on the configuration
func (c *ResilienceConfig) Validate() error {
	var errors []string

	if c.CBFailureThreshold <= 0 {
		errors = append(errors, "CBFailureThreshold must be positive")
	}

	if c.CBTimeout <= 0 {
		errors = append(errors, "CBTimeout must be positive")
	}

	if c.CBHalfOpenRequests <= 0 {
		errors = append(errors, "CBHalfOpenRequests must be positive")
	}

	if c.RateLimitRPS < 0 {
		errors = append(errors, "RateLimitRPS must not be negative")
	}

	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		errors = append(errors, "RateLimitBurst must be positive when rate limiting is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
