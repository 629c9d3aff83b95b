package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the propdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Session    SessionConfig    `yaml:"session"`
	Matching   MatchingConfig   `yaml:"matching"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds key-value store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// CatalogConfig holds catalog snapshot settings.
type CatalogConfig struct {
	SnapshotTTLSec int `yaml:"snapshot_ttl_sec"`
}

// SessionConfig holds conversational session settings.
type SessionConfig struct {
	TTLMin int `yaml:"ttl_min"`
}

// MatchingConfig holds matching engine tuning knobs.
type MatchingConfig struct {
	TopK            int           `yaml:"top_k"`
	BudgetLadder    []float64     `yaml:"budget_ladder"`
	RadiusKm        float64       `yaml:"radius_km"`
	WidenedRadiusKm float64       `yaml:"widened_radius_km"`
	Weights         WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds soft-scoring weights. Zero values mean "use the
// built-in defaults"; the engine never treats a weight of 0 as meaningful.
type WeightsConfig struct {
	LocalityPrimary   float64 `yaml:"locality_primary"`
	LocalitySecondary float64 `yaml:"locality_secondary"`
	LocalityMissing   float64 `yaml:"locality_missing"`
	BudgetWithin      float64 `yaml:"budget_within"`
	BudgetTolerance   float64 `yaml:"budget_tolerance"`
	BedroomExact      float64 `yaml:"bedroom_exact"`
	ZoneMatch         float64 `yaml:"zone_match"`
}

// IsZero reports whether no weight was configured.
func (w WeightsConfig) IsZero() bool { return w == WeightsConfig{} }

// ExtractionConfig holds chat criteria-extraction settings.
type ExtractionConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "propdex:"
	}
	if c.Catalog.SnapshotTTLSec <= 0 {
		c.Catalog.SnapshotTTLSec = 60
	}
	if c.Session.TTLMin <= 0 {
		c.Session.TTLMin = 30
	}
	if c.Matching.TopK <= 0 {
		c.Matching.TopK = 5
	}
	if len(c.Matching.BudgetLadder) == 0 {
		c.Matching.BudgetLadder = []float64{1.1, 1.2, 1.3, 1.4, 1.6, 1.8, 2.0}
	}
	if c.Matching.RadiusKm <= 0 {
		c.Matching.RadiusKm = 10
	}
	if c.Matching.WidenedRadiusKm <= 0 {
		c.Matching.WidenedRadiusKm = 15
	}
	if c.Extraction.Model == "" {
		c.Extraction.Model = "gpt-4o-mini"
	}
	if c.Extraction.TimeoutSec <= 0 {
		c.Extraction.TimeoutSec = 15
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	prev := 1.0
	for i, mult := range c.Matching.BudgetLadder {
		if mult <= prev {
			return fmt.Errorf("matching.budget_ladder must be strictly increasing and > 1, got %g at step %d", mult, i)
		}
		prev = mult
	}
	if c.Matching.WidenedRadiusKm < c.Matching.RadiusKm {
		return fmt.Errorf("matching.widened_radius_km must be >= radius_km")
	}
	if c.Extraction.Enabled && c.Extraction.APIKey == "" {
		return fmt.Errorf("extraction.api_key is required when extraction is enabled")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
