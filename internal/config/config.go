// Package config loads the YAML configuration a real ftserver binary
// boots from: shard topology, coordinator fan-out timeouts, default
// vector-index parameters, the command layer's reject-legacy-field-names
// toggle, and HTTP/auth/logging settings. Grounded on
// kailas-cloud-vecdex's internal/config package: a single yaml-tagged
// Config struct, env-name-to-file resolution under ./config/, ${VAR}
// environment substitution before unmarshal, and an ApplyDefaults +
// Validate pass after.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full ftserver bootstrap configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Shards      ShardConfig       `yaml:"shards"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Vector      VectorConfig      `yaml:"vector"`
	Command     CommandConfig     `yaml:"command"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// HTTPConfig holds the debug/admin HTTP surface's listener settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ShardConfig describes the in-process shard topology.
type ShardConfig struct {
	Count int `yaml:"count"`
}

// CoordinatorConfig configures the fan-out coordinator (mirrors
// coordinator.Config's fields; this is the YAML-facing counterpart).
type CoordinatorConfig struct {
	QueryTimeoutMS    int `yaml:"query_timeout_ms"`
	PerShardTimeoutMS int `yaml:"per_shard_timeout_ms"`
}

// VectorConfig holds default HNSW parameters, loaded and defaulted here.
// Nothing outside this package reads them: when FT.CREATE's SCHEMA
// clause omits M/EF_CONSTRUCTION, internal/command's parseVectorParams
// falls back to its own fixed 16/200.
type VectorConfig struct {
	DefaultM              int `yaml:"default_m"`
	DefaultEFConstruction int `yaml:"default_ef_construction"`
}

// CommandConfig holds command-surface-wide toggles.
type CommandConfig struct {
	// RejectLegacyFieldNames, when true, requires GROUPBY/SORTBY field
	// names in FT.AGGREGATE to carry a leading "@". It is loaded and
	// defaulted here only; cmd/ftserver does not pass it on, and
	// command.ParseAggregate takes the toggle as a bool argument from
	// its caller.
	RejectLegacyFieldNames bool `yaml:"reject_legacy_field_names"`
}

// AuthConfig holds the debug/admin HTTP surface's bearer tokens.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds internal/logger.New's inputs.
type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// QueryTimeout and PerShardTimeout convert CoordinatorConfig's
// millisecond fields to time.Duration for coordinator.Config.
func (c CoordinatorConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMS) * time.Millisecond
}

func (c CoordinatorConfig) PerShardTimeout() time.Duration {
	return time.Duration(c.PerShardTimeoutMS) * time.Millisecond
}

// Load reads configuration from config/<env>.yaml, expanding ${VAR} and
// ${VAR:-default} references against the process environment before
// unmarshaling.
func Load(env string) (Config, error) {
	path := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
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

// Env returns the current environment from the ENV variable, defaulting
// to "local".
func Env() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills unset fields with sensible defaults.
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
	if c.Shards.Count <= 0 {
		c.Shards.Count = 1
	}
	if c.Coordinator.QueryTimeoutMS <= 0 {
		c.Coordinator.QueryTimeoutMS = 10_000
	}
	if c.Coordinator.PerShardTimeoutMS <= 0 {
		c.Coordinator.PerShardTimeoutMS = 5_000
	}
	if c.Vector.DefaultM <= 0 {
		c.Vector.DefaultM = 16
	}
	if c.Vector.DefaultEFConstruction <= 0 {
		c.Vector.DefaultEFConstruction = 200
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Shards.Count <= 0 {
		return fmt.Errorf("shards.count must be positive, got %d", c.Shards.Count)
	}
	return nil
}

func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
