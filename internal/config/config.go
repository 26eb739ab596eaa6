package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

// Config holds the ideascout configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Chat       ChatConfig       `yaml:"chat"`
	Literature LiteratureConfig `yaml:"literature"`
	Search     SearchConfig     `yaml:"search"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Auth       AuthConfig       `yaml:"auth"`
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
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // 0 = unbounded, search streams are long-lived
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string      `yaml:"provider"`
	APIKey     string      `yaml:"api_key"`
	BaseURL    string      `yaml:"base_url"`
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"`
}

// EnrichmentConfig holds reasoning service settings. Empty credentials fall
// back to the embedding provider.
type EnrichmentConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ChatConfig holds chat completion settings. Empty credentials fall back to
// the enrichment service.
type ChatConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

// LiteratureConfig holds the arXiv adapter settings.
type LiteratureConfig struct {
	BaseURL      string `yaml:"base_url"`
	Scope        string `yaml:"scope"`
	PageSize     int    `yaml:"page_size"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	EmbedWorkers int    `yaml:"embed_workers"`
	ImageURL     string `yaml:"image_url"`
}

// SearchConfig holds aggregation and ranking settings.
type SearchConfig struct {
	SimilarityThreshold float64        `yaml:"similarity_threshold"`
	AdapterTimeoutSec   int            `yaml:"adapter_timeout_sec"`
	SourceCaps          map[string]int `yaml:"source_caps"`
}

// CatalogConfig holds indexed catalog settings.
type CatalogConfig struct {
	RefreshIntervalSec int `yaml:"refresh_interval_sec"`
	HNSWM              int `yaml:"hnsw_m"`
	HNSWEFConstruct    int `yaml:"hnsw_ef_construction"`
	IngestBatchSize    int `yaml:"ingest_batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expands env variables, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.WriteTimeoutSec < 0 {
		c.HTTP.WriteTimeoutSec = 0
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24 * 7
	}

	if c.Enrichment.APIKey == "" {
		c.Enrichment.APIKey = c.Embedding.APIKey
		if c.Enrichment.BaseURL == "" {
			c.Enrichment.BaseURL = c.Embedding.BaseURL
		}
	}
	if c.Enrichment.Model == "" {
		c.Enrichment.Model = "gpt-4o-mini"
	}
	if c.Enrichment.TimeoutSec <= 0 {
		c.Enrichment.TimeoutSec = 15
	}

	if c.Chat.APIKey == "" {
		c.Chat.APIKey = c.Enrichment.APIKey
		if c.Chat.BaseURL == "" {
			c.Chat.BaseURL = c.Enrichment.BaseURL
		}
	}
	if c.Chat.Model == "" {
		c.Chat.Model = c.Enrichment.Model
	}

	if c.Literature.Scope == "" {
		c.Literature.Scope = "cs.*"
	}
	if c.Literature.PageSize <= 0 {
		c.Literature.PageSize = 20
	}
	if c.Literature.TimeoutSec <= 0 {
		c.Literature.TimeoutSec = 15
	}

	if c.Search.SimilarityThreshold <= 0 {
		c.Search.SimilarityThreshold = 0.3
	}
	if c.Search.AdapterTimeoutSec <= 0 {
		c.Search.AdapterTimeoutSec = 20
	}
	if c.Search.SourceCaps == nil {
		c.Search.SourceCaps = make(map[string]int)
	}
	if _, ok := c.Search.SourceCaps[string(source.Arxiv)]; !ok {
		c.Search.SourceCaps[string(source.Arxiv)] = c.Literature.PageSize
	}

	if c.Catalog.RefreshIntervalSec <= 0 {
		c.Catalog.RefreshIntervalSec = 600
	}
	if c.Catalog.HNSWM <= 0 {
		c.Catalog.HNSWM = 16
	}
	if c.Catalog.HNSWEFConstruct <= 0 {
		c.Catalog.HNSWEFConstruct = 200
	}
	if c.Catalog.IngestBatchSize <= 0 {
		c.Catalog.IngestBatchSize = 64
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	if c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("search.similarity_threshold must be in (0, 1], got %g", c.Search.SimilarityThreshold)
	}
	for name, limit := range c.Search.SourceCaps {
		if _, err := source.Parse(name); err != nil {
			return fmt.Errorf("search.source_caps: %w", err)
		}
		if limit < 0 {
			return fmt.Errorf("search.source_caps.%s must not be negative, got %d", name, limit)
		}
	}
	return nil
}

// SourceCaps returns the per-source caps keyed by source. Call after Validate.
func (c *Config) SourceCaps() map[source.Source]int {
	out := make(map[source.Source]int, len(c.Search.SourceCaps))
	for name, limit := range c.Search.SourceCaps {
		if limit > 0 {
			out[source.Source(name)] = limit
		}
	}
	return out
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
