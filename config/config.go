package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"semindex/internal/domain"
)

// DataDir is the per-project directory holding the index and config.
const DataDir = ".semindex"

// Config holds all configuration for semindex.
type Config struct {
	Index       IndexConfig       `yaml:"index" toml:"index"`
	Embedding   EmbeddingConfig   `yaml:"embedding" toml:"embedding"`
	Persistence PersistenceConfig `yaml:"persistence" toml:"persistence"`
	Retrieve    RetrieveConfig    `yaml:"retrieve" toml:"retrieve"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

// IndexConfig holds chunking and file selection configuration.
type IndexConfig struct {
	Includes     []string `yaml:"includes" toml:"includes"`
	Excludes     []string `yaml:"excludes" toml:"excludes"`
	ChunkTokens  int      `yaml:"chunk_tokens" toml:"chunk_tokens"`
	ChunkOverlap int      `yaml:"chunk_overlap" toml:"chunk_overlap"` // sentences
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Method            string   `yaml:"method" toml:"method"`     // "model_embedding" or "ftidf_vectorizer"
	Provider          string   `yaml:"provider" toml:"provider"` // "none", "openai", "deepseek", "jina", "ollama", "mock"
	Model             string   `yaml:"model" toml:"model"`
	BaseURL           string   `yaml:"base_url" toml:"base_url"`
	APIKeyEnv         string   `yaml:"api_key_env" toml:"api_key_env"` // Environment variable for API key
	Dimension         int      `yaml:"dimension" toml:"dimension"`
	BatchSize         int      `yaml:"batch_size" toml:"batch_size"`
	Timeout           Duration `yaml:"timeout" toml:"timeout"`
	RequestsPerSecond float64  `yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int      `yaml:"burst" toml:"burst"`
	Stopwords         bool     `yaml:"stopwords" toml:"stopwords"` // drop English stopwords from the TF-IDF vocabulary
}

// PersistenceConfig holds snapshot storage configuration.
type PersistenceConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Format      string `yaml:"format" toml:"format"` // "json" or "bolt"
	Path        string `yaml:"path" toml:"path"`
	AutoPersist bool   `yaml:"auto_persist" toml:"auto_persist"`
}

// RetrieveConfig holds query configuration.
type RetrieveConfig struct {
	TopK      int      `yaml:"top_k" toml:"top_k"`
	CacheSize int      `yaml:"cache_size" toml:"cache_size"` // 0 disables the query cache
	CacheTTL  Duration `yaml:"cache_ttl" toml:"cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:     []string{"**/*.txt", "**/*.md", "**/*.rst"},
			Excludes:     []string{"**/.git/**", "**/" + DataDir + "/**", "**/node_modules/**", "**/vendor/**"},
			ChunkTokens:  512,
			ChunkOverlap: 1,
		},
		Embedding: EmbeddingConfig{
			Method:    "model_embedding",
			Provider:  "none",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 100,
			Timeout:   Duration(60 * time.Second),
		},
		Persistence: PersistenceConfig{
			Enabled:     true,
			Format:      "json",
			Path:        filepath.Join(DataDir, "index.json"),
			AutoPersist: true,
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			CacheSize: 128,
			CacheTTL:  Duration(5 * time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads configuration from a YAML or TOML file, chosen by extension.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory, trying semindex.yaml,
// semindex.toml and .semindex/config.yaml in that order.
func LoadFromDir(dir string) (*Config, error) {
	candidates := []string{
		filepath.Join(dir, "semindex.yaml"),
		filepath.Join(dir, "semindex.toml"),
		filepath.Join(dir, DataDir, "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	// Return defaults
	return DefaultConfig(), nil
}

// Save saves configuration to a YAML or TOML file, chosen by extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Index.ChunkTokens < 1 {
		errs = append(errs, fmt.Errorf("index.chunk_tokens must be positive, got %d", c.Index.ChunkTokens))
	}
	if c.Index.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("index.chunk_overlap must not be negative, got %d", c.Index.ChunkOverlap))
	}
	if _, err := c.Embedding.ParsedMethod(); err != nil {
		errs = append(errs, fmt.Errorf("embedding.method: %w", err))
	}
	switch strings.ToLower(strings.TrimSpace(c.Embedding.Provider)) {
	case "", "none", "openai", "deepseek", "jina", "ollama", "mock":
	default:
		errs = append(errs, fmt.Errorf("embedding.provider: unknown provider %q", c.Embedding.Provider))
	}
	switch c.Persistence.Format {
	case "json", "bolt":
	default:
		errs = append(errs, fmt.Errorf("persistence.format: unknown format %q", c.Persistence.Format))
	}
	if c.Retrieve.TopK < 1 {
		errs = append(errs, fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, errors.Join(errs...))
	}
	return nil
}

// ParsedMethod returns the configured vectorization method.
func (e EmbeddingConfig) ParsedMethod() (domain.Method, error) {
	return domain.ParseMethod(e.Method)
}

// IndexPath returns the path of the persisted index. Relative paths are
// resolved against dir.
func IndexPath(dir string, cfg *Config) string {
	path := cfg.Persistence.Path
	if path == "" {
		path = filepath.Join(DataDir, "index.json")
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// EnsureDataDir ensures the .semindex directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, DataDir), 0755)
}
