package embedding

import (
	"fmt"
	"strings"
	"time"

	"semindex/internal/port"
)

// Config selects and configures a dense embedding provider.
type Config struct {
	Provider          string
	Model             string
	BaseURL           string
	APIKeyEnv         string
	Dimension         int
	BatchSize         int
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// NewEmbedder builds the provider named in cfg. Provider names are matched
// case-insensitively. The "none" provider (or an empty one) yields a nil
// embedder, which leaves the index on TF-IDF.
func NewEmbedder(cfg Config) (port.Embedder, error) {
	var (
		e   *OpenAIEmbedder
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "none":
		return nil, nil
	case "openai":
		e, err = NewOpenAIEmbedder(cfg)
	case "deepseek":
		e, err = NewDeepSeekEmbedder(cfg)
	case "jina":
		e, err = NewJinaEmbedder(cfg)
	case "ollama":
		return NewOllamaEmbedder(cfg), nil
	case "mock":
		return NewMockEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
