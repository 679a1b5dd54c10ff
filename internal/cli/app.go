package cli

import (
	"fmt"
	"log/slog"

	"semindex/config"
	"semindex/internal/adapter/analyzer"
	"semindex/internal/adapter/cache"
	"semindex/internal/adapter/embedding"
	"semindex/internal/adapter/store"
	"semindex/internal/port"
	"semindex/internal/usecase"
)

// openStore opens the configured snapshot backend, or returns nil when
// persistence is disabled.
func openStore(dir string, cfg *config.Config) (port.SnapshotStore, error) {
	if !cfg.Persistence.Enabled {
		return nil, nil
	}
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", config.DataDir, err)
	}

	path := config.IndexPath(dir, cfg)
	switch cfg.Persistence.Format {
	case "bolt":
		st, err := store.NewBoltStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open index store: %w", err)
		}
		return st, nil
	default:
		return store.NewJSONFileStore(path), nil
	}
}

// openModel builds the dense embedding capability, or returns nil when no
// provider is configured.
func openModel(cfg *config.Config) (port.Model, error) {
	e := cfg.Embedding
	embedder, err := embedding.NewEmbedder(embedding.Config{
		Provider:          e.Provider,
		Model:             e.Model,
		BaseURL:           e.BaseURL,
		APIKeyEnv:         e.APIKeyEnv,
		Dimension:         e.Dimension,
		BatchSize:         e.BatchSize,
		Timeout:           e.Timeout.Std(),
		RequestsPerSecond: e.RequestsPerSecond,
		Burst:             e.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if embedder == nil {
		return nil, nil
	}
	return embedding.NewModel(analyzer.NewWordTokenizer(), embedder), nil
}

// openIndex wires an Index from the configuration and loads the persisted
// snapshot. The returned close function releases the store.
func openIndex(progress func(done, total int)) (*usecase.Index, func() error, error) {
	cfg := GetConfig()
	log := GetLogger()

	method, err := cfg.Embedding.ParsedMethod()
	if err != nil {
		return nil, nil, err
	}

	model, err := openModel(cfg)
	if err != nil {
		// A broken provider is treated like a missing one: the index falls
		// back to TF-IDF.
		log.Warn("embedder_unavailable", slog.String("error", err.Error()))
		model = nil
	}

	st, err := openStore(GetRootDir(), cfg)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() error {
		if st == nil {
			return nil
		}
		return st.Close()
	}

	var qc *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		qc = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL.Std())
	}

	idx := usecase.NewIndex(usecase.IndexOptions{
		Method:      method,
		Model:       model,
		Store:       st,
		AutoPersist: cfg.Persistence.AutoPersist,
		Cache:       qc,
		Stopwords:   cfg.Embedding.Stopwords,
		Progress:    progress,
		Logger:      log,
	})

	if st != nil {
		if err := idx.Load(); err != nil {
			closeStore()
			return nil, nil, err
		}
	}
	return idx, closeStore, nil
}

// saveIndex persists after a build when auto-persist is off.
func saveIndex(idx *usecase.Index) error {
	cfg := GetConfig()
	if !cfg.Persistence.Enabled || cfg.Persistence.AutoPersist {
		return nil
	}
	return idx.Persist()
}
