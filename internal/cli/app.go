package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/korolevd/textifier/internal/cache"
	"github.com/korolevd/textifier/internal/label"
	"github.com/korolevd/textifier/internal/llm"
	"github.com/korolevd/textifier/internal/model"
	"github.com/korolevd/textifier/internal/pipeline"
	"github.com/korolevd/textifier/internal/wikidata"
)

// app bundles the wired-up collaborators one command needs.
type app struct {
	cfg   *model.Config
	pipe  *pipeline.Pipeline
	store *label.Store
	log   *log.Logger
}

// loadConfig layers the config file and environment over the defaults.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("find home directory: %w", err)
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(home, ".textifier", "cache")
	}
	if cfg.Labels.Path == "" {
		cfg.Labels.Path = filepath.Join(home, ".textifier", "labels.db")
	}
	return cfg, nil
}

// buildApp wires the client, caches, label store and pipeline from config.
func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stderr)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	var clientOpts []wikidata.Option
	if cfg.Cache.Enabled {
		layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		clientOpts = append(clientOpts, wikidata.WithCache(layered, cfg.Cache.MemoryTTL))
	}
	clientOpts = append(clientOpts, wikidata.WithRateLimit(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst))

	client := wikidata.NewClient(cfg.HTTP.BaseURL, cfg.HTTP.UserAgent, cfg.HTTP.Timeout, cfg.HTTP.MaxBodyBytes, clientOpts...)

	if err := os.MkdirAll(filepath.Dir(cfg.Labels.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create label store dir: %w", err)
	}
	store, err := label.OpenStore(cfg.Labels.Path, cfg.Labels.TTL, cfg.Labels.MaxRows)
	if err != nil {
		return nil, fmt.Errorf("open label store: %w", err)
	}
	resolver := label.NewCachedResolver(store, client.Labels)

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.Warn("LLM provider unavailable", "err", err)
	}

	pipe := pipeline.New(client, resolver, runtime.NumCPU(), provider, logger)

	return &app{cfg: cfg, pipe: pipe, store: store, log: logger}, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
