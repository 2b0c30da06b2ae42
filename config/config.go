// Package config loads chunking pipeline configuration from YAML files.
// Loaded values translate into chunker options; validation happens in the
// chunker constructor so the rules live in one place.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/ragchunk/chunker"
	"github.com/sevigo/ragchunk/schema"
)

var (
	ErrConfigNotFound = errors.New("config: file not found")
	ErrConfigInvalid  = errors.New("config: invalid configuration")
)

// Config mirrors the YAML configuration file.
type Config struct {
	Strategy            string  `yaml:"strategy"`
	ChunkSize           int     `yaml:"chunk_size"`
	OverlapSize         int     `yaml:"overlap_size"`
	MinChunkSize        int     `yaml:"min_chunk_size"`
	ContextWindow       int     `yaml:"context_window"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	DocumentType        string  `yaml:"document_type"`
	WindowSize          int     `yaml:"window_size"`
	MaxContextLength    int     `yaml:"max_context_length"`
	BlendWeight         float64 `yaml:"blend_weight"`
	GlobalContextMode   string  `yaml:"global_context_mode"`

	Embedder EmbedderConfig `yaml:"embedder"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"` // "ollama" or "gemini"
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// QdrantConfig configures the chunk store.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Strategy:            string(chunker.StrategyStructure),
		ChunkSize:           512,
		OverlapSize:         50,
		ContextWindow:       2,
		SimilarityThreshold: 0.5,
		DocumentType:        string(schema.DocumentTypeGeneric),
		WindowSize:          3,
		MaxContextLength:    8192,
		BlendWeight:         0.7,
		GlobalContextMode:   string(chunker.GlobalContextFullDocument),
		Embedder: EmbedderConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "chunks",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown fields are rejected so
// typos surface immediately.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, err)
	}

	if _, err := chunker.ParseStrategy(cfg.Strategy); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	return cfg, nil
}

// ChunkerOptions translates the configuration into chunker options. The
// chunker constructor validates ranges.
func (c Config) ChunkerOptions() []chunker.Option {
	return []chunker.Option{
		chunker.WithChunkSize(c.ChunkSize),
		chunker.WithOverlapSize(c.OverlapSize),
		chunker.WithMinChunkSize(c.MinChunkSize),
		chunker.WithContextWindow(c.ContextWindow),
		chunker.WithSimilarityThreshold(c.SimilarityThreshold),
		chunker.WithDocumentType(schema.DocumentType(c.DocumentType)),
		chunker.WithWindowSize(c.WindowSize),
		chunker.WithMaxContextLength(c.MaxContextLength),
		chunker.WithBlendWeight(c.BlendWeight),
		chunker.WithGlobalContextMode(chunker.GlobalContextMode(c.GlobalContextMode)),
	}
}
