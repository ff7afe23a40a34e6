// Package config provides configuration loading for the ragchat service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the record store database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// QdrantConfig holds vector index connection settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds OpenAI embedding settings.
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
}

// ChatConfig holds conversational pipeline settings.
type ChatConfig struct {
	DefaultModel string `yaml:"default_model"`
	TopK         int    `yaml:"top_k"`
}

// IngestConfig holds document ingest settings.
type IngestConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	ChunkSentences    int      `yaml:"chunk_sentences"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes"`
}

// TimeoutConfig bounds each external collaborator call, in seconds.
// Zero means no bound.
type TimeoutConfig struct {
	EmbedSeconds    int `yaml:"embed_seconds"`
	SearchSeconds   int `yaml:"search_seconds"`
	GenerateSeconds int `yaml:"generate_seconds"`
}

// Embed returns the embedding call timeout.
func (t TimeoutConfig) Embed() time.Duration { return time.Duration(t.EmbedSeconds) * time.Second }

// Search returns the vector search call timeout.
func (t TimeoutConfig) Search() time.Duration { return time.Duration(t.SearchSeconds) * time.Second }

// Generate returns the generation call timeout, shared by reformulation
// and final answer calls.
func (t TimeoutConfig) Generate() time.Duration {
	return time.Duration(t.GenerateSeconds) * time.Second
}

// Load reads and parses the config file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if !filepath.IsAbs(cfg.Storage.DatabasePath) {
		cfg.Storage.DatabasePath = filepath.Join(filepath.Dir(path), cfg.Storage.DatabasePath)
	}

	return &cfg, nil
}

// Default returns a config with all defaults applied, for running without
// a config file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "ragchat.db"
	}
	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "chunks"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 500
	}
	if cfg.Chat.DefaultModel == "" {
		cfg.Chat.DefaultModel = "gpt-4o-mini"
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 4
	}
	if len(cfg.Ingest.AllowedExtensions) == 0 {
		cfg.Ingest.AllowedExtensions = []string{".pdf", ".docx", ".html", ".txt", ".md"}
	}
	if cfg.Ingest.ChunkSentences == 0 {
		cfg.Ingest.ChunkSentences = 8
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 2
	}
	if cfg.Ingest.MaxUploadBytes == 0 {
		cfg.Ingest.MaxUploadBytes = 32 << 20
	}
	if cfg.Timeouts.EmbedSeconds == 0 {
		cfg.Timeouts.EmbedSeconds = 30
	}
	if cfg.Timeouts.SearchSeconds == 0 {
		cfg.Timeouts.SearchSeconds = 10
	}
	if cfg.Timeouts.GenerateSeconds == 0 {
		cfg.Timeouts.GenerateSeconds = 60
	}
}
