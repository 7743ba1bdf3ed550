// Package config provides configuration loading for ragdag.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug bool `yaml:"debug"`
	// StoreDir is the flat-file store root (the .ragdag directory).
	StoreDir  string          `yaml:"store_dir"`
	General   GeneralConfig   `yaml:"general"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Edges     EdgesConfig     `yaml:"edges"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
}

// GeneralConfig holds chunking settings.
type GeneralConfig struct {
	ChunkStrategy string `yaml:"chunk_strategy"` // heading, paragraph, function, fixed
	ChunkSize     int    `yaml:"chunk_size"`     // characters per chunk
	ChunkOverlap  int    `yaml:"chunk_overlap"`  // trailing characters carried into the next chunk
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // none, mock, or a registered provider
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig selects the answer provider for ask.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // none or a registered provider
	Model      string `yaml:"model"`
	MaxContext int    `yaml:"max_context"` // approximate token budget for assembled context
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultMode    string  `yaml:"default_mode"` // keyword, vector, hybrid
	TopK           int     `yaml:"top_k"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	VectorWeight   float64 `yaml:"vector_weight"`
	KeywordBackend string  `yaml:"keyword_backend"` // scan or bleve
}

// EdgesConfig holds edge-graph settings.
type EdgesConfig struct {
	AutoRelate      bool    `yaml:"auto_relate"`
	RelateThreshold float64 `yaml:"relate_threshold"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, expands paths, and
// applies defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	expandPaths(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks field ranges that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.General.ChunkStrategy {
	case "heading", "paragraph", "function", "fixed":
	default:
		return fmt.Errorf("unknown chunk_strategy: %s", c.General.ChunkStrategy)
	}
	switch c.Search.DefaultMode {
	case "keyword", "vector", "hybrid":
	default:
		return fmt.Errorf("unknown search default_mode: %s", c.Search.DefaultMode)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Edges.RelateThreshold < -1 || c.Edges.RelateThreshold > 1 {
		return fmt.Errorf("relate_threshold must be within [-1, 1], got %v", c.Edges.RelateThreshold)
	}
	return nil
}

// expandPaths resolves ~ and environment variables in configured paths.
func expandPaths(cfg *Config) {
	cfg.StoreDir = expandPath(cfg.StoreDir)
	for i, d := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(d)
	}
}

func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}
