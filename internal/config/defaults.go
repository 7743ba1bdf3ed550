package config

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.StoreDir == "" {
		cfg.StoreDir = ".ragdag"
	}
	if cfg.General.ChunkStrategy == "" {
		cfg.General.ChunkStrategy = "heading"
	}
	if cfg.General.ChunkSize == 0 {
		cfg.General.ChunkSize = 1000
	}
	if cfg.General.ChunkOverlap == 0 {
		cfg.General.ChunkOverlap = 100
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "none"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 4096
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "none"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.MaxContext == 0 {
		cfg.LLM.MaxContext = 8000
	}
	if cfg.Search.DefaultMode == "" {
		cfg.Search.DefaultMode = "hybrid"
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 10
	}
	if cfg.Search.KeywordWeight == 0 {
		cfg.Search.KeywordWeight = 0.3
	}
	if cfg.Search.VectorWeight == 0 {
		cfg.Search.VectorWeight = 0.7
	}
	if cfg.Search.KeywordBackend == "" {
		cfg.Search.KeywordBackend = "scan"
	}
	if cfg.Edges.RelateThreshold == 0 {
		cfg.Edges.RelateThreshold = 0.8
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8420
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".csv", ".json"}
	}
}
