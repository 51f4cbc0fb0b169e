package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/stockwise/data/store.db"
	}
	if cfg.Storage.CachePath == "" {
		cfg.Storage.CachePath = "/usr/local/var/stockwise/data/cache.db"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 128
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 10
	}
	if cfg.Embedding.BatchDelay == 0 {
		cfg.Embedding.BatchDelay = 200 * time.Millisecond
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 2
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 50
	}
	// Weights are applied as a pair; a config with neither set gets the 0.6/0.4 split.
	if cfg.Search.SemanticWeight == 0 && cfg.Search.KeywordWeight == 0 {
		cfg.Search.SemanticWeight = 0.6
		cfg.Search.KeywordWeight = 0.4
	}
	if cfg.Analytics.TTL == 0 {
		cfg.Analytics.TTL = 5 * time.Minute
	}
	if cfg.Analytics.ReorderLimit == 0 {
		cfg.Analytics.ReorderLimit = 5
	}
	if cfg.Analytics.TopProducts == 0 {
		cfg.Analytics.TopProducts = 3
	}
	if cfg.Analytics.HighMarginThreshold == 0 {
		cfg.Analytics.HighMarginThreshold = 30
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}
