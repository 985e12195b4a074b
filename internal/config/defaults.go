package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "http://localhost:11434"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = "nomic-embed-text"
	}
	if cfg.Provider.Dimensions == 0 {
		cfg.Provider.Dimensions = 768
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		// Embedding large inputs is slow; minutes, not seconds.
		cfg.Provider.TimeoutSeconds = 300
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "bolt"
	}
	if cfg.Index.Name == "" {
		cfg.Index.Name = "embeddings"
	}
	if cfg.Index.URL == "" {
		cfg.Index.URL = "http://localhost:9200"
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "/usr/local/var/kioku/data/embeddings.db"
	}
	if cfg.Index.Candidates == 0 {
		cfg.Index.Candidates = 100
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
