package config

// DefaultConfig returns a Config populated with the built-in defaults.
// Load decodes the YAML file over this value, so a key that is absent keeps
// its default while an explicit zero in the file (such as overlap: 0) is
// preserved rather than mistaken for unset.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Index: IndexConfig{
			PersistDirectory: "./chroma_db",
			CollectionName:   "sensei_notes",
		},
		Registry: RegistryConfig{
			DatabasePath: "./senseid.db",
		},
		Embedding: EmbeddingConfig{
			Dimensions: 384,
			MaxTokens:  256,
			CacheSize:  10000,
		},
		Retrieval: RetrievalConfig{
			ChunkSize: 512,
			Overlap:   50,
			DefaultK:  5,
		},
		Watch: WatchConfig{
			Extensions: []string{".pdf"},
		},
	}
}
