package config

import "os"

// Config holds all process-level configuration. It is built once in main
// and passed by reference into every component.
type Config struct {
	Port      string
	MongoURI  string
	RedisAddr string

	// SocialMediaURL is the endpoint approved posts are published to.
	SocialMediaURL string

	Gen GenConfig
}

// GenConfig holds text-generation settings for the Ollama backend.
type GenConfig struct {
	BaseURL string
	Model   string

	// OneShotTimeoutSec bounds single-response calls (intent classification).
	OneShotTimeoutSec int
	// StreamTimeoutSec bounds streaming calls (analysis, post drafting).
	StreamTimeoutSec int

	Temperature float64
	MaxTokens   int
}

// Load builds the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		MongoURI:       getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		RedisAddr:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		SocialMediaURL: getEnvOrDefault("SOCIAL_MEDIA_URL", "http://localhost:8001/api/posts"),
		Gen: GenConfig{
			BaseURL:           getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:             getEnvOrDefault("OLLAMA_MODEL", "llama3.2:8b"),
			OneShotTimeoutSec: 30,
			StreamTimeoutSec:  90,
			Temperature:       0.7,
			MaxTokens:         800,
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
