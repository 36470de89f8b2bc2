// Package config provides configuration for the travel advisor service.
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds the service configuration, bound from environment variables.
type Config struct {
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:innocents.db?cache=shared&mode=rwc"`

	// Reasoning capability (OpenAI-compatible endpoint).
	OpenAIAPIKey   string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string  `env:"OPENAI_BASE_URL"`
	ChatModel      string  `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel string  `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Temperature    float32 `env:"CHAT_TEMPERATURE" envDefault:"0.7"`

	// Weather lookup.
	OpenWeatherAPIKey string `env:"OPENWEATHERMAP_API_KEY"`

	// Book index artifact, produced offline by cmd/indexbuild.
	IndexPath string `env:"BOOK_INDEX_PATH" envDefault:"data/innocents_abroad_index.json"`

	// Agent behavior.
	MaxRounds     int           `env:"AGENT_MAX_ROUNDS" envDefault:"6"`
	HistoryWindow int           `env:"HISTORY_WINDOW" envDefault:"20"`
	TopK          int           `env:"RETRIEVER_TOP_K" envDefault:"3"`
	MinScore      float64       `env:"RETRIEVER_MIN_SCORE" envDefault:"0.15"`
	ToolTimeout   time.Duration `env:"TOOL_TIMEOUT" envDefault:"10s"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env if present and binds configuration from the environment.
func Load() *Config {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
