package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	GuardianAPIKey  string        `envconfig:"GUARDIAN_API_KEY" default:""`
	CurrentsAPIKey  string        `envconfig:"CURRENTS_API_KEY" default:""`
	GDELTEnabled    bool          `envconfig:"GDELT_ENABLED" default:"true"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
	PerSourceLimit  int           `envconfig:"PER_SOURCE_LIMIT" default:"20"`

	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.20"`
	LanguageFilter      bool    `envconfig:"LANGUAGE_FILTER" default:"false"`

	SummaryProvider    string        `envconfig:"SUMMARY_PROVIDER" default:"none"`
	OpenAIAPIKey       string        `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel        string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	AnthropicAPIKey    string        `envconfig:"ANTHROPIC_API_KEY" default:""`
	AnthropicModel     string        `envconfig:"ANTHROPIC_MODEL" default:"claude-haiku-4-5"`
	SummaryConcurrency int           `envconfig:"SUMMARY_CONCURRENCY" default:"3"`
	SummaryTimeout     time.Duration `envconfig:"SUMMARY_TIMEOUT" default:"20s"`

	CacheBackend string        `envconfig:"CACHE_BACKEND" default:"memory"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	RedisURL     string        `envconfig:"REDIS_URL" default:""`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
	AdminKeyHash       string `envconfig:"ADMIN_KEY_HASH" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be > 0")
	}
	if c.PerSourceLimit < 1 || c.PerSourceLimit > 100 {
		return fmt.Errorf("PER_SOURCE_LIMIT must be between 1 and 100")
	}
	if math.IsNaN(c.SimilarityThreshold) || c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.SummaryConcurrency < 1 {
		return fmt.Errorf("SUMMARY_CONCURRENCY must be >= 1")
	}
	if c.SummaryTimeout <= 0 {
		return fmt.Errorf("SUMMARY_TIMEOUT must be > 0")
	}

	switch c.SummaryProviderName() {
	case "none":
	case "openai":
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when SUMMARY_PROVIDER=openai")
		}
	case "anthropic":
		if strings.TrimSpace(c.AnthropicAPIKey) == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when SUMMARY_PROVIDER=anthropic")
		}
	default:
		return fmt.Errorf("SUMMARY_PROVIDER must be one of none, openai, anthropic")
	}

	switch c.CacheBackendName() {
	case "memory", "none":
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, redis, none")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must be >= 0")
	}
	return nil
}

func (c *Config) SummaryProviderName() string {
	name := strings.ToLower(strings.TrimSpace(c.SummaryProvider))
	if name == "" {
		return "none"
	}
	return name
}

func (c *Config) CacheBackendName() string {
	name := strings.ToLower(strings.TrimSpace(c.CacheBackend))
	if name == "" {
		return "memory"
	}
	return name
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
