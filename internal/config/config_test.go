package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		ProviderTimeout:     10 * time.Second,
		PerSourceLimit:      20,
		SimilarityThreshold: 0.2,
		SummaryProvider:     "none",
		SummaryConcurrency:  3,
		SummaryTimeout:      20 * time.Second,
		CacheBackend:        "memory",
		CacheTTL:            10 * time.Minute,
	}
}

func TestLoadDefaults(t *testing.T) {
	keys := []string{
		"PROVIDER_TIMEOUT", "PER_SOURCE_LIMIT", "SIMILARITY_THRESHOLD", "SUMMARY_PROVIDER",
		"SUMMARY_CONCURRENCY", "SUMMARY_TIMEOUT", "CACHE_BACKEND", "CACHE_TTL", "REDIS_URL",
	}
	for _, key := range keys {
		// Setenv restores the original value after the test.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SimilarityThreshold != 0.2 {
		t.Fatalf("unexpected threshold: %v", cfg.SimilarityThreshold)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("unexpected cache ttl: %v", cfg.CacheTTL)
	}
	if cfg.SummaryProviderName() != "none" || cfg.CacheBackendName() != "memory" {
		t.Fatalf("unexpected providers: %q %q", cfg.SummaryProviderName(), cfg.CacheBackendName())
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	cases := map[string]func(c *Config){
		"SIMILARITY_THRESHOLD": func(c *Config) { c.SimilarityThreshold = 1.5 },
		"PER_SOURCE_LIMIT":     func(c *Config) { c.PerSourceLimit = 0 },
		"OPENAI_API_KEY":       func(c *Config) { c.SummaryProvider = "openai" },
		"ANTHROPIC_API_KEY":    func(c *Config) { c.SummaryProvider = "Anthropic" },
		"SUMMARY_PROVIDER":     func(c *Config) { c.SummaryProvider = "gemini" },
		"REDIS_URL":            func(c *Config) { c.CacheBackend = "redis" },
		"CACHE_BACKEND":        func(c *Config) { c.CacheBackend = "memcached" },
		"SUMMARY_CONCURRENCY":  func(c *Config) { c.SummaryConcurrency = 0 },
	}
	for want, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error mentioning %s, got %v", want, err)
		}
	}
}

func TestValidateAcceptsConfiguredProviders(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.SummaryProvider = "anthropic"
	cfg.AnthropicAPIKey = "sk-test"
	cfg.CacheBackend = "redis"
	cfg.RedisURL = "redis://localhost:6379/0"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCORSAllowedOriginsList(t *testing.T) {
	t.Parallel()

	cfg := &Config{CORSAllowedOrigins: " https://a.test, ,https://b.test,https://a.test "}
	got := cfg.CORSAllowedOriginsList()
	if len(got) != 2 || got[0] != "https://a.test" || got[1] != "https://b.test" {
		t.Fatalf("unexpected origins: %v", got)
	}
}
