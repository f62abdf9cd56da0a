package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/storydesk/internal/aggregate"
	"horse.fit/storydesk/internal/cache"
	"horse.fit/storydesk/internal/cli"
	"horse.fit/storydesk/internal/config"
	"horse.fit/storydesk/internal/logging"
	"horse.fit/storydesk/internal/provider"
	"horse.fit/storydesk/internal/relevance"
	"horse.fit/storydesk/internal/summary"
)

// runtime holds everything a command needs once configuration is loaded.
type runtime struct {
	cfg     *config.Config
	logger  zerolog.Logger
	sources []provider.Info
	stories *aggregate.Service
	cache   cache.Cache
}

func (r *runtime) Close() {
	if r == nil || r.cache == nil {
		return
	}
	if err := r.cache.Close(); err != nil {
		r.logger.Warn().Err(err).Msg("close cache failed")
	}
}

func loadConfig(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func newRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*runtime, error) {
	registry, sources := buildProviders(cfg, &http.Client{Timeout: cfg.ProviderTimeout})
	if registry.Len() == 0 {
		logger.Warn().Msg("no news providers enabled")
	}

	summaries, err := buildSummaries(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(ctx, cache.Options{
		Backend:  cfg.CacheBackendName(),
		RedisURL: cfg.RedisURL,
		Prefix:   cache.DefaultPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.CacheBackendName(), err)
	}

	stories := aggregate.NewService(registry, summaries, relevance.Default(), store, aggregate.Options{
		Threshold:          cfg.SimilarityThreshold,
		PerSourceLimit:     cfg.PerSourceLimit,
		ProviderTimeout:    cfg.ProviderTimeout,
		SummaryConcurrency: cfg.SummaryConcurrency,
		CacheTTL:           cfg.CacheTTL,
		LanguageFilter:     cfg.LanguageFilter,
	}, logger)

	logger.Info().
		Strs("providers", registry.Names()).
		Str("summary_provider", cfg.SummaryProviderName()).
		Str("cache_backend", cfg.CacheBackendName()).
		Float64("threshold", cfg.SimilarityThreshold).
		Msg("storydesk runtime ready")

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		sources: sources,
		stories: stories,
		cache:   store,
	}, nil
}

// buildProviders registers adapters in a fixed order and reports the ones
// left out with the configuration reason.
func buildProviders(cfg *config.Config, client *http.Client) (*provider.Registry, []provider.Info) {
	registry := provider.NewRegistry()
	sources := make([]provider.Info, 0, 3)

	guardianKey := strings.TrimSpace(cfg.GuardianAPIKey)
	if guardianKey != "" {
		registry.Register(provider.NewGuardian(provider.Options{APIKey: guardianKey, HTTPClient: client}))
		sources = append(sources, provider.Info{Name: "Guardian", Enabled: true})
	} else {
		sources = append(sources, provider.Info{Name: "Guardian", Reason: "GUARDIAN_API_KEY is not set"})
	}

	if cfg.GDELTEnabled {
		registry.Register(provider.NewGDELT(provider.Options{HTTPClient: client}))
		sources = append(sources, provider.Info{Name: "GDELT", Enabled: true})
	} else {
		sources = append(sources, provider.Info{Name: "GDELT", Reason: "GDELT_ENABLED is false"})
	}

	currentsKey := strings.TrimSpace(cfg.CurrentsAPIKey)
	if currentsKey != "" {
		registry.Register(provider.NewCurrents(provider.Options{APIKey: currentsKey, HTTPClient: client}))
		sources = append(sources, provider.Info{Name: "Currents", Enabled: true})
	} else {
		sources = append(sources, provider.Info{Name: "Currents", Reason: "CURRENTS_API_KEY is not set"})
	}

	return registry, sources
}

func buildSummaries(cfg *config.Config, logger zerolog.Logger) (*summary.Service, error) {
	var summarizers []summary.Summarizer
	if key := strings.TrimSpace(cfg.OpenAIAPIKey); key != "" {
		summarizers = append(summarizers, summary.NewOpenAI(key, cfg.OpenAIModel))
	}
	if key := strings.TrimSpace(cfg.AnthropicAPIKey); key != "" {
		summarizers = append(summarizers, summary.NewAnthropic(key, cfg.AnthropicModel))
	}

	llm, err := summary.NewRegistry(summarizers...).Resolve(cfg.SummaryProviderName())
	if err != nil {
		return nil, fmt.Errorf("resolve summary provider: %w", err)
	}
	return summary.NewService(llm, cfg.SummaryTimeout, logger), nil
}
