package aggregate

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/storydesk/internal/cache"
	"horse.fit/storydesk/internal/grouping"
	"horse.fit/storydesk/internal/news"
	"horse.fit/storydesk/internal/provider"
	"horse.fit/storydesk/internal/relevance"
	"horse.fit/storydesk/internal/summary"
)

const (
	DefaultPageSize           = 10
	MaxPageSize               = 50
	DefaultPerSourceLimit     = 20
	DefaultProviderTimeout    = 10 * time.Second
	DefaultSummaryConcurrency = 3
)

// ErrNoArticles means every provider failed and nothing could be grouped.
var ErrNoArticles = errors.New("no articles available from any provider")

type Options struct {
	Threshold          float64
	PerSourceLimit     int
	ProviderTimeout    time.Duration
	SummaryConcurrency int
	CacheTTL           time.Duration
	LanguageFilter     bool
}

type Request struct {
	Category  string  `json:"category,omitempty"`
	Country   string  `json:"country,omitempty"`
	Keywords  string  `json:"q,omitempty"`
	Page      int     `json:"page"`
	PageSize  int     `json:"pageSize"`
	Threshold float64 `json:"threshold"`
}

type ProviderStatus struct {
	Name     string `json:"name"`
	Fetched  int    `json:"fetched"`
	Used     int    `json:"used"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Story is a group of articles with its title and summary.
type Story struct {
	GroupID           grouping.GroupID `json:"groupId"`
	GroupTitle        string           `json:"groupTitle"`
	Summary           string           `json:"summary"`
	SummarySource     string           `json:"summarySource"`
	Model             string           `json:"model,omitempty"`
	Articles          []news.Article   `json:"articles"`
	SourceCount       int              `json:"sourceCount"`
	Sources           []string         `json:"sources"`
	LatestPublishedAt *time.Time       `json:"latestPublishedAt,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

type Result struct {
	Items       []Story          `json:"items"`
	Pagination  Pagination       `json:"pagination"`
	Providers   []ProviderStatus `json:"providers"`
	Cached      bool             `json:"cached"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

type Service struct {
	providers *provider.Registry
	summaries *summary.Service
	relevance *relevance.Filter
	cache     cache.Cache
	opts      Options
	logger    zerolog.Logger
}

// NewService wires the orchestrator. A nil cache disables caching and a nil
// relevance filter disables country filtering.
func NewService(
	providers *provider.Registry,
	summaries *summary.Service,
	filter *relevance.Filter,
	store cache.Cache,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if providers == nil {
		providers = provider.NewRegistry()
	}
	if summaries == nil {
		summaries = summary.NewService(nil, 0, logger)
	}
	if store == nil {
		store = cache.Nop{}
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = grouping.DefaultSimilarityThreshold
	}
	if opts.PerSourceLimit <= 0 {
		opts.PerSourceLimit = DefaultPerSourceLimit
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = DefaultProviderTimeout
	}
	if opts.SummaryConcurrency <= 0 {
		opts.SummaryConcurrency = DefaultSummaryConcurrency
	}

	return &Service{
		providers: providers,
		summaries: summaries,
		relevance: filter,
		cache:     store,
		opts:      opts,
		logger:    logger,
	}
}

func (s *Service) Threshold() float64 {
	return s.opts.Threshold
}

func (s *Service) Providers() []string {
	return s.providers.Names()
}

// PurgeCache drops every cached result.
func (s *Service) PurgeCache(ctx context.Context) (int, error) {
	return s.cache.Purge(ctx)
}
