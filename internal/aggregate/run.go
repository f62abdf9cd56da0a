package aggregate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"horse.fit/storydesk/internal/globaltime"
	"horse.fit/storydesk/internal/grouping"
	"horse.fit/storydesk/internal/langdetect"
	"horse.fit/storydesk/internal/news"
	"horse.fit/storydesk/internal/provider"
	"horse.fit/storydesk/internal/summary"
)

const (
	cacheKeyPrefix = "stories:"

	balanceFloor = 5
	balanceRatio = 2
)

type fetchResult struct {
	articles []news.Article
	status   ProviderStatus
	failed   bool
}

// Run fetches from every provider, groups the pooled articles and
// summarizes the requested page.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	req = s.normalizeRequest(req)
	key := cacheKey(req)

	if cached, ok := s.cachedResult(ctx, key); ok {
		return cached, nil
	}

	fetched := s.fetchAll(ctx, provider.Query{
		Category: req.Category,
		Country:  req.Country,
		Keywords: req.Keywords,
		Limit:    s.opts.PerSourceLimit,
	})

	statuses := make([]ProviderStatus, len(fetched))
	perSource := make([][]news.Article, len(fetched))
	failures := 0
	for i, f := range fetched {
		perSource[i] = s.prepare(f.articles, req.Country)
		statuses[i] = f.status
		if f.failed {
			failures++
		}
	}

	perSource, pool := balance(perSource)
	for i := range statuses {
		statuses[i].Used = len(perSource[i])
	}

	if len(pool) == 0 && len(fetched) > 0 && failures == len(fetched) {
		return nil, ErrNoArticles
	}

	groups := grouping.Group(pool, req.Threshold)
	sortGroups(groups)

	pagination, page := paginate(groups, req.Page, req.PageSize)
	result := &Result{
		Items:       s.summarizePage(ctx, page),
		Pagination:  pagination,
		Providers:   statuses,
		GeneratedAt: globaltime.UTC(),
	}

	s.logger.Info().
		Int("articles", len(pool)).
		Int("groups", len(groups)).
		Int("page", req.Page).
		Int("provider_failures", failures).
		Msg("aggregation finished")

	s.storeResult(ctx, key, result)
	return result, nil
}

func (s *Service) normalizeRequest(req Request) Request {
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Country = strings.ToLower(strings.TrimSpace(req.Country))
	req.Keywords = strings.Join(strings.Fields(req.Keywords), " ")
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = DefaultPageSize
	}
	if req.PageSize > MaxPageSize {
		req.PageSize = MaxPageSize
	}
	if req.Threshold <= 0 || req.Threshold > 1 {
		req.Threshold = s.opts.Threshold
	}
	return req
}

// fetchAll queries every provider concurrently. A provider error is
// recorded on its status and never cancels the others.
func (s *Service) fetchAll(ctx context.Context, q provider.Query) []fetchResult {
	providers := s.providers.All()
	results := make([]fetchResult, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			started := globaltime.Now()
			callCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
			defer cancel()

			articles, err := p.Fetch(callCtx, q)
			status := ProviderStatus{
				Name:     p.Name(),
				Fetched:  len(articles),
				Duration: globaltime.Since(started).Round(time.Millisecond).String(),
			}
			if err != nil {
				status.Error = err.Error()
				s.logger.Warn().Err(err).Str("provider", p.Name()).Msg("provider fetch failed")
			}
			results[i] = fetchResult{articles: articles, status: status, failed: err != nil}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// prepare applies the per-source filters and cap.
func (s *Service) prepare(articles []news.Article, country string) []news.Article {
	articles = news.FilterValid(articles)
	if s.opts.LanguageFilter {
		articles = langdetect.KeepLanguage(articles, "en")
	}
	if s.relevance != nil {
		articles = s.relevance.Apply(articles, country)
	}
	articles = news.DedupeByURL(articles)
	if len(articles) > s.opts.PerSourceLimit {
		articles = articles[:s.opts.PerSourceLimit]
	}
	return articles
}

// balance caps every source at balanceRatio times the smallest non-empty
// source (never below balanceFloor) and interleaves the survivors
// round-robin so no single provider dominates the pool.
func balance(perSource [][]news.Article) ([][]news.Article, []news.Article) {
	smallest := 0
	for _, articles := range perSource {
		if n := len(articles); n > 0 && (smallest == 0 || n < smallest) {
			smallest = n
		}
	}
	limit := max(smallest*balanceRatio, balanceFloor)

	capped := make([][]news.Article, len(perSource))
	total, longest := 0, 0
	for i, articles := range perSource {
		if len(articles) > limit {
			articles = articles[:limit]
		}
		capped[i] = articles
		total += len(articles)
		longest = max(longest, len(articles))
	}

	pool := make([]news.Article, 0, total)
	for j := 0; j < longest; j++ {
		for _, articles := range capped {
			if j < len(articles) {
				pool = append(pool, articles[j])
			}
		}
	}
	return capped, pool
}

// sortGroups orders by number of sources, then by most recent article.
// Groups without dates sort after dated ones of the same size.
func sortGroups(groups []grouping.ArticleGroup) {
	latest := make(map[grouping.GroupID]time.Time, len(groups))
	for _, g := range groups {
		latest[g.ID] = latestPublished(g.Articles)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		ci, cj := groups[i].SourceCount(), groups[j].SourceCount()
		if ci != cj {
			return ci > cj
		}
		return latest[groups[i].ID].After(latest[groups[j].ID])
	})
}

func latestPublished(articles []news.Article) time.Time {
	var latest time.Time
	for _, a := range articles {
		if at, ok := a.PublishedTime(); ok && at.After(latest) {
			latest = at
		}
	}
	return latest
}

func paginate(groups []grouping.ArticleGroup, page, pageSize int) (Pagination, []grouping.ArticleGroup) {
	total := len(groups)
	p := Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return p, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return p, groups[start:end]
}

// summarizePage summarizes groups with bounded concurrency. Summaries never
// fail; a cancelled context leaves the remaining groups on the fallback.
func (s *Service) summarizePage(ctx context.Context, groups []grouping.ArticleGroup) []Story {
	stories := make([]Story, len(groups))
	sem := semaphore.NewWeighted(int64(s.opts.SummaryConcurrency))

	var g errgroup.Group
	for i, group := range groups {
		if err := sem.Acquire(ctx, 1); err != nil {
			stories[i] = newStory(group, fallbackOutcome(group))
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			stories[i] = newStory(group, s.summaries.Summarize(ctx, group.Articles))
			return nil
		})
	}
	_ = g.Wait()
	return stories
}

func fallbackOutcome(group grouping.ArticleGroup) summary.Outcome {
	fb := summary.Fallback(group.Articles)
	return summary.Outcome{GroupTitle: fb.GroupTitle, Summary: fb.Summary, Source: summary.SourceFallback}
}

func newStory(group grouping.ArticleGroup, outcome summary.Outcome) Story {
	story := Story{
		GroupID:       group.ID,
		GroupTitle:    outcome.GroupTitle,
		Summary:       outcome.Summary,
		SummarySource: outcome.Source,
		Model:         outcome.Model,
		Articles:      group.Articles,
		SourceCount:   group.SourceCount(),
		Sources:       group.Sources(),
	}
	if latest := latestPublished(group.Articles); !latest.IsZero() {
		story.LatestPublishedAt = &latest
	}
	return story
}

func cacheKey(req Request) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (s *Service) cachedResult(ctx context.Context, key string) (*Result, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Warn().Err(err).Msg("cached result unreadable")
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	result.Cached = true
	return &result, true
}

func (s *Service) storeResult(ctx context.Context, key string, result *Result) {
	if s.opts.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn().Err(err).Msg("encode result for cache failed")
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.opts.CacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("cache write failed")
	}
}
