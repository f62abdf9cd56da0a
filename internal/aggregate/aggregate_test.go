package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/storydesk/internal/cache"
	"horse.fit/storydesk/internal/news"
	"horse.fit/storydesk/internal/provider"
	"horse.fit/storydesk/internal/relevance"
	"horse.fit/storydesk/internal/summary"
)

type stubProvider struct {
	name     string
	articles []news.Article
	err      error

	mu    sync.Mutex
	calls int
	last  provider.Query
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(_ context.Context, q provider.Query) ([]news.Article, error) {
	p.mu.Lock()
	p.calls++
	p.last = q
	p.mu.Unlock()
	return p.articles, p.err
}

type countingSummarizer struct {
	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
}

func (c *countingSummarizer) Name() string { return "counting" }

func (c *countingSummarizer) Summarize(_ context.Context, in summary.Input) (*summary.Result, error) {
	c.calls.Add(1)
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		prev := c.maxActive.Load()
		if n <= prev || c.maxActive.CompareAndSwap(prev, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return &summary.Result{GroupTitle: "LLM: " + in.Articles[0].Title, Summary: "summary", Model: "test-model"}, nil
}

func guardian(title, url, published string) news.Article {
	return news.Article{Title: title, URL: url, PublishedAt: published, SourceName: "Guardian", Source: news.SourceGuardian}
}

func gdelt(title, url, published string) news.Article {
	return news.Article{Title: title, URL: url, PublishedAt: published, SourceName: "GDELT", Source: news.SourceGDELT, Description: "Read the full story at example.com."}
}

func newTestService(t *testing.T, providers []provider.Provider, llm summary.Summarizer, store cache.Cache, opts Options) *Service {
	t.Helper()
	return NewService(
		provider.NewRegistry(providers...),
		summary.NewService(llm, time.Second, zerolog.Nop()),
		relevance.Default(),
		store,
		opts,
		zerolog.Nop(),
	)
}

func TestRunGroupsAcrossProviders(t *testing.T) {
	t.Parallel()

	g := &stubProvider{name: "Guardian", articles: []news.Article{
		guardian("City Council Approves New Budget", "https://theguardian.com/budget", "2026-03-01T09:00:00Z"),
		guardian("Orchestra opens winter season", "https://theguardian.com/music", "2026-03-02T09:00:00Z"),
	}}
	d := &stubProvider{name: "GDELT", articles: []news.Article{
		gdelt("Council approves city budget plan", "https://local.test/budget", "2026-03-01T10:00:00Z"),
	}}
	failing := &stubProvider{name: "Currents", err: errors.New("quota exceeded")}

	svc := newTestService(t, []provider.Provider{g, d, failing}, nil, nil, Options{})
	res, err := svc.Run(context.Background(), Request{Category: " Politics ", Country: "", Page: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if g.last.Category != "politics" || g.last.Limit != DefaultPerSourceLimit {
		t.Fatalf("unexpected provider query: %+v", g.last)
	}
	if len(res.Items) != 2 {
		t.Fatalf("unexpected story count: %d", len(res.Items))
	}
	top := res.Items[0]
	if top.SourceCount != 2 || len(top.Articles) != 2 {
		t.Fatalf("expected budget story first: %+v", top)
	}
	if top.SummarySource != summary.SourceFallback {
		t.Fatalf("unexpected summary source: %q", top.SummarySource)
	}
	if top.GroupTitle != "Council approves city budget plan" {
		t.Fatalf("fallback title should be the latest article: %q", top.GroupTitle)
	}
	if top.LatestPublishedAt == nil || top.LatestPublishedAt.Hour() != 10 {
		t.Fatalf("unexpected latest published: %v", top.LatestPublishedAt)
	}

	if len(res.Providers) != 3 {
		t.Fatalf("unexpected provider statuses: %+v", res.Providers)
	}
	if res.Providers[2].Name != "Currents" || res.Providers[2].Error != "quota exceeded" {
		t.Fatalf("unexpected failing status: %+v", res.Providers[2])
	}
	if res.Providers[0].Fetched != 2 || res.Providers[0].Used != 2 {
		t.Fatalf("unexpected guardian status: %+v", res.Providers[0])
	}
	if res.Pagination.TotalItems != 2 || res.Pagination.TotalPages != 1 || res.Pagination.PageSize != DefaultPageSize {
		t.Fatalf("unexpected pagination: %+v", res.Pagination)
	}
}

func TestRunAllProvidersFailing(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, []provider.Provider{
		&stubProvider{name: "Guardian", err: errors.New("down")},
		&stubProvider{name: "GDELT", err: errors.New("down")},
	}, nil, nil, Options{})

	if _, err := svc.Run(context.Background(), Request{}); !errors.Is(err, ErrNoArticles) {
		t.Fatalf("expected ErrNoArticles, got %v", err)
	}
}

func TestRunEmptyButHealthy(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, []provider.Provider{&stubProvider{name: "Guardian"}}, nil, nil, Options{})
	res, err := svc.Run(context.Background(), Request{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %v", res.Items)
	}
}

func TestRunPaginatesAndBoundsSummaryConcurrency(t *testing.T) {
	t.Parallel()

	titles := []string{
		"Volcano erupts near island", "Chess final ends in draw", "Bank raises interest rates",
		"Museum reopens after repairs", "Storm floods coastal roads", "Rocket launch delayed again",
		"Teachers vote for strike", "Rare bird spotted downtown",
	}
	articles := make([]news.Article, len(titles))
	for i, title := range titles {
		articles[i] = guardian(title, "https://theguardian.com/"+string(rune('a'+i)), "")
	}

	llm := &countingSummarizer{}
	svc := newTestService(t, []provider.Provider{&stubProvider{name: "Guardian", articles: articles}}, llm, nil, Options{SummaryConcurrency: 2})

	res, err := svc.Run(context.Background(), Request{Page: 2, PageSize: 5})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Pagination.TotalItems != 8 || res.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected pagination: %+v", res.Pagination)
	}
	if len(res.Items) != 3 {
		t.Fatalf("unexpected page size: %d", len(res.Items))
	}
	if got := llm.calls.Load(); got != 3 {
		t.Fatalf("only the requested page should be summarized, got %d calls", got)
	}
	if got := llm.maxActive.Load(); got > 2 {
		t.Fatalf("summary concurrency exceeded: %d", got)
	}
	for _, story := range res.Items {
		if story.SummarySource != summary.SourceLLM || story.Model != "test-model" {
			t.Fatalf("unexpected story summary: %+v", story)
		}
	}
}

func TestRunUsesCache(t *testing.T) {
	t.Parallel()

	store := cache.NewMemory(time.Hour)
	defer store.Close()

	p := &stubProvider{name: "Guardian", articles: []news.Article{
		guardian("Bridge reopens to traffic", "https://theguardian.com/bridge", ""),
	}}
	svc := newTestService(t, []provider.Provider{p}, nil, store, Options{CacheTTL: time.Minute})

	first, err := svc.Run(context.Background(), Request{Page: 1})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Cached {
		t.Fatalf("first run must not be cached")
	}

	second, err := svc.Run(context.Background(), Request{Page: 1, PageSize: DefaultPageSize})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second run should come from cache")
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times", p.calls)
	}
	if len(second.Items) != 1 || second.Items[0].GroupID != first.Items[0].GroupID {
		t.Fatalf("cached items differ: %+v", second.Items)
	}

	n, err := svc.PurgeCache(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("unexpected purge: n=%d err=%v", n, err)
	}
	if _, err := svc.Run(context.Background(), Request{Page: 1}); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("expected fetch after purge, provider called %d times", p.calls)
	}
}

func TestPrepareAppliesCountryFilterAndCap(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, nil, nil, Options{PerSourceLimit: 2})
	articles := []news.Article{
		guardian("Toronto transit strike ends", "https://theguardian.com/1", ""),
		guardian("Global markets steady", "https://theguardian.com/2", ""),
		guardian("Ottawa announces housing plan", "https://theguardian.com/3", ""),
		guardian("Ottawa announces housing plan", "https://theguardian.com/3?utm_source=rss", ""),
		guardian("Quebec election called", "https://theguardian.com/4", ""),
	}

	got := svc.prepare(articles, "ca")
	if len(got) != 2 {
		t.Fatalf("unexpected count: %d", len(got))
	}
	if got[0].URL != "https://theguardian.com/1" || got[1].URL != "https://theguardian.com/3" {
		t.Fatalf("unexpected articles: %+v", got)
	}
}

func TestRunBalancesDominantProvider(t *testing.T) {
	t.Parallel()

	topics := []string{
		"Volcano", "Chess", "Bank", "Museum", "Storm", "Rocket", "Teachers", "Bird", "Harbor", "Library",
		"Glacier", "Bakery", "Tunnel", "Stadium", "Airline", "Vineyard", "Satellite", "Cathedral", "Lighthouse", "Festival",
	}
	big := make([]news.Article, len(topics))
	for i, topic := range topics {
		big[i] = guardian(topic, fmt.Sprintf("https://theguardian.com/%d", i), "")
	}
	small := &stubProvider{name: "GDELT", articles: []news.Article{
		gdelt("Mayor resigns amid inquiry", "https://one.test/a", ""),
		gdelt("Earthquake shakes northern valley", "https://two.test/b", ""),
		gdelt("Ferry service suspended indefinitely", "https://three.test/c", ""),
	}}

	svc := newTestService(t, []provider.Provider{&stubProvider{name: "Guardian", articles: big}, small}, nil, nil, Options{})
	res, err := svc.Run(context.Background(), Request{Page: 1, PageSize: MaxPageSize})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Providers[0].Fetched != 20 || res.Providers[0].Used != 6 {
		t.Fatalf("dominant provider not capped: %+v", res.Providers[0])
	}
	if res.Providers[1].Used != 3 {
		t.Fatalf("small provider should keep everything: %+v", res.Providers[1])
	}
	if res.Pagination.TotalItems != 9 {
		t.Fatalf("unexpected story count: %d", res.Pagination.TotalItems)
	}
}

func TestBalanceInterleavesSources(t *testing.T) {
	t.Parallel()

	var big []news.Article
	for i := 0; i < 12; i++ {
		big = append(big, guardian(fmt.Sprint("g", i), fmt.Sprint("https://theguardian.com/", i), ""))
	}
	small := []news.Article{
		gdelt("d0", "https://d.test/0", ""),
		gdelt("d1", "https://d.test/1", ""),
	}

	capped, pool := balance([][]news.Article{big, nil, small})
	if len(capped[0]) != balanceFloor || len(capped[1]) != 0 || len(capped[2]) != 2 {
		t.Fatalf("unexpected caps: %d %d %d", len(capped[0]), len(capped[1]), len(capped[2]))
	}

	want := []string{"g0", "d0", "g1", "d1", "g2", "g3", "g4"}
	if len(pool) != len(want) {
		t.Fatalf("unexpected pool size: got %d want %d", len(pool), len(want))
	}
	for i, title := range want {
		if pool[i].Title != title {
			t.Fatalf("position %d: got %q want %q", i, pool[i].Title, title)
		}
	}
}

func TestNormalizeRequest(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, nil, nil, Options{Threshold: 0.3})
	got := svc.normalizeRequest(Request{Keywords: "  city   budget ", Page: -1, PageSize: 500})
	if got.Keywords != "city budget" || got.Page != 1 || got.PageSize != MaxPageSize || got.Threshold != 0.3 {
		t.Fatalf("unexpected normalized request: %+v", got)
	}
	if cacheKey(got) == cacheKey(Request{}) {
		t.Fatalf("different requests must have different cache keys")
	}
}
