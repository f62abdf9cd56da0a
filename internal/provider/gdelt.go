package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"horse.fit/storydesk/internal/news"
)

const (
	gdeltBaseURL    = "https://api.gdeltproject.org"
	gdeltSeenLayout = "20060102T150405Z"
	// GDELT asks clients to keep to one request every five seconds.
	gdeltMinInterval = 5 * time.Second
)

var gdeltCategoryTerms = map[string]string{
	"business":      "(business OR economy OR markets)",
	"technology":    "(technology OR tech OR software)",
	"science":       "(science OR research)",
	"health":        "(health OR medical)",
	"sports":        "(sports OR football OR cricket)",
	"entertainment": "(entertainment OR film OR music)",
	"politics":      "(politics OR election OR government)",
}

// FIPS country codes used by sourcecountry.
var gdeltCountries = map[string]string{
	"us": "US",
	"gb": "UK",
	"ca": "CA",
	"au": "AS",
	"in": "IN",
}

type GDELT struct {
	opts    Options
	limiter *rate.Limiter
}

func NewGDELT(opts Options) *GDELT {
	return &GDELT{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(gdeltMinInterval), 1),
	}
}

func (g *GDELT) Name() string {
	return "GDELT"
}

func (g *GDELT) Fetch(ctx context.Context, q Query) ([]news.Article, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limit: %w", g.Name(), err)
	}

	params := url.Values{}
	params.Set("query", gdeltQuery(q))
	params.Set("mode", "artlist")
	params.Set("format", "json")
	params.Set("maxrecords", strconv.Itoa(q.limit()))
	params.Set("sort", "datedesc")

	var resp gdeltResponse
	endpoint := g.opts.base(gdeltBaseURL) + "/api/v2/doc/doc"
	if err := getJSON(ctx, g.opts.client(), g.Name(), endpoint, params, &resp); err != nil {
		return nil, err
	}

	articles := make([]news.Article, 0, len(resp.Articles))
	for _, r := range resp.Articles {
		domain := strings.TrimSpace(r.Domain)
		if domain == "" {
			if u, err := url.Parse(r.URL); err == nil {
				domain = strings.TrimPrefix(u.Hostname(), "www.")
			}
		}
		articles = append(articles, news.Article{
			Title:       r.Title,
			Description: news.PlaceholderDescription(domain),
			URL:         r.URL,
			PublishedAt: gdeltPublished(r.SeenDate),
			SourceName:  g.Name(),
			Source:      news.SourceGDELT,
		})
	}
	return news.FilterValid(articles), nil
}

func gdeltQuery(q Query) string {
	parts := make([]string, 0, 4)
	if kw := strings.TrimSpace(q.Keywords); kw != "" {
		parts = append(parts, kw)
	}
	if terms, ok := gdeltCategoryTerms[q.category()]; ok {
		parts = append(parts, terms)
	}
	if len(parts) == 0 {
		parts = append(parts, "(news OR breaking)")
	}
	parts = append(parts, "sourcelang:english")
	if code, ok := gdeltCountries[q.country()]; ok {
		parts = append(parts, "sourcecountry:"+code)
	}
	return strings.Join(parts, " ")
}

// gdeltPublished rewrites seendate as RFC3339; unparseable values pass
// through for the generic date parser.
func gdeltPublished(seen string) string {
	ts, err := time.Parse(gdeltSeenLayout, strings.TrimSpace(seen))
	if err != nil {
		return seen
	}
	return ts.UTC().Format(time.RFC3339)
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	SeenDate string `json:"seendate"`
	Domain   string `json:"domain"`
	Language string `json:"language"`
}
