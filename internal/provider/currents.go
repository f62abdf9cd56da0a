package provider

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"horse.fit/storydesk/internal/news"
)

const currentsBaseURL = "https://api.currentsapi.services"

type Currents struct {
	opts Options
}

func NewCurrents(opts Options) *Currents {
	return &Currents{opts: opts}
}

func (c *Currents) Name() string {
	return "Currents"
}

func (c *Currents) Fetch(ctx context.Context, q Query) ([]news.Article, error) {
	params := url.Values{}
	params.Set("apiKey", c.opts.APIKey)
	params.Set("language", "en")
	params.Set("page_size", strconv.Itoa(q.limit()))
	if category := q.category(); category != "" {
		params.Set("category", category)
	}
	if country := q.country(); country != "" {
		params.Set("country", strings.ToUpper(country))
	}

	path := "/v1/latest-news"
	if kw := strings.TrimSpace(q.Keywords); kw != "" {
		path = "/v1/search"
		params.Set("keywords", kw)
	}

	var resp currentsResponse
	if err := getJSON(ctx, c.opts.client(), c.Name(), c.opts.base(currentsBaseURL)+path, params, &resp); err != nil {
		return nil, err
	}

	articles := make([]news.Article, 0, len(resp.News))
	for _, r := range resp.News {
		articles = append(articles, news.Article{
			Title:       r.Title,
			Description: plainText(r.Description),
			URL:         r.URL,
			PublishedAt: r.Published,
			SourceName:  c.Name(),
			Source:      news.SourceCurrents,
		})
	}
	if len(articles) > q.limit() {
		articles = articles[:q.limit()]
	}
	return news.FilterValid(articles), nil
}

type currentsResponse struct {
	Status string            `json:"status"`
	News   []currentsArticle `json:"news"`
}

type currentsArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Published   string `json:"published"`
}
