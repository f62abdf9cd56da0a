package provider

import (
	"context"
	"net/url"
	"strconv"

	"horse.fit/storydesk/internal/news"
)

const guardianBaseURL = "https://content.guardianapis.com"

var guardianSections = map[string]string{
	"business":      "business",
	"technology":    "technology",
	"science":       "science",
	"health":        "society",
	"sports":        "sport",
	"sport":         "sport",
	"entertainment": "culture",
	"world":         "world",
	"politics":      "politics",
	"environment":   "environment",
}

type Guardian struct {
	opts Options
}

func NewGuardian(opts Options) *Guardian {
	return &Guardian{opts: opts}
}

func (g *Guardian) Name() string {
	return "Guardian"
}

func (g *Guardian) Fetch(ctx context.Context, q Query) ([]news.Article, error) {
	params := url.Values{}
	params.Set("api-key", g.opts.APIKey)
	params.Set("page-size", strconv.Itoa(q.limit()))
	params.Set("order-by", "newest")
	params.Set("show-fields", "trailText,headline")
	if q.Keywords != "" {
		params.Set("q", q.Keywords)
	}
	if section, ok := guardianSections[q.category()]; ok {
		params.Set("section", section)
	}

	var resp guardianResponse
	endpoint := g.opts.base(guardianBaseURL) + "/search"
	if err := getJSON(ctx, g.opts.client(), g.Name(), endpoint, params, &resp); err != nil {
		return nil, err
	}

	articles := make([]news.Article, 0, len(resp.Response.Results))
	for _, r := range resp.Response.Results {
		title := r.WebTitle
		if r.Fields.Headline != "" {
			title = r.Fields.Headline
		}
		articles = append(articles, news.Article{
			Title:       title,
			Description: plainText(r.Fields.TrailText),
			URL:         r.WebURL,
			PublishedAt: r.WebPublicationDate,
			SourceName:  g.Name(),
			Source:      news.SourceGuardian,
		})
	}
	return news.FilterValid(articles), nil
}

type guardianResponse struct {
	Response struct {
		Status  string           `json:"status"`
		Results []guardianResult `json:"results"`
	} `json:"response"`
}

type guardianResult struct {
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	WebPublicationDate string `json:"webPublicationDate"`
	Fields             struct {
		Headline  string `json:"headline"`
		TrailText string `json:"trailText"`
	} `json:"fields"`
}
