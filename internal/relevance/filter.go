package relevance

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"horse.fit/storydesk/internal/news"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

// Filter decides whether an article is about a given country.
type Filter struct {
	patterns map[string]*regexp.Regexp
}

// Default returns the filter built from the embedded keyword table.
func Default() *Filter {
	f, err := Parse(defaultKeywordsYAML)
	if err != nil {
		panic(fmt.Sprintf("relevance: embedded keywords: %v", err))
	}
	return f
}

// Parse reads a YAML map of country code to keyword list.
func Parse(raw []byte) (*Filter, error) {
	var table map[string][]string
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse keyword table: %w", err)
	}

	f := &Filter{patterns: make(map[string]*regexp.Regexp, len(table))}
	for country, keywords := range table {
		code := normalizeCountry(country)
		if code == "" {
			continue
		}
		pattern, err := compileKeywords(keywords)
		if err != nil {
			return nil, fmt.Errorf("country %s: %w", code, err)
		}
		if pattern != nil {
			f.patterns[code] = pattern
		}
	}
	return f, nil
}

// Countries lists the codes that have keywords, sorted.
func (f *Filter) Countries() []string {
	out := make([]string, 0, len(f.patterns))
	for code := range f.patterns {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Relevant reports whether the article mentions the country. An empty or
// unknown country accepts everything.
func (f *Filter) Relevant(a news.Article, country string) bool {
	pattern, ok := f.patterns[normalizeCountry(country)]
	if !ok {
		return true
	}
	return pattern.MatchString(a.Title + " " + a.Description)
}

// Apply keeps the relevant articles. When none match, the input is returned
// unchanged so a strict table never empties a feed.
func (f *Filter) Apply(articles []news.Article, country string) []news.Article {
	if _, ok := f.patterns[normalizeCountry(country)]; !ok {
		return articles
	}

	kept := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		if f.Relevant(a, country) {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return articles
	}
	return kept
}

func compileKeywords(keywords []string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		words := strings.Fields(strings.ToLower(kw))
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		quoted = append(quoted, strings.Join(words, `\s+`))
	}
	if len(quoted) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func normalizeCountry(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
