package summary

import (
	"fmt"
	"strings"
	"time"

	"horse.fit/storydesk/internal/news"
)

const (
	fallbackMaxDescriptions = 3
	fallbackMaxRunes        = 600
	fallbackMaxTitles       = 3
)

// Fallback builds a title and summary from the articles alone. It is used
// when no LLM is configured or the LLM call fails.
func Fallback(articles []news.Article) Result {
	if len(articles) == 0 {
		return Result{}
	}
	return Result{
		GroupTitle: latestTitle(articles),
		Summary:    fallbackSummary(articles),
	}
}

// latestTitle picks the title of the most recently published article, or the
// first article when none carries a usable date.
func latestTitle(articles []news.Article) string {
	best := articles[0]
	var bestAt time.Time
	for _, a := range articles {
		at, ok := a.PublishedTime()
		if !ok {
			continue
		}
		if bestAt.IsZero() || at.After(bestAt) {
			best, bestAt = a, at
		}
	}
	return strings.TrimSpace(best.Title)
}

func fallbackSummary(articles []news.Article) string {
	seen := make(map[string]struct{}, len(articles))
	parts := make([]string, 0, fallbackMaxDescriptions)
	for _, a := range articles {
		if len(parts) == fallbackMaxDescriptions {
			break
		}
		if news.IsPlaceholderDescription(a.Description) {
			continue
		}
		sentence := asSentence(a.Description)
		key := strings.ToLower(sentence)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, sentence)
	}

	if len(parts) > 0 {
		return clipRunes(strings.Join(parts, " "), fallbackMaxRunes)
	}

	titles := make([]string, 0, fallbackMaxTitles)
	for _, a := range articles {
		if len(titles) == fallbackMaxTitles {
			break
		}
		titles = append(titles, strings.TrimSpace(a.Title))
	}
	return clipRunes(fmt.Sprintf("Coverage from %d sources: %s", distinctSources(articles), strings.Join(titles, "; ")), fallbackMaxRunes)
}

func asSentence(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	switch s[len(s)-1] {
	case '.', '!', '?', '"', '\'':
		return s
	}
	if strings.HasSuffix(s, "…") {
		return s
	}
	return s + "."
}

func distinctSources(articles []news.Article) int {
	seen := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		seen[a.Source] = struct{}{}
	}
	return len(seen)
}
