package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"horse.fit/storydesk/internal/news"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"

	maxPromptArticles    = 8
	maxPromptDescription = 400
)

var (
	ErrProviderNotRegistered = errors.New("summary provider not registered")
	ErrEmptyResult           = errors.New("summary response is empty")
)

// Summarizer writes a title and a short neutral summary for one story group.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, in Input) (*Result, error)
}

type Input struct {
	Articles []news.Article
}

type Result struct {
	GroupTitle string `json:"groupTitle"`
	Summary    string `json:"summary"`
	Model      string `json:"model,omitempty"`
}

const systemPrompt = `You are a news desk editor. You receive several reports of the same story from different outlets.

Write:
1. A neutral headline for the story, at most 14 words.
2. A summary of two to four sentences that keeps the facts the reports agree on: names, places, numbers and dates. Do not speculate.

Output JSON only, no other text:
{"groupTitle": "headline", "summary": "summary"}`

func userPrompt(articles []news.Article) string {
	var sb strings.Builder
	for i, a := range articles {
		if i == maxPromptArticles {
			break
		}
		fmt.Fprintf(&sb, "%d. Source: %s\nHeadline: %s\n", i+1, a.SourceName, a.Title)
		if !news.IsPlaceholderDescription(a.Description) {
			fmt.Fprintf(&sb, "Summary: %s\n", clipRunes(a.Description, maxPromptDescription))
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func parseResult(content, model string) (*Result, error) {
	cleaned := cleanJSONResponse(content)

	var parsed Result
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w, content: %s", err, cleaned)
	}

	parsed.GroupTitle = strings.Join(strings.Fields(parsed.GroupTitle), " ")
	parsed.Summary = strings.TrimSpace(parsed.Summary)
	if parsed.GroupTitle == "" || parsed.Summary == "" {
		return nil, ErrEmptyResult
	}
	parsed.Model = model
	return &parsed, nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Models sometimes wrap the object in prose.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

func clipRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

// Registry resolves a configured provider name to a Summarizer.
type Registry struct {
	summarizers map[string]Summarizer
}

func NewRegistry(summarizers ...Summarizer) *Registry {
	r := &Registry{summarizers: make(map[string]Summarizer, len(summarizers))}
	for _, s := range summarizers {
		if s != nil {
			r.summarizers[strings.ToLower(s.Name())] = s
		}
	}
	return r
}

// Resolve returns nil without error for "" and "none", meaning only the
// fallback is used.
func (r *Registry) Resolve(name string) (Summarizer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == ProviderNone {
		return nil, nil
	}
	s, ok := r.summarizers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotRegistered, name)
	}
	return s, nil
}
