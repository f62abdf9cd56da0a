package summary

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/storydesk/internal/news"
)

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"

	DefaultTimeout = 20 * time.Second
)

// Outcome is a summary together with where it came from.
type Outcome struct {
	GroupTitle string
	Summary    string
	Source     string
	Model      string
}

// Service tries the configured Summarizer and degrades to Fallback on any
// failure. It never returns an error.
type Service struct {
	llm     Summarizer
	timeout time.Duration
	logger  zerolog.Logger
}

func NewService(llm Summarizer, timeout time.Duration, logger zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{llm: llm, timeout: timeout, logger: logger}
}

func (s *Service) Enabled() bool {
	return s != nil && s.llm != nil
}

func (s *Service) Summarize(ctx context.Context, articles []news.Article) Outcome {
	if s.Enabled() && len(articles) > 0 {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err := s.llm.Summarize(callCtx, Input{Articles: articles})
		cancel()

		if err == nil && res != nil {
			return Outcome{
				GroupTitle: res.GroupTitle,
				Summary:    res.Summary,
				Source:     SourceLLM,
				Model:      res.Model,
			}
		}
		if err == nil {
			err = ErrEmptyResult
		}

		event := s.logger.Warn()
		if errors.Is(err, context.Canceled) {
			event = s.logger.Debug()
		}
		event.Err(err).
			Str("provider", s.llm.Name()).
			Int("articles", len(articles)).
			Msg("summary fallback used")
	}

	fb := Fallback(articles)
	return Outcome{
		GroupTitle: fb.GroupTitle,
		Summary:    fb.Summary,
		Source:     SourceFallback,
	}
}
