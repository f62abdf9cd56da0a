package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "codeberg.org/readeck/go-readability/v2"
)

const (
	DefaultFetchTimeout  = 12 * time.Second
	DefaultBodyByteLimit = 2 * 1024 * 1024
	DefaultMaxChars      = 1000

	defaultUserAgent = "storydesk-reader/1.0"
)

const (
	SourceReader      = "reader"
	SourceDescription = "description"
	SourceNone        = "none"
)

// Options controls HTTP behavior for reader extraction.
type Options struct {
	Timeout       time.Duration
	BodyByteLimit int64
	UserAgent     string
	HTTPClient    *http.Client
}

// Preview is the readable body of an article page, clipped for display.
type Preview struct {
	URL       string  `json:"url"`
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	CharCount int     `json:"charCount"`
	Truncated bool    `json:"truncated"`
	Error     *string `json:"error,omitempty"`
}

type Fetcher struct {
	opts Options
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.BodyByteLimit <= 0 {
		opts.BodyByteLimit = DefaultBodyByteLimit
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{opts: opts}
}

// Preview extracts page text for pageURL. When extraction fails the
// fallback text is used and the failure is reported on the result instead
// of as an error.
func (f *Fetcher) Preview(ctx context.Context, pageURL, fallback string, maxChars int) Preview {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	text, source, fetchErr := f.previewText(ctx, pageURL, fallback)
	clipped, truncated := TruncateText(text, maxChars)

	p := Preview{
		URL:       strings.TrimSpace(pageURL),
		Text:      clipped,
		Source:    source,
		CharCount: utf8.RuneCountInString(clipped),
		Truncated: truncated,
	}
	if fetchErr != nil {
		msg := fetchErr.Error()
		p.Error = &msg
	}
	return p
}

func (f *Fetcher) previewText(ctx context.Context, pageURL, fallback string) (string, string, error) {
	fallback = strings.TrimSpace(fallback)

	text, err := f.FetchText(ctx, pageURL)
	if err == nil && text != "" {
		return text, SourceReader, nil
	}
	if fallback != "" {
		return fallback, SourceDescription, err
	}
	return "", SourceNone, err
}

// FetchText downloads pageURL and returns its readable text.
func (f *Fetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	page := strings.TrimSpace(pageURL)
	if page == "" {
		return "", fmt.Errorf("page URL is required")
	}
	parsed, err := url.Parse(page)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("page URL must be absolute http(s)")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, page, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := f.opts.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.BodyByteLimit))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if strings.HasPrefix(strings.ToLower(resp.Header.Get("Content-Type")), "text/plain") {
		return CleanText(string(body)), nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", fmt.Errorf("readability parse: %w", err)
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return "", fmt.Errorf("render readability text: %w", err)
	}

	text := CleanText(rendered.String())
	if text == "" {
		text = CleanText(article.Excerpt())
	}
	if text == "" {
		return "", fmt.Errorf("reader extracted empty content")
	}
	return text, nil
}

// CleanText normalizes line endings and keeps one blank line between
// paragraphs.
func CleanText(raw string) string {
	normalized := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(raw)

	var paragraphs []string
	for _, line := range strings.Split(normalized, "\n") {
		if clean := strings.Join(strings.Fields(line), " "); clean != "" {
			paragraphs = append(paragraphs, clean)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// TruncateText clips text to maxChars runes, ending in a single ellipsis
// rune when it had to cut.
func TruncateText(raw string, maxChars int) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || maxChars <= 0 {
		return trimmed, false
	}

	runes := []rune(trimmed)
	if len(runes) <= maxChars {
		return trimmed, false
	}

	clipped := strings.TrimSpace(string(runes[:maxChars-1]))
	return clipped + "…", true
}
