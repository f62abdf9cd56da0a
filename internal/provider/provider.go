package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"horse.fit/storydesk/internal/news"
)

const (
	DefaultLimit   = 20
	MaxLimit       = 100
	defaultTimeout = 15 * time.Second
	errorBodyLimit = 512
	userAgent      = "storydesk/1.0"
)

var ErrProviderNotRegistered = errors.New("provider not registered")

// Provider fetches recent articles from one upstream news API.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]news.Article, error)
}

type Query struct {
	Category string
	Country  string
	Keywords string
	Limit    int
}

func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}

func (q Query) category() string {
	return strings.ToLower(strings.TrimSpace(q.Category))
}

func (q Query) country() string {
	return strings.ToLower(strings.TrimSpace(q.Country))
}

// Options are shared by every adapter. BaseURL exists for tests.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (o Options) base(fallback string) string {
	if b := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/"); b != "" {
		return b
	}
	return fallback
}

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Code, e.Body)
}

func getJSON(ctx context.Context, client *http.Client, name, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: fetch: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{Provider: name, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", name, err)
	}
	return nil
}

// Registry keeps providers in registration order.
type Registry struct {
	providers []Provider
	byName    map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same name in place.
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	name := strings.ToLower(p.Name())
	if _, exists := r.byName[name]; exists {
		for i, existing := range r.providers {
			if strings.ToLower(existing.Name()) == name {
				r.providers[i] = p
			}
		}
	} else {
		r.providers = append(r.providers, p)
	}
	r.byName[name] = p
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotRegistered, name)
	}
	return p, nil
}

func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.providers)
}

// Info describes a provider for the sources listing, including ones left
// disabled by configuration.
type Info struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}
