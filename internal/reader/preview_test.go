package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCleanTextKeepsParagraphs(t *testing.T) {
	t.Parallel()

	got := CleanText("  Lead   para \n\n Body\tcopy \r\n\r\nSign-off ")
	want := "Lead para\n\nBody copy\n\nSign-off"
	if got != want {
		t.Fatalf("unexpected clean text: got %q want %q", got, want)
	}
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	got, truncated := TruncateText("abcdefghijklmnopqrstuvwxyz", 10)
	if !truncated || got != "abcdefghi…" {
		t.Fatalf("unexpected truncation: %q truncated=%v", got, truncated)
	}

	got, truncated = TruncateText(" short ", 10)
	if truncated || got != "short" {
		t.Fatalf("unexpected short text: %q truncated=%v", got, truncated)
	}
}

func TestPreviewPlainText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Flood waters rose overnight.\n\nResidents were moved to shelters."))
	}))
	defer srv.Close()

	p := NewFetcher(Options{HTTPClient: srv.Client()}).Preview(context.Background(), srv.URL+"/story", "fallback", 0)
	if p.Source != SourceReader {
		t.Fatalf("unexpected source: %q", p.Source)
	}
	if !strings.HasPrefix(p.Text, "Flood waters rose overnight.") {
		t.Fatalf("unexpected text: %q", p.Text)
	}
	if p.Error != nil {
		t.Fatalf("unexpected error: %s", *p.Error)
	}
}

func TestPreviewFallsBackOnFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewFetcher(Options{HTTPClient: srv.Client()}).Preview(context.Background(), srv.URL, "Short description.", 0)
	if p.Source != SourceDescription {
		t.Fatalf("unexpected source: %q", p.Source)
	}
	if p.Text != "Short description." {
		t.Fatalf("unexpected text: %q", p.Text)
	}
	if p.Error == nil || !strings.Contains(*p.Error, "502") {
		t.Fatalf("expected fetch status error, got %v", p.Error)
	}
}

func TestFetchTextRejectsRelativeURL(t *testing.T) {
	t.Parallel()

	if _, err := NewFetcher(Options{}).FetchText(context.Background(), "/relative/path"); err == nil {
		t.Fatalf("expected error for relative url")
	}
}
