package news

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	SourceGuardian = "guardian"
	SourceGDELT    = "gdelt"
	SourceCurrents = "currents"
	SourceUnknown  = "unknown"
)

// Article is the canonical cross-provider article record. Provider adapters
// produce it; the grouping engine only ever sees this shape.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt,omitempty"`
	SourceName  string `json:"sourceName"`
	Source      string `json:"source"`
}

// Layouts emitted by the Guardian, GDELT and Currents APIs, tried before the
// generic parser.
var knownLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"20060102T150405Z",
	"2006-01-02 15:04:05",
}

var removedTitles = map[string]struct{}{
	"[removed]": {},
	"removed":   {},
	"untitled":  {},
}

// SourceTag maps a human source label onto the lowercase tag used for
// grouping decisions.
func SourceTag(sourceName string) string {
	name := strings.ToLower(strings.TrimSpace(sourceName))
	switch {
	case name == "":
		return SourceUnknown
	case strings.Contains(name, SourceGuardian):
		return SourceGuardian
	case strings.Contains(name, SourceGDELT):
		return SourceGDELT
	case strings.Contains(name, SourceCurrents):
		return SourceCurrents
	default:
		return SourceUnknown
	}
}

// Normalize trims every field and fills Source from SourceName when it is
// missing. An explicit Source is kept but lowercased.
func (a Article) Normalize() Article {
	a.Title = strings.Join(strings.Fields(a.Title), " ")
	a.Description = strings.Join(strings.Fields(a.Description), " ")
	a.URL = strings.TrimSpace(a.URL)
	a.PublishedAt = strings.TrimSpace(a.PublishedAt)
	a.SourceName = strings.TrimSpace(a.SourceName)

	source := strings.ToLower(strings.TrimSpace(a.Source))
	if source == "" {
		source = SourceTag(a.SourceName)
	}
	a.Source = source
	return a
}

// Valid reports whether the article may enter clustering.
func (a Article) Valid() bool {
	title := strings.TrimSpace(a.Title)
	if title == "" || strings.TrimSpace(a.URL) == "" {
		return false
	}
	_, removed := removedTitles[strings.ToLower(title)]
	return !removed
}

// PublishedTime parses PublishedAt. The boolean is false when the value is
// empty or unparsable.
func (a Article) PublishedTime() (time.Time, bool) {
	return ParsePublishedAt(a.PublishedAt)
}

// ParsePublishedAt accepts the loose date formats providers emit.
func ParsePublishedAt(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range knownLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.UTC(), true
		}
	}
	ts, err := dateparse.ParseIn(trimmed, time.UTC)
	if err != nil || ts.IsZero() {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// FilterValid normalizes articles and drops the ones without title or URL.
func FilterValid(articles []Article) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		normalized := a.Normalize()
		if !normalized.Valid() {
			continue
		}
		out = append(out, normalized)
	}
	return out
}
