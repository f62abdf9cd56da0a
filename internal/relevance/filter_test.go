package relevance

import (
	"testing"

	"horse.fit/storydesk/internal/news"
)

func TestDefaultTableLoads(t *testing.T) {
	t.Parallel()

	got := Default().Countries()
	want := []string{"au", "ca", "gb", "in", "us"}
	if len(got) != len(want) {
		t.Fatalf("unexpected countries: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected countries: got %v want %v", got, want)
		}
	}
}

func TestRelevantWholeWords(t *testing.T) {
	t.Parallel()

	f := Default()
	cases := []struct {
		article news.Article
		country string
		want    bool
	}{
		{news.Article{Title: "Senate passes funding bill"}, "us", true},
		{news.Article{Title: "Storm in NEW   YORK"}, "US", true},
		{news.Article{Title: "Busy day", Description: "Protests in Downing Street"}, "gb", true},
		{news.Article{Title: "Bus routes change"}, "us", false},
		{news.Article{Title: "Ukraine talks continue"}, "gb", false},
		{news.Article{Title: "Anything at all"}, "", true},
		{news.Article{Title: "Anything at all"}, "fr", true},
	}
	for _, tc := range cases {
		if got := f.Relevant(tc.article, tc.country); got != tc.want {
			t.Fatalf("Relevant(%q, %q): got %v want %v", tc.article.Title, tc.country, got, tc.want)
		}
	}
}

func TestApplyKeepsPoolWhenNothingMatches(t *testing.T) {
	t.Parallel()

	f := Default()
	articles := []news.Article{
		{Title: "Toronto transit strike ends"},
		{Title: "Global markets steady"},
	}

	kept := f.Apply(articles, "ca")
	if len(kept) != 1 || kept[0].Title != "Toronto transit strike ends" {
		t.Fatalf("unexpected kept articles: %+v", kept)
	}

	kept = f.Apply(articles, "au")
	if len(kept) != len(articles) {
		t.Fatalf("expected unfiltered pool, got %d articles", len(kept))
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("us: [unclosed")); err == nil {
		t.Fatalf("expected yaml error")
	}
}
