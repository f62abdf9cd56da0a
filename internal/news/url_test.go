package news

import "testing"

func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"HTTPS://WWW.Example.com:443/World//Story/?utm_source=x&b=2&a=1#top": "https://www.example.com/World/Story?a=1&b=2",
		"http://example.com:8080/a?fbclid=zz":                                "http://example.com:8080/a",
		"https://example.com":                                                "https://example.com/",
		"/relative/path":                                                     "",
		"":                                                                   "",
	}
	for input, want := range cases {
		if got := CanonicalURL(input); got != want {
			t.Fatalf("CanonicalURL(%q): got %q want %q", input, got, want)
		}
	}
}

func TestDedupeByURL(t *testing.T) {
	t.Parallel()

	articles := []Article{
		{Title: "A", URL: "https://example.com/a?utm_medium=rss", Source: SourceGuardian},
		{Title: "A again", URL: "https://example.com/a/", Source: SourceGuardian},
		{Title: "A via gdelt", URL: "https://example.com/a", Source: SourceGDELT},
		{Title: "B", URL: "https://example.com/b", Source: SourceGuardian},
	}

	got := DedupeByURL(articles)
	if len(got) != 3 {
		t.Fatalf("unexpected count: got %d want 3", len(got))
	}
	if got[0].Title != "A" || got[1].Title != "A via gdelt" || got[2].Title != "B" {
		t.Fatalf("unexpected order: %+v", got)
	}
}
