package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"horse.fit/storydesk/internal/news"
)

const minLetters = 12

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter code of text's language, or "" when
// the sample is too short or ambiguous.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if countLetters(sample) < minLetters {
		return ""
	}

	language, ok := getDetector().DetectLanguageOf(sample)
	if !ok {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

// KeepLanguage drops articles detected as some other language. Articles
// that cannot be classified are kept.
func KeepLanguage(articles []news.Article, code string) []news.Article {
	code = strings.ToLower(strings.TrimSpace(code))
	out := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		detected := DetectISO6391(a.Title + ". " + a.Description)
		if detected != "" && detected != code {
			continue
		}
		out = append(out, a)
	}
	return out
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// Building a detector for every language takes seconds and a lot of memory,
// so it happens once per process.
func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.French, lingua.German, lingua.Spanish,
				lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian,
				lingua.Arabic, lingua.Chinese, lingua.Japanese, lingua.Korean,
				lingua.Hindi, lingua.Turkish, lingua.Indonesian, lingua.Polish,
			).
			Build()
	})
	return detector
}
