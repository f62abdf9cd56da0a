package grouping

import (
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minTermLength = 3
	maxTextTerms  = 40
	maxTitleTerms = 20
)

// English-oriented stop words, plus words every headline desk overuses.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {}, "is": {}, "was": {},
	"are": {}, "were": {}, "be": {}, "been": {}, "being": {}, "has": {}, "have": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "can": {}, "could": {}, "should": {},
	"it": {}, "its": {}, "this": {}, "that": {}, "these": {}, "those": {}, "not": {}, "than": {},
	"into": {}, "over": {}, "after": {}, "about": {}, "said": {}, "says": {}, "news": {}, "new": {},
}

// tokenize lowercases text, turns every non letter/digit rune into a
// separator and splits on the result.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func isSignificant(token string) bool {
	if utf8.RuneCountInString(token) < minTermLength {
		return false
	}
	_, stop := stopWords[token]
	return !stop
}

func significantTokens(text string) []string {
	tokens := tokenize(text)
	out := tokens[:0]
	for _, token := range tokens {
		if isSignificant(token) {
			out = append(out, token)
		}
	}
	return out
}

// topTerms keeps the limit most frequent tokens. Ties are broken by the term
// itself so the set depends only on the article, never on the comparison.
func topTerms(tokens []string, limit int) map[string]struct{} {
	if len(tokens) == 0 {
		return map[string]struct{}{}
	}

	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}

	set := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		set[term] = struct{}{}
	}
	return set
}

func wordSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// jaccard is 1 for two empty sets and 0 when exactly one is empty.
func jaccard(left, right map[string]struct{}) float64 {
	if len(left) == 0 && len(right) == 0 {
		return 1
	}
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	intersection := intersectionSize(left, right)
	union := len(left) + len(right) - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func intersectionSize(left, right map[string]struct{}) int {
	if len(left) > len(right) {
		left, right = right, left
	}
	n := 0
	for token := range left {
		if _, ok := right[token]; ok {
			n++
		}
	}
	return n
}

func hostOf(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
