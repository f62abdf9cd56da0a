package grouping

import (
	"math"
	"strings"
	"time"

	"horse.fit/storydesk/internal/news"
)

const (
	titleBoostFloor      = 0.15
	titleBoostWeight     = 0.98
	sharedWordsLowCount  = 2
	sharedWordsLowBoost  = 0.20
	sharedWordsHighCount = 4
	sharedWordsHighBoost = 0.30
	sameDomainBoost      = 0.05
	recencyNearDays      = 7
	recencyNearBonus     = 0.15
	recencyFarDays       = 14
	recencyFarBonus      = 0.05
	textWeight           = 0.95
	recencyWeight        = 0.05
)

// Profile is the comparison view of one article, built once per article.
// Scores computed from profiles are exactly symmetric.
type Profile struct {
	hasText    bool
	terms      map[string]struct{}
	titleTerms map[string]struct{}
	titleWords map[string]struct{}
	published  time.Time
	hasDate    bool
	host       string
}

func NewProfile(a news.Article) Profile {
	description := a.Description
	if news.IsPlaceholderDescription(description) {
		description = ""
	}
	combined := strings.TrimSpace(a.Title + " " + description)
	titleTokens := significantTokens(a.Title)

	p := Profile{
		hasText:    combined != "",
		terms:      topTerms(significantTokens(combined), maxTextTerms),
		titleTerms: topTerms(titleTokens, maxTitleTerms),
		titleWords: wordSet(titleTokens),
		host:       hostOf(a.URL),
	}
	p.published, p.hasDate = a.PublishedTime()
	return p
}

// Similarity estimates in [0,1] whether two articles report the same story.
// Title and term overlap carry 95% of the weight; publication proximity adds
// at most 0.0075 and a shared hostname a minor signal. Placeholder
// descriptions are ignored.
func Similarity(a, b news.Article) float64 {
	return score(NewProfile(a), NewProfile(b))
}

func score(p, q Profile) float64 {
	if !p.hasText || !q.hasText {
		return 0
	}

	text := jaccard(p.terms, q.terms)

	if len(p.titleTerms) > 0 && len(q.titleTerms) > 0 {
		if titleScore := jaccard(p.titleTerms, q.titleTerms); titleScore > titleBoostFloor {
			text = math.Max(text, titleScore*titleBoostWeight+text*(1-titleBoostWeight))
		}
	}

	text = applySharedWordBoost(text, sharedTitleWords(p, q))

	if p.host != "" && p.host == q.host {
		text = math.Min(1, text+sameDomainBoost)
	}

	return clamp01(text*textWeight + recencyBonus(p, q)*recencyWeight)
}

func applySharedWordBoost(text float64, shared int) float64 {
	if shared >= sharedWordsLowCount {
		text = math.Min(1, text+sharedWordsLowBoost)
	}
	if shared >= sharedWordsHighCount {
		text = math.Min(1, text+sharedWordsHighBoost)
	}
	return text
}

func sharedTitleWords(p, q Profile) int {
	return intersectionSize(p.titleWords, q.titleWords)
}

func recencyBonus(p, q Profile) float64 {
	if !p.hasDate || !q.hasDate {
		return 0
	}
	days := math.Abs(p.published.Sub(q.published).Hours()) / 24
	switch {
	case days <= recencyNearDays:
		return recencyNearBonus
	case days <= recencyFarDays:
		return recencyFarBonus
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
