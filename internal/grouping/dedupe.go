package grouping

import "horse.fit/storydesk/internal/news"

// Dedupe keeps one article per source, preferring the most recent parseable
// publication date. Undated articles and ties keep the first one seen. The
// result lists sources in order of first appearance.
func Dedupe(group ArticleGroup) ArticleGroup {
	kept := make([]news.Article, 0, len(group.Articles))
	position := make(map[string]int, len(group.Articles))

	for _, a := range group.Articles {
		idx, seen := position[a.Source]
		if !seen {
			position[a.Source] = len(kept)
			kept = append(kept, a)
			continue
		}
		if newerThan(a, kept[idx]) {
			kept[idx] = a
		}
	}

	return ArticleGroup{ID: group.ID, Articles: kept}
}

func newerThan(candidate, current news.Article) bool {
	candidateAt, ok := candidate.PublishedTime()
	if !ok {
		return false
	}
	currentAt, ok := current.PublishedTime()
	if !ok {
		return true
	}
	return candidateAt.After(currentAt)
}
