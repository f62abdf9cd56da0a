package grouping

import (
	"github.com/google/uuid"

	"horse.fit/storydesk/internal/news"
)

// GroupID identifies a group within one grouping run. Its format carries no
// meaning and it is not stable across runs.
type GroupID string

func newGroupID() GroupID {
	return GroupID(uuid.NewString())
}

// ArticleGroup is a cluster of articles believed to cover the same story.
type ArticleGroup struct {
	ID       GroupID        `json:"groupId"`
	Articles []news.Article `json:"articles"`
}

// Sources lists the distinct source tags in order of first appearance.
func (g ArticleGroup) Sources() []string {
	seen := make(map[string]struct{}, len(g.Articles))
	sources := make([]string, 0, len(g.Articles))
	for _, a := range g.Articles {
		if _, ok := seen[a.Source]; ok {
			continue
		}
		seen[a.Source] = struct{}{}
		sources = append(sources, a.Source)
	}
	return sources
}

func (g ArticleGroup) SourceCount() int {
	return len(g.Sources())
}

func (g ArticleGroup) MultiSource() bool {
	return g.SourceCount() >= 2
}

// Group runs the full engine: greedy clustering, the merge pass, per-source
// dedupe, then multi-source groups ahead of single-source ones. It never
// fails; empty input yields an empty slice.
func Group(articles []news.Article, threshold float64) []ArticleGroup {
	if len(articles) == 0 {
		return []ArticleGroup{}
	}

	threshold = normalizeThreshold(threshold)
	clusters := clusterMembers(profileAll(articles), threshold)
	clusters = mergeClusters(clusters, threshold)

	groups := make([]ArticleGroup, len(clusters))
	for i, c := range clusters {
		groups[i] = Dedupe(c.group())
	}
	return MultiSourceFirst(groups)
}

// MultiSourceFirst stably moves every group with two or more sources ahead of
// the single-source groups.
func MultiSourceFirst(groups []ArticleGroup) []ArticleGroup {
	multi := make([]ArticleGroup, 0, len(groups))
	single := make([]ArticleGroup, 0, len(groups))
	for _, g := range groups {
		if g.MultiSource() {
			multi = append(multi, g)
			continue
		}
		single = append(single, g)
	}
	return append(multi, single...)
}
