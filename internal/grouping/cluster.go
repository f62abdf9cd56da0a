package grouping

import (
	"math"
	"sort"
	"strings"

	"horse.fit/storydesk/internal/news"
)

const (
	DefaultSimilarityThreshold = 0.20
	crossSourceBoost           = 1.5
)

type member struct {
	article news.Article
	profile Profile
}

type cluster struct {
	id      GroupID
	members []member
	sources map[string]struct{}
}

func newCluster(m member) *cluster {
	c := &cluster{
		id:      newGroupID(),
		sources: map[string]struct{}{},
	}
	c.add(m)
	return c
}

func (c *cluster) add(m member) {
	c.members = append(c.members, m)
	c.sources[m.article.Source] = struct{}{}
}

func (c *cluster) hasSource(source string) bool {
	_, ok := c.sources[source]
	return ok
}

func (c *cluster) maxSimilarity(p Profile) float64 {
	best := 0.0
	for _, m := range c.members {
		if s := score(p, m.profile); s > best {
			best = s
		}
	}
	return best
}

func (c *cluster) group() ArticleGroup {
	articles := make([]news.Article, len(c.members))
	for i, m := range c.members {
		articles[i] = m.article
	}
	return ArticleGroup{ID: c.id, Articles: articles}
}

// Cluster partitions articles into story groups in a single greedy pass.
// Input is stably ordered by source first, so the same input always yields
// the same grouping even though the algorithm itself is order dependent.
func Cluster(articles []news.Article, threshold float64) []ArticleGroup {
	clusters := clusterMembers(profileAll(articles), normalizeThreshold(threshold))
	return exportClusters(clusters)
}

func clusterMembers(members []member, threshold float64) []*cluster {
	sort.SliceStable(members, func(i, j int) bool {
		return strings.ToLower(members[i].article.Source) < strings.ToLower(members[j].article.Source)
	})

	clusters := make([]*cluster, 0, len(members))
	for _, m := range members {
		if target := bestCluster(clusters, m, threshold); target != nil {
			target.add(m)
			continue
		}
		clusters = append(clusters, newCluster(m))
	}
	return clusters
}

// bestCluster picks the highest scoring qualifying cluster that lacks the
// article's source. Clusters already holding the source are only considered
// when no cross-source cluster qualifies.
func bestCluster(clusters []*cluster, m member, threshold float64) *cluster {
	var (
		bestCross      *cluster
		bestCrossScore float64
		bestSame       *cluster
		bestSameScore  float64
	)

	for _, c := range clusters {
		similarity := c.maxSimilarity(m.profile)
		if !c.hasSource(m.article.Source) {
			effective := similarity * crossSourceBoost
			if effective >= threshold && (bestCross == nil || effective > bestCrossScore) {
				bestCross, bestCrossScore = c, effective
			}
			continue
		}
		if similarity >= threshold && (bestSame == nil || similarity > bestSameScore) {
			bestSame, bestSameScore = c, similarity
		}
	}

	if bestCross != nil {
		return bestCross
	}
	return bestSame
}

func profileAll(articles []news.Article) []member {
	members := make([]member, len(articles))
	for i, a := range articles {
		members[i] = member{article: a, profile: NewProfile(a)}
	}
	return members
}

func exportClusters(clusters []*cluster) []ArticleGroup {
	groups := make([]ArticleGroup, len(clusters))
	for i, c := range clusters {
		groups[i] = c.group()
	}
	return groups
}

func normalizeThreshold(threshold float64) float64 {
	if math.IsNaN(threshold) || threshold <= 0 {
		return DefaultSimilarityThreshold
	}
	return threshold
}
