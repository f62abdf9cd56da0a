package grouping

const (
	mergeThresholdFactor  = 0.85
	mergeSharedWordsCount = 3
	mergeSharedWordsBoost = 0.3
)

// Merge joins groups that the greedy pass split apart. Only groups with fully
// disjoint source sets are candidates, and the threshold is relaxed to 85% of
// the clustering threshold.
func Merge(groups []ArticleGroup, threshold float64) []ArticleGroup {
	clusters := make([]*cluster, 0, len(groups))
	for _, g := range groups {
		members := profileAll(g.Articles)
		if len(members) == 0 {
			continue
		}
		c := &cluster{id: g.ID, sources: map[string]struct{}{}}
		if c.id == "" {
			c.id = newGroupID()
		}
		for _, m := range members {
			c.add(m)
		}
		clusters = append(clusters, c)
	}
	return exportClusters(mergeClusters(clusters, normalizeThreshold(threshold)))
}

func mergeClusters(clusters []*cluster, threshold float64) []*cluster {
	mergeThreshold := threshold * mergeThresholdFactor
	absorbed := make([]bool, len(clusters))

	for i, anchor := range clusters {
		if absorbed[i] {
			continue
		}
		for j := i + 1; j < len(clusters); j++ {
			if absorbed[j] {
				continue
			}
			other := clusters[j]
			if !disjointSources(anchor, other) {
				continue
			}

			similarity, shared := strongestLink(anchor, other)
			if shared >= mergeSharedWordsCount {
				similarity += mergeSharedWordsBoost
			}
			if similarity < mergeThreshold {
				continue
			}

			for _, m := range other.members {
				anchor.add(m)
			}
			absorbed[j] = true
		}
	}

	out := make([]*cluster, 0, len(clusters))
	for i, c := range clusters {
		if !absorbed[i] {
			out = append(out, c)
		}
	}
	return out
}

func disjointSources(left, right *cluster) bool {
	for source := range left.sources {
		if right.hasSource(source) {
			return false
		}
	}
	return true
}

// strongestLink returns the best pairwise similarity and the largest shared
// title word count across the two clusters.
func strongestLink(left, right *cluster) (float64, int) {
	best := 0.0
	shared := 0
	for _, l := range left.members {
		for _, r := range right.members {
			if s := score(l.profile, r.profile); s > best {
				best = s
			}
			if n := sharedTitleWords(l.profile, r.profile); n > shared {
				shared = n
			}
		}
	}
	return best, shared
}
