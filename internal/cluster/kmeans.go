package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/finboard/finboard/internal/pkg/vecmath"
)

// DefaultIterations bounds the k-means loop. The loop never runs to
// convergence; a fixed iteration count keeps latency flat.
const DefaultIterations = 6

type Item struct {
	ID         string
	Text       string
	Embedding  []float32
	DocumentID string
	Title      string
	Tickers    []string
}

type Cluster struct {
	ID       string
	Centroid []float32
	Items    []Item
}

// KMeans partitions items into at most k clusters by cosine similarity.
// Centroids are seeded from the first k items, so identical input ordering
// yields identical output. pick chooses a reseed index for clusters that end
// an iteration empty; it is injectable so tests can pin the only
// non-deterministic path. A nil pick falls back to math/rand.
func KMeans(items []Item, k int, iterations int, pick func(n int) int) []Cluster {
	if len(items) == 0 {
		return nil
	}
	if k > len(items) {
		k = len(items)
	}
	if k <= 0 {
		return nil
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if pick == nil {
		pick = rand.Intn
	}

	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		centroids[i] = items[i].Embedding
	}
	assignments := make([]int, len(items))

	for iter := 0; iter < iterations; iter++ {
		for i, item := range items {
			bestIdx := 0
			bestScore := math.Inf(-1)
			for c := range centroids {
				score := vecmath.CosineSimilarity(item.Embedding, centroids[c])
				if score > bestScore {
					bestScore = score
					bestIdx = c
				}
			}
			assignments[i] = bestIdx
		}

		buckets := make([][][]float32, k)
		for i, item := range items {
			buckets[assignments[i]] = append(buckets[assignments[i]], item.Embedding)
		}

		for c := 0; c < k; c++ {
			if len(buckets[c]) == 0 {
				// Reseed rather than drop mid-loop so the slot gets another
				// chance to attract members before the budget runs out.
				centroids[c] = items[pick(len(items))].Embedding
				continue
			}
			mean, err := vecmath.Mean(buckets[c])
			if err != nil {
				continue
			}
			centroids[c] = mean
		}
	}

	clusters := make([]Cluster, k)
	for c := 0; c < k; c++ {
		clusters[c] = Cluster{
			ID:       fmt.Sprintf("cluster-%d", c+1),
			Centroid: centroids[c],
		}
	}
	for i, item := range items {
		clusters[assignments[i]].Items = append(clusters[assignments[i]].Items, item)
	}

	out := make([]Cluster, 0, k)
	for _, c := range clusters {
		if len(c.Items) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// TopItems returns up to limit members ranked by similarity to the cluster's
// own centroid, most representative first.
func (c Cluster) TopItems(limit int) []Item {
	type scored struct {
		item  Item
		score float64
	}
	ranked := make([]scored, 0, len(c.Items))
	for _, item := range c.Items {
		ranked = append(ranked, scored{item: item, score: vecmath.CosineSimilarity(item.Embedding, c.Centroid)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]Item, 0, limit)
	for _, entry := range ranked[:limit] {
		out = append(out, entry.item)
	}
	return out
}

// TopTickers returns up to limit tickers by occurrence count across the
// cluster's members. Ties keep first-seen order.
func (c Cluster) TopTickers(limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range c.Items {
		for _, ticker := range item.Tickers {
			if _, seen := counts[ticker]; !seen {
				order = append(order, ticker)
			}
			counts[ticker]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if limit > len(order) {
		limit = len(order)
	}
	return order[:limit]
}
