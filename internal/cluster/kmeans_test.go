package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKMeansPartition(t *testing.T) {
	items := []Item{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0, 1}},
		{ID: "c", Embedding: []float32{0.98, 0.05}},
		{ID: "d", Embedding: []float32{0.02, 0.97}},
		{ID: "e", Embedding: []float32{0.95, 0.1}},
		{ID: "f", Embedding: []float32{0.05, 0.9}},
	}
	clusters := KMeans(items, 2, DefaultIterations, nil)
	require.Len(t, clusters, 2)

	seen := make(map[string]int)
	for _, c := range clusters {
		require.NotEmpty(t, c.Items)
		for _, item := range c.Items {
			seen[item.ID]++
		}
	}
	require.Len(t, seen, len(items))
	for id, count := range seen {
		require.Equal(t, 1, count, "item %s assigned %d times", id, count)
	}
}

func TestKMeansDeterministicForSameOrdering(t *testing.T) {
	items := []Item{
		{ID: "a", Embedding: []float32{1, 0, 0}},
		{ID: "b", Embedding: []float32{0, 1, 0}},
		{ID: "c", Embedding: []float32{0, 0, 1}},
		{ID: "d", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "e", Embedding: []float32{0, 0.9, 0.1}},
		{ID: "f", Embedding: []float32{0.1, 0, 0.9}},
	}
	first := KMeans(items, 3, DefaultIterations, nil)
	second := KMeans(items, 3, DefaultIterations, nil)
	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, first[i].ID, second[i].ID)
		require.Equal(t, memberIDs(first[i]), memberIDs(second[i]))
	}
}

func TestKMeansDropsEmptyClusters(t *testing.T) {
	// Seeds one and two are identical, so ties always resolve to the lower
	// index and cluster two never attracts a member, even after reseeding.
	items := []Item{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{1, 0}},
		{ID: "c", Embedding: []float32{0, 1}},
		{ID: "d", Embedding: []float32{1, 0}},
		{ID: "e", Embedding: []float32{0, 1}},
	}
	reseeds := 0
	pick := func(n int) int {
		reseeds++
		return 0
	}
	clusters := KMeans(items, 3, DefaultIterations, pick)
	require.Len(t, clusters, 2)
	require.Greater(t, reseeds, 0)
	require.Equal(t, "cluster-1", clusters[0].ID)
	require.Equal(t, "cluster-3", clusters[1].ID)
	require.Len(t, clusters[0].Items, 3)
	require.Len(t, clusters[1].Items, 2)
}

func TestKMeansClampsKToItemCount(t *testing.T) {
	items := []Item{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0, 1}},
	}
	clusters := KMeans(items, 10, DefaultIterations, nil)
	require.Len(t, clusters, 2)
}

func TestKMeansEmptyInput(t *testing.T) {
	require.Nil(t, KMeans(nil, 5, DefaultIterations, nil))
}

func TestTopItemsRankedByCentroidSimilarity(t *testing.T) {
	c := Cluster{
		Centroid: []float32{1, 0},
		Items: []Item{
			{ID: "far", Embedding: []float32{0.5, 0.8}},
			{ID: "close", Embedding: []float32{0.99, 0.01}},
			{ID: "mid", Embedding: []float32{0.8, 0.4}},
			{ID: "edge", Embedding: []float32{0.1, 0.95}},
		},
	}
	top := c.TopItems(3)
	require.Len(t, top, 3)
	require.Equal(t, "close", top[0].ID)
	require.Equal(t, "mid", top[1].ID)
	require.Equal(t, "far", top[2].ID)
}

func TestTopTickersByFrequency(t *testing.T) {
	c := Cluster{
		Items: []Item{
			{Tickers: []string{"NVDA", "AMD"}},
			{Tickers: []string{"NVDA"}},
			{Tickers: []string{"NVDA", "TSM", "AMD"}},
			{Tickers: []string{"INTC"}},
		},
	}
	require.Equal(t, []string{"NVDA", "AMD", "TSM"}, c.TopTickers(3))
}

func TestTopTickersTiesKeepFirstSeen(t *testing.T) {
	c := Cluster{
		Items: []Item{
			{Tickers: []string{"AAPL", "MSFT", "GOOG"}},
		},
	}
	require.Equal(t, []string{"AAPL", "MSFT"}, c.TopTickers(2))
}

func memberIDs(c Cluster) []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func BenchmarkKMeans(b *testing.B) {
	items := make([]Item, 300)
	for i := range items {
		embedding := make([]float32, 64)
		for j := range embedding {
			embedding[j] = float32((i*31+j*17)%97) / 97
		}
		items[i] = Item{ID: fmt.Sprintf("item-%d", i), Embedding: embedding}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		KMeans(items, 6, DefaultIterations, nil)
	}
}
