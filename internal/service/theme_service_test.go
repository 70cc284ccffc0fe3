package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/model"
)

type fakeThemeCache struct {
	payload   string
	hit       bool
	getErr    error
	getCalls  int
	gotKey    model.ThemeCacheEntry
	upserts   []model.ThemeCacheEntry
	upsertErr error
}

func (f *fakeThemeCache) Get(ctx context.Context, entry model.ThemeCacheEntry) (string, bool, error) {
	f.getCalls++
	f.gotKey = entry
	return f.payload, f.hit, f.getErr
}

func (f *fakeThemeCache) Upsert(ctx context.Context, entry model.ThemeCacheEntry) error {
	f.upserts = append(f.upserts, entry)
	return f.upsertErr
}

func newThemeFixture(chunks *fakeChunkStore, cache *fakeThemeCache, generator *fakeGenerator) *ThemeService {
	var labeler *ThemeLabeler
	if generator != nil {
		labeler = NewThemeLabeler(generator)
	} else {
		labeler = NewThemeLabeler(nil)
	}
	svc := NewThemeService(chunks, cache, labeler, 24, 6)
	svc.now = func() time.Time { return testNow }
	svc.pick = func(n int) int { return 0 }
	return svc
}

func cachedThemesPayload(t *testing.T, label string) string {
	t.Helper()
	data, err := json.Marshal(&model.ThemesResponse{
		GeneratedAt: testNow.Add(-3 * time.Hour),
		WindowHours: 24,
		Themes:      []model.Theme{{ID: "cluster-1", Label: label, Count: 5}},
	})
	require.NoError(t, err)
	return string(data)
}

// Six chunks in three orthogonal groups, ordered so the deterministic
// first-k seeding lands one seed per group.
func themeRows() []model.ChunkCandidate {
	when := testNow.Add(-2 * time.Hour)
	mk := func(id, docID, text, embedding, ticker string) model.ChunkCandidate {
		c := candidate(id, docID, text, embedding, when)
		c.Tickers = []string{ticker}
		return c
	}
	return []model.ChunkCandidate{
		mk("c1", "d1", "Nvidia data center revenue surges", "[1,0,0]", "NVDA"),
		mk("c2", "d2", "Crude inventories build unexpectedly", "[0,1,0]", "XOM"),
		mk("c3", "d3", "JPMorgan tops profit estimates", "[0,0,1]", "JPM"),
		mk("c4", "d4", "AMD guides above consensus on AI demand", "[1,0,0]", "AMD"),
		mk("c5", "d5", "OPEC weighs deeper output cuts", "[0,1,0]", "XOM"),
		mk("c6", "d6", "Goldman flags trading windfall", "[0,0,1]", "GS"),
	}
}

func TestGetThemesCacheHitSkipsRecomputation(t *testing.T) {
	chunks := &fakeChunkStore{}
	cache := &fakeThemeCache{payload: cachedThemesPayload(t, "Cached theme"), hit: true}
	svc := newThemeFixture(chunks, cache, nil)

	resp, err := svc.GetThemes(context.Background(), 24, 6, false)
	require.NoError(t, err)
	require.Equal(t, "Cached theme", resp.Themes[0].Label)
	require.Equal(t, 0, chunks.calls)
	require.Empty(t, cache.upserts)
}

func TestGetThemesForceRecomputesAndOverwrites(t *testing.T) {
	chunks := &fakeChunkStore{rows: themeRows()}
	cache := &fakeThemeCache{payload: cachedThemesPayload(t, "Stale theme"), hit: true}
	svc := newThemeFixture(chunks, cache, nil)

	resp, err := svc.GetThemes(context.Background(), 24, 6, true)
	require.NoError(t, err)
	require.Equal(t, 1, chunks.calls)
	require.Len(t, cache.upserts, 1)
	require.NotEqual(t, "Stale theme", resp.Themes[0].Label)
	require.Equal(t, resp.GeneratedAt, cache.upserts[0].GeneratedAt)
}

func TestGetThemesCorruptPayloadRecomputes(t *testing.T) {
	chunks := &fakeChunkStore{rows: themeRows()}
	cache := &fakeThemeCache{payload: "{not valid json", hit: true}
	svc := newThemeFixture(chunks, cache, nil)

	resp, err := svc.GetThemes(context.Background(), 24, 6, false)
	require.NoError(t, err)
	require.Equal(t, 1, chunks.calls)
	require.Len(t, cache.upserts, 1)
	require.NotEmpty(t, resp.Themes)
}

func TestGetThemesEmptyCorpus(t *testing.T) {
	chunks := &fakeChunkStore{}
	cache := &fakeThemeCache{}
	generator := &fakeGenerator{out: "should not run"}
	svc := newThemeFixture(chunks, cache, generator)

	resp, err := svc.GetThemes(context.Background(), 24, 6, false)
	require.NoError(t, err)
	require.NotNil(t, resp.Themes)
	require.Empty(t, resp.Themes)
	require.Equal(t, 0, generator.calls)
	require.Len(t, cache.upserts, 1)
}

func TestGetThemesIgnoresPlaceholderEmbeddings(t *testing.T) {
	when := testNow.Add(-time.Hour)
	chunks := &fakeChunkStore{rows: []model.ChunkCandidate{
		candidate("c1", "d1", "placeholder", "[0,0,0]", when),
		candidate("c2", "d2", "corrupt", "nope", when),
	}}
	cache := &fakeThemeCache{}
	svc := newThemeFixture(chunks, cache, nil)

	resp, err := svc.GetThemes(context.Background(), 24, 6, false)
	require.NoError(t, err)
	require.Empty(t, resp.Themes)
}

func TestGetThemesStaleFallbackOnRecomputeFailure(t *testing.T) {
	chunks := &fakeChunkStore{err: fmt.Errorf("db gone")}
	cache := &fakeThemeCache{payload: cachedThemesPayload(t, "Stale but usable"), hit: true}
	svc := newThemeFixture(chunks, cache, nil)

	resp, err := svc.GetThemes(context.Background(), 24, 6, true)
	require.NoError(t, err)
	require.Equal(t, "Stale but usable", resp.Themes[0].Label)
}

func TestGetThemesErrorWithoutStale(t *testing.T) {
	chunks := &fakeChunkStore{err: fmt.Errorf("db gone")}
	cache := &fakeThemeCache{}
	svc := newThemeFixture(chunks, cache, nil)

	_, err := svc.GetThemes(context.Background(), 24, 6, false)
	require.Error(t, err)
}

func TestGetThemesCacheReadErrorPropagates(t *testing.T) {
	cache := &fakeThemeCache{getErr: fmt.Errorf("cache table missing")}
	svc := newThemeFixture(&fakeChunkStore{}, cache, nil)

	_, err := svc.GetThemes(context.Background(), 24, 6, false)
	require.Error(t, err)
}

func TestGetThemesUpsertErrorWithoutStale(t *testing.T) {
	chunks := &fakeChunkStore{rows: themeRows()}
	cache := &fakeThemeCache{upsertErr: fmt.Errorf("write denied")}
	svc := newThemeFixture(chunks, cache, nil)

	_, err := svc.GetThemes(context.Background(), 24, 6, false)
	require.Error(t, err)
}

func TestGetThemesClampsParameters(t *testing.T) {
	cache := &fakeThemeCache{}
	svc := newThemeFixture(&fakeChunkStore{}, cache, nil)

	_, err := svc.GetThemes(context.Background(), 500, 99, false)
	require.NoError(t, err)
	require.Equal(t, MaxWindowHours, cache.gotKey.WindowHours)
	require.Equal(t, MaxThemeCount, cache.gotKey.ThemeCount)

	_, err = svc.GetThemes(context.Background(), 0, 0, false)
	require.NoError(t, err)
	require.Equal(t, 24, cache.gotKey.WindowHours)
	require.Equal(t, 6, cache.gotKey.ThemeCount)

	require.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), cache.gotKey.CacheDate)
}

func TestGetThemesBuildsLabeledThemes(t *testing.T) {
	chunks := &fakeChunkStore{rows: themeRows()}
	cache := &fakeThemeCache{}
	generator := &fakeGenerator{out: `{"dailySummary":"Chips, crude, and banks drove the session.","themes":[{"label":"AI Chip Rally","summary":"Chipmakers rallied on data center demand."},{"label":"Oil Supply Jitters","summary":"Crude swung on inventory and OPEC news."},{"label":"Bank Earnings Beat","summary":"Large banks topped profit estimates."}]}`}
	svc := newThemeFixture(chunks, cache, generator)

	resp, err := svc.GetThemes(context.Background(), 24, 3, false)
	require.NoError(t, err)
	require.Equal(t, 24, resp.WindowHours)
	require.Equal(t, "Chips, crude, and banks drove the session.", resp.DailySummary)
	require.Len(t, resp.Themes, 3)

	first := resp.Themes[0]
	require.Equal(t, "cluster-1", first.ID)
	require.Equal(t, "AI Chip Rally", first.Label)
	require.Equal(t, 2, first.Count)
	require.ElementsMatch(t, []string{"NVDA", "AMD"}, first.Tickers)
	require.Contains(t, first.QuerySeed, "AI Chip Rally")
	for _, ticker := range first.Tickers {
		require.Contains(t, first.QuerySeed, ticker)
	}

	require.Equal(t, "Oil Supply Jitters", resp.Themes[1].Label)
	require.Equal(t, "Bank Earnings Beat", resp.Themes[2].Label)
}

func TestGetThemesFallbackLabelsOnBadGeneratorOutput(t *testing.T) {
	chunks := &fakeChunkStore{rows: themeRows()}
	cache := &fakeThemeCache{}
	generator := &fakeGenerator{out: "sorry, I cannot answer that"}
	svc := newThemeFixture(chunks, cache, generator)

	resp, err := svc.GetThemes(context.Background(), 24, 3, false)
	require.NoError(t, err)
	require.Empty(t, resp.DailySummary)
	require.Len(t, resp.Themes, 3)
	for i, theme := range resp.Themes {
		require.Equal(t, fmt.Sprintf("Theme %d", i+1), theme.Label)
		require.NotEmpty(t, theme.Summary)
	}
}

func TestUtcDayNormalizesZone(t *testing.T) {
	zone := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2026, 8, 29, 3, 0, 0, 0, zone)
	require.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), utcDay(local))
}
