package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finboard/finboard/internal/cluster"
	"github.com/finboard/finboard/internal/model"
	"github.com/finboard/finboard/internal/pkg/vecmath"
)

const (
	MinWindowHours = 1
	MaxWindowHours = 168
	MinThemeCount  = 3
	MaxThemeCount  = 10

	themeChunkLimit = 300
	themeTopItems   = 3
	themeTopTickers = 3
)

type themeChunkStore interface {
	SelectRecent(ctx context.Context, from time.Time, tickers []string, limit int) ([]model.ChunkCandidate, error)
}

type themeCacheStore interface {
	Get(ctx context.Context, entry model.ThemeCacheEntry) (string, bool, error)
	Upsert(ctx context.Context, entry model.ThemeCacheEntry) error
}

type ThemeService struct {
	chunks             themeChunkStore
	cache              themeCacheStore
	labeler            *ThemeLabeler
	defaultWindowHours int
	defaultThemeCount  int

	// injectable for tests
	now  func() time.Time
	pick func(n int) int
}

func NewThemeService(chunks themeChunkStore, cache themeCacheStore, labeler *ThemeLabeler, defaultWindowHours, defaultThemeCount int) *ThemeService {
	return &ThemeService{
		chunks:             chunks,
		cache:              cache,
		labeler:            labeler,
		defaultWindowHours: defaultWindowHours,
		defaultThemeCount:  defaultThemeCount,
		now:                time.Now,
	}
}

func (s *ThemeService) DefaultWindowHours() int { return s.defaultWindowHours }
func (s *ThemeService) DefaultThemeCount() int  { return s.defaultThemeCount }

// GetThemes memoizes a full day's theme computation per (UTC day, window,
// count) key. force bypasses the read but still writes the fresh result back.
// If recomputation fails after a stale-but-parseable payload was fetched, the
// stale payload is returned instead of the error.
func (s *ThemeService) GetThemes(ctx context.Context, windowHours, themeCount int, force bool) (*model.ThemesResponse, error) {
	windowHours = clampWindowHours(windowHours, s.defaultWindowHours)
	themeCount = clampThemeCount(themeCount, s.defaultThemeCount)

	key := model.ThemeCacheEntry{
		CacheDate:   utcDay(s.now()),
		WindowHours: windowHours,
		ThemeCount:  themeCount,
	}

	var stale *model.ThemesResponse
	payload, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if hit {
		if cached := parseCachedPayload(payload); cached != nil {
			if !force {
				return cached, nil
			}
			stale = cached
		}
		// unparseable payload is a miss; recompute and overwrite below
	}

	fresh, err := s.buildThemes(ctx, windowHours, themeCount)
	if err == nil {
		key.Payload, err = encodePayload(fresh)
	}
	if err == nil {
		key.GeneratedAt = fresh.GeneratedAt
		err = s.cache.Upsert(ctx, key)
	}
	if err != nil {
		if stale != nil {
			logutil.GetLogger(ctx).Warn("theme recomputation failed, serving stale cache",
				zap.Int("window_hours", windowHours),
				zap.Int("theme_count", themeCount),
				zap.Error(err),
			)
			return stale, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (s *ThemeService) buildThemes(ctx context.Context, windowHours, themeCount int) (*model.ThemesResponse, error) {
	now := s.now()
	from := now.Add(-time.Duration(windowHours) * time.Hour)

	rows, err := s.chunks.SelectRecent(ctx, from, nil, themeChunkLimit)
	if err != nil {
		return nil, err
	}

	items := make([]cluster.Item, 0, len(rows))
	for _, row := range rows {
		embedding, err := parseEmbedding(row.Embedding)
		if err != nil || len(embedding) == 0 || vecmath.IsZero(embedding) {
			// placeholder or corrupt embedding: unusable for clustering
			continue
		}
		items = append(items, cluster.Item{
			ID:         row.ID,
			Text:       row.Text,
			Embedding:  embedding,
			DocumentID: row.DocumentID,
			Title:      row.Title,
			Tickers:    row.Tickers,
		})
	}

	if len(items) == 0 {
		return &model.ThemesResponse{
			GeneratedAt: now,
			WindowHours: windowHours,
			Themes:      []model.Theme{},
		}, nil
	}

	clusters := cluster.KMeans(items, themeCount, cluster.DefaultIterations, s.pick)
	copySet := s.labeler.Label(ctx, clusters)

	themes := make([]model.Theme, 0, len(clusters))
	for i, c := range clusters {
		copyEntry := ThemeCopy{}
		if i < len(copySet.Themes) {
			copyEntry = copySet.Themes[i]
		}
		ranked := c.TopItems(themeTopItems)
		if copyEntry.Summary == "" && len(ranked) > 0 {
			copyEntry.Summary = truncate(ranked[0].Text, fallbackExcerptLen)
		}
		tickers := c.TopTickers(themeTopTickers)
		querySeed := copyEntry.Label
		if len(tickers) > 0 {
			querySeed = copyEntry.Label + " " + strings.Join(tickers, " ")
		}
		themes = append(themes, model.Theme{
			ID:        c.ID,
			Label:     copyEntry.Label,
			Summary:   copyEntry.Summary,
			Count:     len(c.Items),
			QuerySeed: querySeed,
			Tickers:   tickers,
		})
	}

	return &model.ThemesResponse{
		GeneratedAt:  now,
		WindowHours:  windowHours,
		Themes:       themes,
		DailySummary: copySet.DailySummary,
	}, nil
}

func clampWindowHours(value, fallback int) int {
	if value == 0 {
		value = fallback
	}
	if value < MinWindowHours {
		return MinWindowHours
	}
	if value > MaxWindowHours {
		return MaxWindowHours
	}
	return value
}

func clampThemeCount(value, fallback int) int {
	if value == 0 {
		value = fallback
	}
	if value < MinThemeCount {
		return MinThemeCount
	}
	if value > MaxThemeCount {
		return MaxThemeCount
	}
	return value
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseCachedPayload(raw string) *model.ThemesResponse {
	var parsed model.ThemesResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	if parsed.Themes == nil {
		return nil
	}
	return &parsed
}

func encodePayload(resp *model.ThemesResponse) (string, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseEmbedding(raw string) ([]float32, error) {
	var values []float32
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
