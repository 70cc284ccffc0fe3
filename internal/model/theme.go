package model

import "time"

type Theme struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Summary   string   `json:"summary"`
	Count     int      `json:"count"`
	QuerySeed string   `json:"querySeed"`
	Tickers   []string `json:"tickers,omitempty"`
}

type ThemesResponse struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	WindowHours  int       `json:"windowHours"`
	Themes       []Theme   `json:"themes"`
	DailySummary string    `json:"dailySummary,omitempty"`
}

// ThemeCacheEntry memoizes a full day's theme computation. The three-part key
// has upsert semantics: recomputation overwrites the row in place.
type ThemeCacheEntry struct {
	CacheDate   time.Time `json:"cache_date"`
	WindowHours int       `json:"window_hours"`
	ThemeCount  int       `json:"theme_count"`
	Payload     string    `json:"payload"`
	GeneratedAt time.Time `json:"generated_at"`
}
