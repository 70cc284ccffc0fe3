package model

import "time"

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SearchResult is one ranked hit, collapsed to the best-scoring chunk of its
// parent document.
type SearchResult struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Tickers     []string  `json:"tickers"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment"`
	Snippet     string    `json:"snippet"`
	Score       float64   `json:"score"`
}

type SearchResponse struct {
	Summary string         `json:"summary"`
	Results []SearchResult `json:"results"`
}
