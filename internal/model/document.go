package model

import "time"

type Document struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Tickers     []string  `json:"tickers"`
	PublishedAt time.Time `json:"published_at"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// DocumentChunk is the unit embeddings are computed over. Embedding is kept
// as the raw stored JSON blob; an all-zero vector is the ingestion placeholder
// for "not yet embedded" and must never be scored as a real match.
type DocumentChunk struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	ChunkIndex  int       `json:"chunk_index"`
	Text        string    `json:"text"`
	Embedding   string    `json:"embedding"`
	Sentiment   *float64  `json:"sentiment"`
	PublishedAt time.Time `json:"published_at"`
}

// ChunkCandidate is a chunk row joined with its parent document metadata,
// as returned by the time-windowed candidate selection query.
type ChunkCandidate struct {
	ID          string
	DocumentID  string
	Text        string
	Embedding   string
	Sentiment   *float64
	PublishedAt time.Time
	Title       string
	Tickers     []string
}
