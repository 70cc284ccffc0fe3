package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/finboard/finboard/internal/model"
)

// PlaceholderEmbedding is written by ingestion for chunks whose embedding has
// not been computed yet. The backfill job replaces it with the real vector.
const PlaceholderEmbedding = "[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]"

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// SelectRecent returns up to limit chunks published after from, newest first,
// joined with parent document metadata. An empty ticker filter matches all
// documents; otherwise documents must share at least one ticker.
func (r *ChunkRepo) SelectRecent(ctx context.Context, from time.Time, tickers []string, limit int) ([]model.ChunkCandidate, error) {
	const base = `
		SELECT c.id, c.document_id, c.text, c.embedding, c.sentiment, c.published_at, d.title, d.tickers
		FROM document_chunks c
		INNER JOIN documents d ON c.document_id = d.id
		WHERE c.published_at >= $1
	`
	query := base + ` ORDER BY c.published_at DESC LIMIT $2`
	args := []interface{}{from, limit}
	if len(tickers) > 0 {
		query = base + ` AND d.tickers && $2 ORDER BY c.published_at DESC LIMIT $3`
		args = []interface{}{from, pq.Array(tickers), limit}
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var candidates []model.ChunkCandidate
	for rows.Next() {
		var item model.ChunkCandidate
		var sentiment sql.NullFloat64
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.Text, &item.Embedding, &sentiment, &item.PublishedAt, &item.Title, pq.Array(&item.Tickers)); err != nil {
			return nil, err
		}
		if sentiment.Valid {
			value := sentiment.Float64
			item.Sentiment = &value
		}
		candidates = append(candidates, item)
	}
	return candidates, rows.Err()
}

// ListPendingEmbedding returns chunks still carrying the ingestion placeholder
// (or an empty blob) published after since.
func (r *ChunkRepo) ListPendingEmbedding(ctx context.Context, since time.Time, limit int) ([]model.DocumentChunk, error) {
	const query = `
		SELECT id, document_id, chunk_index, text, embedding, sentiment, published_at
		FROM document_chunks
		WHERE published_at >= $1 AND (embedding = $2 OR embedding = '')
		ORDER BY published_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, since, PlaceholderEmbedding, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []model.DocumentChunk
	for rows.Next() {
		var chunk model.DocumentChunk
		var sentiment sql.NullFloat64
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Text, &chunk.Embedding, &sentiment, &chunk.PublishedAt); err != nil {
			return nil, err
		}
		if sentiment.Valid {
			value := sentiment.Float64
			chunk.Sentiment = &value
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) UpdateEmbedding(ctx context.Context, id string, embedding string) error {
	const query = `UPDATE document_chunks SET embedding = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, embedding, id)
	return err
}

func (r *ChunkRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&total)
	return total, err
}

func (r *ChunkRepo) CountPendingEmbedding(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM document_chunks WHERE embedding = $1 OR embedding = ''`
	var total int64
	err := r.db.QueryRowContext(ctx, query, PlaceholderEmbedding).Scan(&total)
	return total, err
}
