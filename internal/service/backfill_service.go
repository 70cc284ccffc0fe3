package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finboard/finboard/internal/ai"
	"github.com/finboard/finboard/internal/model"
)

type backfillChunkStore interface {
	ListPendingEmbedding(ctx context.Context, since time.Time, limit int) ([]model.DocumentChunk, error)
	UpdateEmbedding(ctx context.Context, id string, embedding string) error
}

// BackfillService replaces placeholder embeddings with real vectors in
// batches. It runs from a scheduler, not from request handlers.
type BackfillService struct {
	chunks     backfillChunkStore
	embedder   ai.IEmbedder
	batchSize  int
	maxBatches int
	sinceHours int
	now        func() time.Time
}

func NewBackfillService(chunks backfillChunkStore, embedder ai.IEmbedder, batchSize, maxBatches, sinceHours int) *BackfillService {
	return &BackfillService{
		chunks:     chunks,
		embedder:   embedder,
		batchSize:  batchSize,
		maxBatches: maxBatches,
		sinceHours: sinceHours,
		now:        time.Now,
	}
}

// Run embeds pending chunks until the batch budget is exhausted or no work
// remains, returning the number of chunks updated.
func (s *BackfillService) Run(ctx context.Context) (int, error) {
	logger := logutil.GetLogger(ctx)
	since := s.now().Add(-time.Duration(s.sinceHours) * time.Hour)
	updated := 0
	for batch := 0; batch < s.maxBatches; batch++ {
		chunks, err := s.chunks.ListPendingEmbedding(ctx, since, s.batchSize)
		if err != nil {
			return updated, err
		}
		if len(chunks) == 0 {
			break
		}
		texts := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			texts = append(texts, chunk.Text)
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return updated, err
		}
		for i, chunk := range chunks {
			blob, err := json.Marshal(vectors[i])
			if err != nil {
				return updated, err
			}
			if err := s.chunks.UpdateEmbedding(ctx, chunk.ID, string(blob)); err != nil {
				return updated, err
			}
			updated++
		}
		logger.Debug("embedding backfill batch done", zap.Int("batch", batch), zap.Int("size", len(chunks)))
	}
	return updated, nil
}
