package service

import (
	"context"

	"github.com/finboard/finboard/internal/model"
)

type documentCounter interface {
	Count(ctx context.Context) (int64, error)
}

type chunkCounter interface {
	Count(ctx context.Context) (int64, error)
	CountPendingEmbedding(ctx context.Context) (int64, error)
}

type StatsService struct {
	documents documentCounter
	chunks    chunkCounter
}

func NewStatsService(documents documentCounter, chunks chunkCounter) *StatsService {
	return &StatsService{documents: documents, chunks: chunks}
}

func (s *StatsService) CorpusStats(ctx context.Context) (*model.CorpusStats, error) {
	docs, err := s.documents.Count(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunks.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.chunks.CountPendingEmbedding(ctx)
	if err != nil {
		return nil, err
	}
	return &model.CorpusStats{
		Documents:         docs,
		Chunks:            chunks,
		PendingEmbeddings: pending,
	}, nil
}
