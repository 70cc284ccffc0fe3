package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finboard/finboard/internal/service"
)

type EmbeddingBackfillJob struct {
	backfill *service.BackfillService
}

func NewEmbeddingBackfillJob(backfill *service.BackfillService) *EmbeddingBackfillJob {
	return &EmbeddingBackfillJob{backfill: backfill}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.backfill == nil {
		return nil
	}
	updated, err := j.backfill.Run(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("embedding backfill completed", zap.Int("updated", updated))
	return nil
}
