package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finboard/finboard/internal/ai"
	"github.com/finboard/finboard/internal/model"
	"github.com/finboard/finboard/internal/repo"
)

// WrapDBCacheToEmbedder persists embeddings in the database behind the LRU
// layer, keyed by model and content hash, so restarts keep their cache warm.
func WrapDBCacheToEmbedder(e ai.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next ai.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	_, contentHash, modelName := buildCacheKey(d.next.ModelName(), text)
	values, ok, err := d.repo.Get(ctx, modelName, contentHash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache read failed", zap.Error(err))
	} else if ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)")
		return values, nil
	}
	res, err := d.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	d.save(ctx, modelName, contentHash, res)
	return res, nil
}

func (d *dbEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	// Batch calls come from the backfill job whose inputs rarely repeat, so
	// they bypass the lookup and only populate the cache.
	vectors, err := d.next.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, vector := range vectors {
		_, contentHash, modelName := buildCacheKey(d.next.ModelName(), texts[i])
		d.save(ctx, modelName, contentHash, vector)
	}
	return vectors, nil
}

func (d *dbEmbedder) save(ctx context.Context, modelName, contentHash string, values []float32) {
	if err := d.repo.Save(ctx, &model.EmbeddingCache{
		ModelName:   modelName,
		ContentHash: contentHash,
		Embedding:   values,
		Ctime:       time.Now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
	}
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}

func buildCacheKey(modelName, text string) (string, string, string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	contentHash := hex.EncodeToString(hash[:])
	return "embed:" + modelName + ":" + contentHash, contentHash, modelName
}
