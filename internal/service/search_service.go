package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finboard/finboard/internal/ai"
	"github.com/finboard/finboard/internal/model"
	appErr "github.com/finboard/finboard/internal/pkg/errors"
	"github.com/finboard/finboard/internal/pkg/vecmath"
)

// ErrEmbeddingUnavailable marks a search that could not obtain a query
// vector. There is no fallback: ranking without the vector would be noise.
var ErrEmbeddingUnavailable = fmt.Errorf("query embedding unavailable")

const (
	searchCandidateLimit = 200
	searchTopChunks      = 30
	summaryContextSize   = 8
	snippetLength        = 200

	// Tunable thresholds; nothing downstream depends on these exact values.
	sentimentPositiveThreshold = 0.1
	sentimentNegativeThreshold = -0.1
)

type searchChunkStore interface {
	SelectRecent(ctx context.Context, from time.Time, tickers []string, limit int) ([]model.ChunkCandidate, error)
}

type documentStore interface {
	ListByIDs(ctx context.Context, ids []string) ([]model.Document, error)
}

type SearchService struct {
	chunks    searchChunkStore
	documents documentStore
	embedder  ai.IEmbedder
	generator ai.IGenerator
	now       func() time.Time
}

func NewSearchService(chunks searchChunkStore, documents documentStore, embedder ai.IEmbedder, generator ai.IGenerator) *SearchService {
	return &SearchService{
		chunks:    chunks,
		documents: documents,
		embedder:  embedder,
		generator: generator,
		now:       time.Now,
	}
}

type SearchInput struct {
	Query     string
	Tickers   []string
	DateRange string
}

type scoredChunk struct {
	model.ChunkCandidate
	score float64
}

// Search embeds the query, scores recent chunks by cosine similarity, and
// returns one ranked result per parent document plus a narrative summary.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*model.SearchResponse, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", appErr.ErrInvalid)
	}

	dateRange := normalizeDateRange(input.DateRange)
	from := s.now().Add(-rangeDuration(dateRange))
	tickers := normalizeTickers(input.Tickers)

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("%w: collaborator returned empty vector", ErrEmbeddingUnavailable)
	}

	candidates, err := s.chunks.SelectRecent(ctx, from, tickers, searchCandidateLimit)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredChunk, 0, len(candidates))
	for _, candidate := range candidates {
		score := float64(-1)
		if embedding, err := parseEmbedding(candidate.Embedding); err == nil {
			score = vecmath.CosineSimilarity(queryEmbedding, embedding)
		}
		if score <= 0 {
			// unparseable embeddings land here too (scored -1)
			continue
		}
		scored = append(scored, scoredChunk{ChunkCandidate: candidate, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].PublishedAt.After(scored[j].PublishedAt)
	})
	if len(scored) > searchTopChunks {
		scored = scored[:searchTopChunks]
	}

	// One result per parent document; candidates are score-sorted, so the
	// first chunk seen for a document is its best.
	best := make(map[string]scoredChunk, len(scored))
	docIDs := make([]string, 0, len(scored))
	for _, chunk := range scored {
		if _, seen := best[chunk.DocumentID]; seen {
			continue
		}
		best[chunk.DocumentID] = chunk
		docIDs = append(docIDs, chunk.DocumentID)
	}

	if len(docIDs) == 0 {
		return &model.SearchResponse{
			Summary: fmt.Sprintf("No results for %q over the last %s.", query, dateRange),
			Results: []model.SearchResult{},
		}, nil
	}

	docs, err := s.documents.ListByIDs(ctx, docIDs)
	if err != nil {
		return nil, err
	}
	docMap := make(map[string]model.Document, len(docs))
	for _, doc := range docs {
		docMap[doc.ID] = doc
	}

	results := make([]model.SearchResult, 0, len(docIDs))
	for _, docID := range docIDs {
		doc, ok := docMap[docID]
		if !ok {
			continue
		}
		chunk := best[docID]
		results = append(results, model.SearchResult{
			ID:          doc.ID,
			Title:       doc.Title,
			URL:         doc.URL,
			Source:      doc.Source,
			Tickers:     doc.Tickers,
			PublishedAt: doc.PublishedAt,
			Sentiment:   classifySentiment(chunk.Sentiment),
			Snippet:     makeSnippet(chunk.Text),
			Score:       chunk.score,
		})
	}

	summary := s.summarizeResults(ctx, query, results)
	return &model.SearchResponse{Summary: summary, Results: results}, nil
}

// summarizeResults never fails the search: any generator problem degrades to
// a templated sentence.
func (s *SearchService) summarizeResults(ctx context.Context, query string, results []model.SearchResult) string {
	fallback := fmt.Sprintf("Found %d relevant articles for %q.", len(results), query)
	if s.generator == nil || len(results) == 0 {
		return fallback
	}
	contexts := results
	if len(contexts) > summaryContextSize {
		contexts = contexts[:summaryContextSize]
	}
	var sb strings.Builder
	for i, r := range contexts {
		fmt.Fprintf(&sb, "[%d] (%s, score %.2f) %s\n%s\n\n", i+1, r.Sentiment, r.Score, r.Title, r.Snippet)
	}
	prompt := fmt.Sprintf(`You are a financial research assistant. Based on the context, summarize key themes, sentiment, risks, and catalysts for the user's query.
- Be concise (3-5 bullets). Hedge when uncertain. Mention tickers if relevant.
- Do not invent facts beyond the provided snippets.

User query: %s

Context:
%s`, query, sb.String())

	summary, err := s.generator.Generate(ctx, prompt, ai.GenerateOptions{MaxTokens: 180, Temperature: 0.3})
	if err != nil {
		logutil.GetLogger(ctx).Warn("search summary generation failed, using fallback", zap.Error(err))
		return fallback
	}
	return summary
}

func normalizeDateRange(value string) string {
	switch strings.TrimSpace(value) {
	case "7d":
		return "7d"
	case "90d":
		return "90d"
	default:
		return "30d"
	}
}

func rangeDuration(dateRange string) time.Duration {
	switch dateRange {
	case "7d":
		return 7 * 24 * time.Hour
	case "90d":
		return 90 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

func normalizeTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		normalized := strings.ToUpper(strings.TrimSpace(ticker))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func classifySentiment(score *float64) string {
	if score == nil {
		return model.SentimentNeutral
	}
	switch {
	case *score > sentimentPositiveThreshold:
		return model.SentimentPositive
	case *score < sentimentNegativeThreshold:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func makeSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "…"
}

// IsInvalidInput reports whether err should surface as a client error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, appErr.ErrInvalid)
}
