package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/ragdag/internal/config"
	"github.com/hyperjump/ragdag/internal/embedding"
	"github.com/hyperjump/ragdag/internal/keyword"
	"github.com/hyperjump/ragdag/internal/models"
	"github.com/hyperjump/ragdag/internal/vector"
)

// candidateFactor over-fetches each leg so fusion has enough overlap to
// work with before the final topK cut.
const candidateFactor = 3

// Engine runs keyword, vector, and hybrid search over a flat-file store.
type Engine struct {
	storeDir     string
	embedder     embedding.Embedder
	keywordIndex keyword.Index
	config       *config.SearchConfig
	logger       *zap.Logger
}

// NewEngine creates a search engine over the store at storeDir.
func NewEngine(
	storeDir string,
	embedder embedding.Embedder,
	keywordIndex keyword.Index,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		storeDir:     storeDir,
		embedder:     embedder,
		keywordIndex: keywordIndex,
		config:       cfg,
		logger:       logger,
	}
}

// Search validates the query, runs it in the requested mode, and returns
// ranked, content-hydrated results.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) ([]models.SearchResult, error) {
	if query.Mode == "" {
		query.Mode = e.config.DefaultMode
	}
	if query.TopK <= 0 {
		query.TopK = e.config.TopK
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if query.KeywordWeight == 0 && query.VectorWeight == 0 {
		query.KeywordWeight = e.config.KeywordWeight
		query.VectorWeight = e.config.VectorWeight
	}

	switch query.Mode {
	case models.ModeKeyword:
		return e.searchKeyword(ctx, query)
	case models.ModeVector:
		return e.searchVector(ctx, query)
	default:
		return e.searchHybrid(ctx, query)
	}
}

func (e *Engine) searchKeyword(ctx context.Context, query *models.SearchQuery) ([]models.SearchResult, error) {
	hits, err := e.keywordIndex.Search(ctx, query.Query, query.Domain, query.TopK)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	results := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, e.hydrate(h.Path, h.Score))
	}
	return results, nil
}

func (e *Engine) searchVector(ctx context.Context, query *models.SearchQuery) ([]models.SearchResult, error) {
	if !embedding.Enabled(e.embedder) {
		return nil, embedding.ErrNoProvider
	}
	queryVec, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	hits, err := vector.SearchStore(e.storeDir, queryVec, vector.SearchOptions{
		Domain: query.Domain,
		TopK:   query.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	results := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, e.hydrate(h.Path, h.Score))
	}
	return results, nil
}

// searchHybrid runs both legs, fuses their normalized scores, and falls
// back to keyword-only when no embedding provider is available or the
// vector leg fails.
func (e *Engine) searchHybrid(ctx context.Context, query *models.SearchQuery) ([]models.SearchResult, error) {
	fetchK := query.TopK * candidateFactor

	keywordHits, err := e.keywordIndex.Search(ctx, query.Query, query.Domain, fetchK)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	if !embedding.Enabled(e.embedder) {
		if len(keywordHits) > query.TopK {
			keywordHits = keywordHits[:query.TopK]
		}
		results := make([]models.SearchResult, 0, len(keywordHits))
		for _, h := range keywordHits {
			results = append(results, e.hydrate(h.Path, h.Score))
		}
		return results, nil
	}

	vectorHits, err := e.vectorLeg(ctx, query, keywordHits, fetchK)
	if err != nil {
		e.logger.Warn("vector leg failed, falling back to keyword-only",
			zap.String("query", query.Query),
			zap.Error(err))
		vectorHits = nil
	}

	keywordScores := NormalizeKeywordScores(keywordHits)
	semanticScores := NormalizeSemanticScores(vectorHits)
	fused := Fuse(keywordScores, semanticScores, query.KeywordWeight, query.VectorWeight, query.TopK)

	results := make([]models.SearchResult, 0, len(fused))
	for _, f := range fused {
		results = append(results, e.hydrate(f.Path, f.Score))
	}
	return results, nil
}

// vectorLeg embeds the query and scans the store. Keyword hits become a
// hard candidate filter so the vector leg reranks the lexical matches;
// with no keyword hits the whole store is scanned.
func (e *Engine) vectorLeg(ctx context.Context, query *models.SearchQuery, keywordHits []keyword.Result, fetchK int) ([]vector.Result, error) {
	queryVec, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	var candidates []string
	if len(keywordHits) > 0 {
		candidates = make([]string, len(keywordHits))
		for i, h := range keywordHits {
			candidates[i] = h.Path
		}
	}
	return vector.SearchStore(e.storeDir, queryVec, vector.SearchOptions{
		Domain:         query.Domain,
		TopK:           fetchK,
		CandidatePaths: candidates,
	})
}

// hydrate attaches chunk content and domain to a scored path. A missing
// or unreadable chunk file leaves Content empty; the score still stands.
func (e *Engine) hydrate(path string, score float64) models.SearchResult {
	result := models.SearchResult{Path: path, Score: score}
	parts := strings.Split(path, "/")
	if len(parts) >= 3 {
		result.Domain = parts[0]
	}
	raw, err := os.ReadFile(filepath.Join(e.storeDir, filepath.FromSlash(path)))
	if err == nil {
		result.Content = string(raw)
	}
	return result
}
