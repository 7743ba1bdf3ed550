package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/ragdag/internal/graph"
	"github.com/hyperjump/ragdag/internal/llm"
	"github.com/hyperjump/ragdag/internal/models"
)

const (
	// askTopK is how many chunks the retrieval pass pulls before expansion.
	askTopK = 10
	// expandPerChunk caps how many graph neighbors each retrieved chunk
	// can pull into the context.
	expandPerChunk = 5
	// expandDecay discounts a neighbor's score relative to the chunk that
	// pulled it in.
	expandDecay = 0.8
	// tokensPerWord is the rough word-to-token ratio used to budget context.
	tokensPerWord = 1.3
)

// Asker answers questions by hybrid retrieval, graph expansion, and an
// optional LLM pass over the assembled context.
type Asker struct {
	engine     *Engine
	graph      *graph.Graph
	provider   llm.Provider
	maxContext int // approximate token budget
	logger     *zap.Logger
}

// NewAsker wires an Asker over an engine and the store's edge graph.
func NewAsker(engine *Engine, g *graph.Graph, provider llm.Provider, maxContext int, logger *zap.Logger) *Asker {
	if maxContext <= 0 {
		maxContext = 8000
	}
	return &Asker{
		engine:     engine,
		graph:      g,
		provider:   provider,
		maxContext: maxContext,
		logger:     logger,
	}
}

// Ask retrieves context for question and, when an LLM provider is
// configured, generates an answer over it. Without a provider the answer
// is nil and the caller still gets the context and sources.
func (a *Asker) Ask(ctx context.Context, question, domain string) (*models.AskResult, error) {
	retrieved, err := a.engine.Search(ctx, &models.SearchQuery{
		Query:  question,
		Mode:   models.ModeHybrid,
		Domain: domain,
		TopK:   askTopK,
	})
	if err != nil {
		return nil, err
	}

	expanded, err := a.expand(retrieved)
	if err != nil {
		a.logger.Warn("graph expansion failed, answering from retrieval only", zap.Error(err))
		expanded = retrieved
	}

	contextText, sources := a.assembleContext(expanded)
	result := &models.AskResult{Context: contextText, Sources: sources}

	if llm.Enabled(a.provider) && contextText != "" {
		answer, err := a.provider.Answer(ctx, question, contextText)
		if err != nil {
			return nil, fmt.Errorf("answer generation failed: %w", err)
		}
		result.Answer = &answer
	}
	return result, nil
}

// expand pulls each retrieved chunk's outgoing related_to and references
// neighbors into the result set at a decayed score. Chunks already
// retrieved keep their original score.
func (a *Asker) expand(retrieved []models.SearchResult) ([]models.SearchResult, error) {
	edges, err := a.graph.Load()
	if err != nil {
		return nil, err
	}
	outgoing := make(map[string][]graph.Edge)
	for _, e := range edges {
		if e.Type == graph.EdgeRelatedTo || e.Type == graph.EdgeReferences {
			outgoing[e.Source] = append(outgoing[e.Source], e)
		}
	}

	seen := make(map[string]bool, len(retrieved))
	for _, r := range retrieved {
		seen[r.Path] = true
	}

	expanded := retrieved
	for _, r := range retrieved {
		added := 0
		for _, e := range outgoing[r.Path] {
			if added >= expandPerChunk {
				break
			}
			if seen[e.Target] {
				continue
			}
			seen[e.Target] = true
			added++
			expanded = append(expanded, a.engine.hydrate(e.Target, r.Score*expandDecay))
		}
	}
	return expanded, nil
}

// assembleContext orders chunks by score and concatenates source-labelled
// blocks until the token budget runs out. Chunks with no readable content
// are skipped.
func (a *Asker) assembleContext(results []models.SearchResult) (string, []string) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	var (
		blocks  []string
		sources []string
		budget  = float64(a.maxContext)
	)
	for _, r := range results {
		if r.Content == "" {
			continue
		}
		block := fmt.Sprintf("--- Source: %s (score: %.4f) ---\n%s", r.Path, r.Score, r.Content)
		cost := float64(len(strings.Fields(block))) * tokensPerWord
		if cost > budget {
			break
		}
		budget -= cost
		blocks = append(blocks, block)
		sources = append(sources, r.Path)
	}
	return strings.Join(blocks, "\n\n"), sources
}
