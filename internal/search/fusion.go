// Package search provides hybrid search (keyword + vector) and result fusion.
package search

import (
	"sort"

	"github.com/hyperjump/ragdag/internal/keyword"
	"github.com/hyperjump/ragdag/internal/vector"
)

// FusedResult holds a chunk path and its fused keyword/semantic scores.
type FusedResult struct {
	Path          string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// normFloor guards the max-normalization against all-zero score lists.
const normFloor = 1e-10

// NormalizeKeywordScores normalizes keyword scores to [0,1] by their max.
func NormalizeKeywordScores(results []keyword.Result) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > normFloor {
			normalized[r.Path] = r.Score / maxScore
		} else {
			normalized[r.Path] = 0
		}
	}
	return normalized
}

// NormalizeSemanticScores normalizes vector scores to [0,1] by their max.
// Cosine scores are already bounded, but scaling the best hit to 1 keeps
// both legs on the same footing before weighting.
func NormalizeSemanticScores(results []vector.Result) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > normFloor {
			normalized[r.Path] = r.Score / maxScore
		} else {
			normalized[r.Path] = 0
		}
	}
	return normalized
}

// Fuse merges keyword and semantic score maps over the union of their
// paths. A path missing from one leg contributes zero there; weights are
// applied as given, without renormalizing. Results come back sorted by
// fused score descending with lexicographic path order breaking ties, and
// truncated to topK when topK > 0.
func Fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64, topK int) []FusedResult {
	paths := make([]string, 0, len(keywordScores)+len(semanticScores))
	for p := range keywordScores {
		paths = append(paths, p)
	}
	for p := range semanticScores {
		if _, seen := keywordScores[p]; !seen {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	results := make([]FusedResult, 0, len(paths))
	for _, p := range paths {
		ks := keywordScores[p]
		ss := semanticScores[p]
		results = append(results, FusedResult{
			Path:          p,
			Score:         keywordWeight*ks + semanticWeight*ss,
			KeywordScore:  ks,
			SemanticScore: ss,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
