// Package search provides semantic, keyword and hybrid retrieval over the document store.
package search

import (
	"sort"

	"github.com/hyperjump/stockwise/internal/models"
)

// Default fusion weights. They are not tuned; override them with WithWeights or config.
const (
	DefaultSemanticWeight = 0.6
	DefaultKeywordWeight  = 0.4
)

// FusedResult holds a document ID and its fused rank scores.
type FusedResult struct {
	DocumentID    string
	Score         float64
	SemanticScore float64
	KeywordScore  float64
}

// RankNormalize maps each result to 1 - index/len, so the first result scores 1 and the
// last scores just above 0. Raw scores are ignored because cosine similarity and keyword
// counts are on different scales.
func RankNormalize(results []*models.SearchResult) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	n := float64(len(results))
	for i, r := range results {
		normalized[r.ID] = 1 - float64(i)/n
	}
	return normalized
}

// Fuse merges semantic and keyword score maps with weights. A document missing from one map
// contributes 0 for it. Results are sorted by score descending, then by ID.
func Fuse(semanticScores, keywordScores map[string]float64, semanticWeight, keywordWeight float64) []*FusedResult {
	scoreMap := make(map[string]*FusedResult)
	for id, score := range semanticScores {
		scoreMap[id] = &FusedResult{
			DocumentID:    id,
			SemanticScore: score,
		}
	}
	for id, score := range keywordScores {
		if result, exists := scoreMap[id]; exists {
			result.KeywordScore = score
		} else {
			scoreMap[id] = &FusedResult{
				DocumentID:   id,
				KeywordScore: score,
			}
		}
	}
	results := make([]*FusedResult, 0, len(scoreMap))
	for _, result := range scoreMap {
		result.Score = (semanticWeight * result.SemanticScore) + (keywordWeight * result.KeywordScore)
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	return results
}
