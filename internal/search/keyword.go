package search

import (
	"strings"

	"github.com/hyperjump/stockwise/internal/models"
	"github.com/hyperjump/stockwise/pkg/utils"
)

// Keyword scoring weights.
const (
	ExactPhraseBonus = 10
	KeywordHitScore  = 2
	TitleBonus       = 5
	minKeywordLength = 3
)

type keywordMatcher struct {
	phrase   string
	keywords []string
}

func newKeywordMatcher(query string) *keywordMatcher {
	m := &keywordMatcher{phrase: strings.ToLower(strings.TrimSpace(query))}
	seen := make(map[string]bool)
	for _, tok := range utils.Words(m.phrase) {
		if len([]rune(tok)) < minKeywordLength || seen[tok] {
			continue
		}
		seen[tok] = true
		m.keywords = append(m.keywords, tok)
	}
	return m
}

// score returns the additive keyword score of doc. Keyword hits are counted on word
// boundaries, so "stock" does not match "stockist".
func (m *keywordMatcher) score(doc models.Document) float64 {
	if m.phrase == "" {
		return 0
	}
	content := strings.ToLower(doc.Content)
	var score float64
	if strings.Contains(content, m.phrase) {
		score += ExactPhraseBonus
	}
	if len(m.keywords) > 0 {
		counts := make(map[string]int)
		for _, w := range utils.Words(content) {
			counts[w]++
		}
		for _, kw := range m.keywords {
			score += float64(KeywordHitScore * counts[kw])
		}
	}
	if doc.Metadata != nil {
		if name := strings.ToLower(doc.Metadata.Name()); name != "" {
			for _, kw := range m.keywords {
				if strings.Contains(name, kw) {
					score += TitleBonus
				}
			}
		}
	}
	return score
}

// KeywordScore scores a single document against query.
func KeywordScore(query string, doc models.Document) float64 {
	return newKeywordMatcher(query).score(doc)
}
