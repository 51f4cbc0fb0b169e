package search

import (
	"strings"

	"github.com/hyperjump/stockwise/internal/config"
	"github.com/hyperjump/stockwise/internal/models"
)

// ProcessQuery collapses whitespace, validates and applies configured limits.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	query.Query = strings.Join(strings.Fields(query.Query), " ")
	if cfg != nil && query.Limit <= 0 && cfg.DefaultLimit > 0 {
		query.Limit = cfg.DefaultLimit
	}
	if err := query.Validate(); err != nil {
		return err
	}
	if cfg != nil && cfg.MaxLimit > 0 && query.Limit > cfg.MaxLimit {
		query.Limit = cfg.MaxLimit
	}
	return nil
}
