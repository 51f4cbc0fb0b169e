// Package cli provides output helpers for the stockwise command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/stockwise/internal/models"
	"github.com/hyperjump/stockwise/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json" (case-insensitive).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results for %q in %dms (%s)\n\n",
		response.Total, response.Query, response.QueryTime, response.Mode)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
	return nil
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f (Semantic: %.4f, Keyword: %.4f)\n",
		result.Rank, result.Score, result.SemanticScore, result.KeywordScore)
	fmt.Fprintf(w, "ID: %s\n", result.ID)
	if result.Metadata != nil {
		if name := result.Metadata.Name(); name != "" {
			fmt.Fprintf(w, "Name: %s (%s)\n", name, result.Metadata.Kind())
		}
	}
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(result.Content, 300))
}

// WriteContext writes the retrieved context block.
func WriteContext(w io.Writer, query, text string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]string{"query": query, "context": text})
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

// WriteAnalytics writes an analytics record.
func WriteAnalytics(w io.Writer, a *models.CachedAnalytics, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, a)
	}
	fmt.Fprintf(w, "Stock health:      %s (score %.1f)\n", a.StockHealth, a.HealthScore)
	fmt.Fprintf(w, "Products:          %d (%d units, value %.2f)\n", a.TotalProducts, a.TotalStockUnits, a.TotalInventoryValue)
	fmt.Fprintf(w, "Low / out of stock: %d / %d\n", a.LowStockCount, a.OutOfStockCount)
	fmt.Fprintf(w, "Average price:     %.2f\n", a.AveragePrice)
	fmt.Fprintf(w, "Average margin:    %.1f%%\n", a.AverageMargin)
	fmt.Fprintf(w, "Suppliers:         %d\n", a.SupplierCount)
	fmt.Fprintf(w, "Revenue:           %.2f over %d transactions\n", a.TotalRevenue, a.TransactionCount)
	writeSummaries(w, "Top products", a.TopProducts)
	writeSummaries(w, "High margin", a.HighMarginProducts)
	writeSummaries(w, "Reorder", a.ReorderSuggestions)
	fmt.Fprintf(w, "Computed at:       %s\n", a.ComputedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func writeSummaries(w io.Writer, title string, items []models.ProductSummary) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, p := range items {
		fmt.Fprintf(w, "  - %s: %d units, margin %.1f%%\n", p.Name, p.Quantity, p.MarginPercent)
	}
}

// Status describes the engine state for the status command.
type Status struct {
	Version   string `json:"version"`
	State     string `json:"state"`
	Documents int    `json:"documents"`
	Stamp     string `json:"stamp"`
	Remote    bool   `json:"remote_embeddings"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
}

// WriteStatus writes engine status to w.
func WriteStatus(w io.Writer, s Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	embeddings := "local"
	if s.Remote {
		embeddings = "remote"
	}
	fmt.Fprintf(w, "stockwise %s\n", s.Version)
	fmt.Fprintf(w, "Vector store: %s, %d documents\n", s.State, s.Documents)
	fmt.Fprintf(w, "Schema:       %s\n", s.Stamp)
	fmt.Fprintf(w, "Embeddings:   %s\n", embeddings)
	fmt.Fprintf(w, "Database:     %s\n", s.Database)
	fmt.Fprintf(w, "Cache:        %s\n", s.Cache)
	return nil
}
