package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/stockwise/internal/models"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:     "low stock",
		QueryTime: 3,
		Mode:      models.SearchModeHybrid,
		Total:     1,
		Results: []*models.SearchResult{
			{
				ID:       "product_1",
				Content:  "Product: Sugar\nStock status: low stock",
				Score:    1,
				Rank:     1,
				Metadata: models.ProductMeta{ProductID: "1", ProductName: "Sugar"},
			},
		},
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded["query"] != "low stock" {
		t.Errorf("query = %v", decoded["query"])
	}
	results := decoded["results"].([]interface{})
	meta := results[0].(map[string]interface{})["metadata"].(map[string]interface{})
	if meta["name"] != "Sugar" {
		t.Errorf("metadata name = %v", meta["name"])
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Found 1 results", "ID: product_1", "Name: Sugar (product)", "low stock"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteAnalytics(t *testing.T) {
	a := &models.CachedAnalytics{
		TotalProducts:      3,
		StockHealth:        models.StockHealthNeedsAttention,
		ReorderSuggestions: []models.ProductSummary{{Name: "Salt", Quantity: 0}},
		ComputedAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	var buf bytes.Buffer
	if err := WriteAnalytics(&buf, a, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Needs Attention") || !strings.Contains(out, "Reorder:") || !strings.Contains(out, "2026-01-02 03:04:05") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Top products") {
		t.Error("empty sections should be omitted")
	}

	buf.Reset()
	if err := WriteAnalytics(&buf, a, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"stock_health": "Needs Attention"`) {
		t.Errorf("unexpected json:\n%s", buf.String())
	}
}

func TestWriteContext(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteContext(&buf, "q", "1. [0.90] Product: Sugar", OutputText)
	if buf.String() != "1. [0.90] Product: Sugar\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"TEXT", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteStatus(t *testing.T) {
	s := Status{Version: "dev", State: "ready", Documents: 4, Stamp: "2/3/local:hash-v1:128"}

	var text bytes.Buffer
	if err := WriteStatus(&text, s, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "ready, 4 documents") || !strings.Contains(text.String(), "Embeddings:   local") {
		t.Errorf("unexpected text:\n%s", text.String())
	}

	var js bytes.Buffer
	if err := WriteStatus(&js, s, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var got Status
	if err := json.Unmarshal(js.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Errorf("got %+v, want %+v", got, s)
	}
}
