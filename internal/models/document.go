// Package models defines core data structures for business entities, corpus documents,
// search queries and results, and cached analytics.
package models

import (
	"encoding/json"
	"fmt"
)

// DocumentKind discriminates the metadata variant attached to a Document.
type DocumentKind string

const (
	KindProduct  DocumentKind = "product"
	KindSale     DocumentKind = "sale"
	KindSupplier DocumentKind = "supplier"
)

// Metadata is a closed set of per-kind document metadata. The only implementations are
// ProductMeta, SaleMeta and SupplierMeta.
type Metadata interface {
	Kind() DocumentKind
	// Name is the title used for keyword boosting; empty when the kind has no name.
	Name() string
	Category() string
	isMetadata()
}

// ProductMeta is attached to documents rendered from a product.
type ProductMeta struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"name"`
	ProductGroup string `json:"category"`
}

func (ProductMeta) Kind() DocumentKind { return KindProduct }
func (m ProductMeta) Name() string { return m.ProductName }
func (m ProductMeta) Category() string { return m.ProductGroup }
func (ProductMeta) isMetadata() {}

// SaleMeta is attached to the sales summary document.
type SaleMeta struct {
	SaleCategory string `json:"category"`
}

func (SaleMeta) Kind() DocumentKind { return KindSale }
func (SaleMeta) Name() string { return "" }
func (m SaleMeta) Category() string { return m.SaleCategory }
func (SaleMeta) isMetadata() {}

// SupplierMeta is attached to documents rendered from a supplier.
type SupplierMeta struct {
	SupplierID    string `json:"supplierId"`
	SupplierName  string `json:"name"`
	SupplierGroup string `json:"category"`
}

func (SupplierMeta) Kind() DocumentKind { return KindSupplier }
func (m SupplierMeta) Name() string { return m.SupplierName }
func (m SupplierMeta) Category() string { return m.SupplierGroup }
func (SupplierMeta) isMetadata() {}

// Document is one retrievable unit of the corpus.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  Metadata
}

type documentJSON struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Embedding []float32       `json:"embedding"`
	Kind      DocumentKind    `json:"kind"`
	Metadata  json.RawMessage `json:"metadata"`
}

// MarshalJSON writes the metadata variant together with its kind tag.
func (d Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{ID: d.ID, Content: d.Content, Embedding: d.Embedding}
	if d.Metadata != nil {
		raw, err := json.Marshal(d.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		out.Kind = d.Metadata.Kind()
		out.Metadata = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the metadata variant named by the kind tag.
func (d *Document) UnmarshalJSON(data []byte) error {
	var in documentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.ID = in.ID
	d.Content = in.Content
	d.Embedding = in.Embedding
	d.Metadata = nil
	if in.Kind == "" {
		return nil
	}
	meta, err := decodeMetadata(in.Kind, in.Metadata)
	if err != nil {
		return err
	}
	d.Metadata = meta
	return nil
}

func decodeMetadata(kind DocumentKind, raw json.RawMessage) (Metadata, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch kind {
	case KindProduct:
		var m ProductMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal product metadata: %w", err)
		}
		return m, nil
	case KindSale:
		var m SaleMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sale metadata: %w", err)
		}
		return m, nil
	case KindSupplier:
		var m SupplierMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal supplier metadata: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown document kind: %q", kind)
	}
}
