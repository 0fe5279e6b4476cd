// Package reconcile matches externally sourced photographs and bibliographic
// records against the catalog and writes approved matches back.
package reconcile

import (
	"bookshop/internal/catalog"
)

type Disposition string

const (
	Matched     Disposition = "MATCHED"
	Unmatched   Disposition = "UNMATCHED"
	QueryFailed Disposition = "QUERY_FAILED"
	// Cancelled marks a unit that was never dispatched because the batch was cancelled.
	Cancelled Disposition = "CANCELLED"
)

const (
	ReasonNoIdentifier = "no recognizable identifier"
	ReasonNoRecord     = "no catalog record"
	ReasonNoTarget     = "no target record"
	ReasonCancelled    = "batch cancelled before lookup"
)

// UnitKind tells asset results from query results.
type UnitKind string

const (
	UnitAsset UnitKind = "asset"
	UnitQuery UnitKind = "query"
)

// Asset is one file returned by the bulk listing.
type Asset struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Query is one operator supplied ISBN. Target optionally names the catalog
// code the metadata is meant for.
type Query struct {
	ISBN   string `json:"isbn"`
	Target string `json:"target,omitempty"`
}

// Metadata is a bibliographic record returned by a lookup service. It
// carries no catalog code.
type Metadata struct {
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedYear int    `json:"published_year,omitempty"`
	PageCount     int    `json:"page_count,omitempty"`
	Description   string `json:"description,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	Source        string `json:"source,omitempty"`
}

// Outcome is the result of resolving one query: Metadata on success, Err otherwise.
type Outcome struct {
	Query    Query
	Metadata *Metadata
	Err      error
}

// MatchResult joins one unit with at most one catalog record. It is pure
// data; producing it never touches the catalog.
type MatchResult struct {
	Unit           UnitKind        `json:"unit" validate:"required,oneof=asset query"`
	Input          string          `json:"input"`
	Code           string          `json:"code,omitempty" validate:"required_if=Disposition MATCHED"`
	Kind           catalog.Kind    `json:"kind,omitempty" validate:"omitempty,oneof=book item"`
	Disposition    Disposition     `json:"disposition" validate:"required,oneof=MATCHED UNMATCHED QUERY_FAILED CANCELLED"`
	Reason         string          `json:"reason,omitempty"`
	WouldOverwrite bool            `json:"would_overwrite"`
	Asset          *Asset          `json:"asset,omitempty"`
	Metadata       *Metadata       `json:"metadata,omitempty"`
	Record         *catalog.Record `json:"record,omitempty"`
}

// Patch is the catalog update a Matched result stands for.
func (m MatchResult) Patch() catalog.Patch {
	switch m.Unit {
	case UnitAsset:
		if m.Asset == nil {
			return catalog.Patch{}
		}
		url := m.Asset.URL
		return catalog.Patch{ImageURL: &url}
	case UnitQuery:
		if m.Metadata == nil {
			return catalog.Patch{}
		}
		return metadataPatch(*m.Metadata, m.Kind)
	}
	return catalog.Patch{}
}

// metadataPatch only sets fields the lookup actually returned, so a sparse
// answer never blanks catalog data. The title stays under catalog control.
func metadataPatch(md Metadata, kind catalog.Kind) catalog.Patch {
	var p catalog.Patch
	str := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	num := func(v int) *int {
		if v == 0 {
			return nil
		}
		return &v
	}

	p.Description = str(md.Description)
	p.ImageURL = str(md.CoverURL)
	if kind == catalog.KindItem {
		return p
	}
	p.ISBN = str(md.ISBN)
	p.Author = str(md.Author)
	p.Publisher = str(md.Publisher)
	p.PublishedYear = num(md.PublishedYear)
	p.PageCount = num(md.PageCount)
	return p
}
