package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no record carries the requested code.
	ErrNotFound = errors.New("catalog record not found")
	// ErrUnknownKind is returned for kinds other than book and item.
	ErrUnknownKind = errors.New("unknown catalog kind")
	// ErrUnsupportedField is returned when a patch sets a field the kind does not have.
	ErrUnsupportedField = errors.New("field not supported for kind")
)

// Kind selects one of the two disjoint catalog collections.
type Kind string

const (
	KindBook Kind = "book"
	KindItem Kind = "item"
)

// Kinds lists the collections in lookup order.
var Kinds = []Kind{KindBook, KindItem}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "book", "books":
		return KindBook, nil
	case "item", "items", "other", "other-items":
		return KindItem, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Record is one book or one miscellaneous item. Code is unique within its kind.
type Record struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Kind          Kind      `json:"kind"`
	Title         string    `json:"title"`
	ImageURL      string    `json:"image_url,omitempty"`
	ISBN          string    `json:"isbn,omitempty"`
	Author        string    `json:"author,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	PublishedYear int       `json:"published_year,omitempty"`
	PageCount     int       `json:"page_count,omitempty"`
	Category      string    `json:"category,omitempty"`
	Description   string    `json:"description,omitempty"`
	PriceCents    int64     `json:"price_cents"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasImage reports whether an image is already attached.
func (r Record) HasImage() bool {
	return strings.TrimSpace(r.ImageURL) != ""
}

// HasMetadata reports whether bibliographic fields were already filled in.
func (r Record) HasMetadata() bool {
	return r.ISBN != "" || r.Author != "" || r.Publisher != "" || r.Description != "" ||
		r.PublishedYear != 0 || r.PageCount != 0
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	ImageURL      *string `json:"image_url,omitempty"`
	ISBN          *string `json:"isbn,omitempty"`
	Author        *string `json:"author,omitempty"`
	Publisher     *string `json:"publisher,omitempty"`
	PublishedYear *int    `json:"published_year,omitempty"`
	PageCount     *int    `json:"page_count,omitempty"`
	Description   *string `json:"description,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.ImageURL == nil && p.ISBN == nil && p.Author == nil && p.Publisher == nil &&
		p.PublishedYear == nil && p.PageCount == nil && p.Description == nil
}

// Validate rejects book-only fields on items.
func (p Patch) Validate(kind Kind) error {
	switch kind {
	case KindBook:
		return nil
	case KindItem:
		if p.ISBN != nil || p.Author != nil || p.Publisher != nil || p.PublishedYear != nil || p.PageCount != nil {
			return fmt.Errorf("%w: %s accepts only image_url and description", ErrUnsupportedField, kind)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Apply returns r with the patch applied.
func (p Patch) Apply(r Record) Record {
	if p.ImageURL != nil {
		r.ImageURL = *p.ImageURL
	}
	if p.ISBN != nil {
		r.ISBN = *p.ISBN
	}
	if p.Author != nil {
		r.Author = *p.Author
	}
	if p.Publisher != nil {
		r.Publisher = *p.Publisher
	}
	if p.PublishedYear != nil {
		r.PublishedYear = *p.PublishedYear
	}
	if p.PageCount != nil {
		r.PageCount = *p.PageCount
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	return r
}

// Overwrites reports whether applying p would replace a value r already holds.
func (p Patch) Overwrites(r Record) bool {
	return (p.ImageURL != nil && r.ImageURL != "") ||
		(p.ISBN != nil && r.ISBN != "") ||
		(p.Author != nil && r.Author != "") ||
		(p.Publisher != nil && r.Publisher != "") ||
		(p.PublishedYear != nil && r.PublishedYear != 0) ||
		(p.PageCount != nil && r.PageCount != 0) ||
		(p.Description != nil && r.Description != "")
}
