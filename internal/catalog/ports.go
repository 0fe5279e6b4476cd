package catalog

import (
	"context"
)

// Repository is the catalog store contract, one collection per Kind.
type Repository interface {
	List(ctx context.Context, kind Kind) ([]Record, error)
	// ListAfter returns up to limit records with codes after afterCode, in
	// the same order List uses.
	ListAfter(ctx context.Context, kind Kind, afterCode string, limit int) ([]Record, error)
	Count(ctx context.Context, kind Kind) (int, error)
	GetByCode(ctx context.Context, kind Kind, code string) (Record, error)
	Update(ctx context.Context, kind Kind, code string, patch Patch) (Record, error)
	Upsert(ctx context.Context, record Record) error
}
