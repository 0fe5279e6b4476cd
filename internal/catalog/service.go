package catalog

import (
	"context"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, kind Kind) ([]Record, error) {
	return s.repo.List(ctx, kind)
}

// Page is one slice of a code-ordered listing.
type Page struct {
	Records []Record
	Total   int
	Next    Cursor
}

// ListPage returns up to limit records with codes after the cursor. Next is
// zero on the last page.
func (s *Service) ListPage(ctx context.Context, kind Kind, after Cursor, limit int) (Page, error) {
	limit = max(limit, 1)
	total, err := s.repo.Count(ctx, kind)
	if err != nil {
		return Page{}, err
	}
	// One extra row tells whether another page follows.
	records, err := s.repo.ListAfter(ctx, kind, after.AfterCode, limit+1)
	if err != nil {
		return Page{}, err
	}

	page := Page{Records: records, Total: total}
	if len(records) > limit {
		page.Records = records[:limit]
		page.Next = Cursor{AfterCode: records[limit-1].Code}
	}
	return page, nil
}

func (s *Service) GetByCode(ctx context.Context, kind Kind, code string) (Record, error) {
	return s.repo.GetByCode(ctx, kind, code)
}
