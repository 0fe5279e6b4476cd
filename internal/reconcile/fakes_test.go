package reconcile

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"bookshop/internal/catalog"
)

// memStore is an in-memory catalog.Repository.
type memStore struct {
	records map[catalog.Kind]map[string]catalog.Record
	order   map[catalog.Kind][]string
	failOn  map[string]error
	writes  []string
}

func newMemStore(recs ...catalog.Record) *memStore {
	s := &memStore{
		records: map[catalog.Kind]map[string]catalog.Record{catalog.KindBook: {}, catalog.KindItem: {}},
		order:   map[catalog.Kind][]string{},
		failOn:  map[string]error{},
	}
	for _, r := range recs {
		_ = s.Upsert(context.Background(), r)
	}
	return s
}

func (s *memStore) List(_ context.Context, kind catalog.Kind) ([]catalog.Record, error) {
	var out []catalog.Record
	for _, code := range s.order[kind] {
		out = append(out, s.records[kind][code])
	}
	return out, nil
}

func (s *memStore) ListAfter(ctx context.Context, kind catalog.Kind, afterCode string, limit int) ([]catalog.Record, error) {
	all, _ := s.List(ctx, kind)
	var out []catalog.Record
	for _, r := range all {
		if r.Code > afterCode && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context, kind catalog.Kind) (int, error) {
	return len(s.order[kind]), nil
}

func (s *memStore) GetByCode(_ context.Context, kind catalog.Kind, code string) (catalog.Record, error) {
	rec, ok := s.records[kind][code]
	if !ok {
		return catalog.Record{}, fmt.Errorf("%w: %s %s", catalog.ErrNotFound, kind, code)
	}
	return rec, nil
}

func (s *memStore) Update(ctx context.Context, kind catalog.Kind, code string, patch catalog.Patch) (catalog.Record, error) {
	if err, ok := s.failOn[code]; ok {
		return catalog.Record{}, err
	}
	rec, err := s.GetByCode(ctx, kind, code)
	if err != nil {
		return catalog.Record{}, err
	}
	s.writes = append(s.writes, code)
	rec = patch.Apply(rec)
	s.records[kind][code] = rec
	return rec, nil
}

func (s *memStore) Upsert(_ context.Context, rec catalog.Record) error {
	if _, ok := s.records[rec.Kind][rec.Code]; !ok {
		s.order[rec.Kind] = append(s.order[rec.Kind], rec.Code)
	}
	s.records[rec.Kind][rec.Code] = rec
	return nil
}

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) Lookup(ctx context.Context, isbn string) (Metadata, error) {
	args := m.Called(ctx, isbn)
	return args.Get(0).(Metadata), args.Error(1)
}

type mockAssets struct {
	mock.Mock
}

func (m *mockAssets) ListAssets(ctx context.Context, prefix string, maxResults int) ([]Asset, error) {
	args := m.Called(ctx, prefix, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Asset), args.Error(1)
}

type mockRunRepo struct {
	mock.Mock
}

func (m *mockRunRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	args := m.Called(ctx, run)
	return args.String(0), args.Error(1)
}

func (m *mockRunRepo) UpdateRun(ctx context.Context, run *Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func book(code, title, image string) catalog.Record {
	return catalog.Record{Code: code, Kind: catalog.KindBook, Title: title, ImageURL: image}
}

func item(code, title, image string) catalog.Record {
	return catalog.Record{Code: code, Kind: catalog.KindItem, Title: title, ImageURL: image}
}
