package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bookshop/internal/catalog"
)

// ErrNotConfigured is returned when a batch needs a source that was not set up.
var ErrNotConfigured = errors.New("reconcile: source not configured")

// DefaultAssetMaxResults bounds the single listing call when none is configured.
const DefaultAssetMaxResults = 500

// AssetLister returns one page of remote files. It is called once per batch.
type AssetLister interface {
	ListAssets(ctx context.Context, prefix string, maxResults int) ([]Asset, error)
}

// MetadataLookup resolves one ISBN per call.
type MetadataLookup interface {
	Lookup(ctx context.Context, isbn string) (Metadata, error)
}

// BulkListingError fails a whole asset batch.
type BulkListingError struct {
	Err error
}

func (e *BulkListingError) Error() string {
	return fmt.Sprintf("bulk asset listing failed: %v", e.Err)
}

func (e *BulkListingError) Unwrap() error {
	return e.Err
}

type Config struct {
	AssetPrefix     string
	AssetMaxResults int
}

type Service struct {
	catalogRepo catalog.Repository
	assets      AssetLister
	lookup      MetadataLookup
	runs        RunRepository
	applier     *Applier
	cfg         Config
	logger      zerolog.Logger
}

// NewService wires the pipeline. assets and lookup may be nil when the
// corresponding batch type is not used.
func NewService(catalogRepo catalog.Repository, assets AssetLister, lookup MetadataLookup, runs RunRepository, cfg Config, logger zerolog.Logger) *Service {
	if cfg.AssetMaxResults <= 0 {
		cfg.AssetMaxResults = DefaultAssetMaxResults
	}
	return &Service{
		catalogRepo: catalogRepo,
		assets:      assets,
		lookup:      lookup,
		runs:        runs,
		applier:     NewApplier(catalogRepo, logger),
		cfg:         cfg,
		logger:      logger,
	}
}

// LoadIndex snapshots both collections. Collisions are logged and copied
// into rep as warnings when rep is not nil.
func (s *Service) LoadIndex(ctx context.Context, rep *Report) (*Index, error) {
	books, err := s.catalogRepo.List(ctx, catalog.KindBook)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	items, err := s.catalogRepo.List(ctx, catalog.KindItem)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	idx := BuildIndex(books, items)
	for _, c := range idx.Collisions() {
		s.logger.Warn().Str("code", c.Code).Str("book", c.Book.Title).Str("item", c.Item.Title).
			Msg("code present in both books and items; books take precedence")
		if rep != nil {
			rep.Warn(fmt.Sprintf("code %s exists as both book %q and item %q; matched against the book", c.Code, c.Book.Title, c.Item.Title))
		}
	}
	return idx, nil
}

// ReconcileAssets lists the asset folder once and matches every entry.
// A failed listing returns a *BulkListingError and no report.
func (s *Service) ReconcileAssets(ctx context.Context) (_ *Report, err error) {
	if s.assets == nil {
		return nil, fmt.Errorf("%w: asset listing", ErrNotConfigured)
	}

	run := s.startRun(ctx, RunAssets)
	rep := NewReport(UnitAsset)
	rep.ID = run.ID
	defer func() { s.finishRun(ctx, run, rep.Counts(), err) }()

	idx, err := s.LoadIndex(ctx, rep)
	if err != nil {
		return nil, err
	}

	assets, err := s.assets.ListAssets(ctx, s.cfg.AssetPrefix, s.cfg.AssetMaxResults)
	if err != nil {
		s.logger.Error().Err(err).Str("prefix", s.cfg.AssetPrefix).Msg("asset listing failed")
		return nil, &BulkListingError{Err: err}
	}
	if len(assets) > s.cfg.AssetMaxResults {
		assets = assets[:s.cfg.AssetMaxResults]
	}

	for _, a := range assets {
		rep.Add(MatchAsset(a, idx))
	}
	rep.FinishedAt = time.Now().UTC()

	c := rep.Counts()
	s.logger.Info().Str("run_id", run.ID).Int("assets", c.Total).Int("matched", c.Matched).
		Int("unmatched", c.Unmatched).Int("would_overwrite", c.WouldOverwrite).Msg("asset batch reconciled")
	return rep, nil
}

// ReconcileQueries looks up each query in order, one call at a time, and
// passes every result to onResult as soon as it is known. A failed lookup
// is recorded as QUERY_FAILED and the batch moves on. Once ctx is done the
// remaining queries are recorded as CANCELLED without being dispatched.
//
// The catalog is only read when at least one query names a target.
func (s *Service) ReconcileQueries(ctx context.Context, queries []Query, onResult func(MatchResult)) (_ *Report, err error) {
	if s.lookup == nil {
		return nil, fmt.Errorf("%w: metadata lookup", ErrNotConfigured)
	}

	run := s.startRun(ctx, RunISBN)
	rep := NewReport(UnitQuery)
	rep.ID = run.ID
	defer func() { s.finishRun(ctx, run, rep.Counts(), err) }()

	var idx *Index
	if hasTargets(queries) {
		if idx, err = s.LoadIndex(ctx, rep); err != nil {
			return nil, err
		}
	}

	emit := func(res MatchResult) {
		rep.Add(res)
		if onResult != nil {
			onResult(res)
		}
	}

	for i, q := range queries {
		if ctx.Err() != nil {
			for _, rest := range queries[i:] {
				emit(cancelledResult(rest))
			}
			s.logger.Warn().Str("run_id", run.ID).Int("cancelled", len(queries)-i).Msg("isbn batch cancelled")
			break
		}

		var outcome Outcome
		if ValidISBN(q.ISBN) {
			outcome = s.resolve(ctx, q)
		} else {
			outcome = Outcome{Query: q, Err: ErrInvalidISBN}
		}
		if outcome.Err != nil {
			s.logger.Warn().Err(outcome.Err).Str("isbn", q.ISBN).Msg("lookup failed")
		}
		emit(MatchQuery(outcome, idx))
	}
	rep.FinishedAt = time.Now().UTC()

	c := rep.Counts()
	s.logger.Info().Str("run_id", run.ID).Int("queries", c.Total).Int("succeeded", c.LookupsSucceeded).
		Int("failed", c.LookupsFailed).Int("cancelled", c.Cancelled).Msg("isbn batch reconciled")
	return rep, nil
}

// resolve performs exactly one lookup. A panicking lookup is a failed unit,
// not a failed batch.
func (s *Service) resolve(ctx context.Context, q Query) (out Outcome) {
	out.Query = q
	defer func() {
		if r := recover(); r != nil {
			out.Metadata = nil
			out.Err = fmt.Errorf("lookup panicked: %v", r)
		}
	}()

	md, err := s.lookup.Lookup(ctx, q.ISBN)
	if err != nil {
		out.Err = err
		return out
	}
	out.Metadata = &md
	return out
}

// Commit applies the selected results and records the attempt.
func (s *Service) Commit(ctx context.Context, selected []MatchResult) (rep CommitReport, err error) {
	run := s.startRun(ctx, RunCommit)
	defer func() {
		run.recordCommit(rep)
		s.finishRun(ctx, run, Counts{}, err)
	}()

	return s.applier.Commit(ctx, selected)
}

func hasTargets(queries []Query) bool {
	for _, q := range queries {
		if q.Target != "" {
			return true
		}
	}
	return false
}

// startRun never fails the batch; a run that could not be recorded simply
// has no ID.
func (s *Service) startRun(ctx context.Context, kind RunKind) *Run {
	run := &Run{
		Kind:      kind,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if s.runs == nil {
		return run
	}
	id, err := s.runs.CreateRun(ctx, run)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to record run start")
		return run
	}
	run.ID = id
	return run
}

func (s *Service) finishRun(ctx context.Context, run *Run, counts Counts, err error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	if run.Kind != RunCommit {
		run.recordCounts(counts)
	}
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = RunStatusCompleted
	}

	if s.runs == nil || run.ID == "" {
		return
	}
	// The batch context may already be cancelled; the audit row is still written.
	if updateErr := s.runs.UpdateRun(context.WithoutCancel(ctx), run); updateErr != nil {
		s.logger.Error().Err(updateErr).Str("run_id", run.ID).Msg("failed to update run")
	}
}
