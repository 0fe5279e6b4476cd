package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bookshop/internal/catalog"
)

type CommitStatus string

const (
	CommitApplied CommitStatus = "APPLIED"
	CommitFailed  CommitStatus = "FAILED"
	CommitSkipped CommitStatus = "SKIPPED"
)

// CommitEntry is the fate of one selected result.
type CommitEntry struct {
	Input  string          `json:"input"`
	Code   string          `json:"code,omitempty"`
	Kind   catalog.Kind    `json:"kind,omitempty"`
	Status CommitStatus    `json:"status"`
	Error  string          `json:"error,omitempty"`
	Record *catalog.Record `json:"record,omitempty"`
}

type CommitReport struct {
	Entries []CommitEntry `json:"entries"`
	Applied int           `json:"applied"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
}

func (r *CommitReport) add(e CommitEntry) {
	r.Entries = append(r.Entries, e)
	switch e.Status {
	case CommitApplied:
		r.Applied++
	case CommitFailed:
		r.Failed++
	case CommitSkipped:
		r.Skipped++
	}
}

// CommitError reports the write that stopped a commit. Writes before it
// stay applied.
type CommitError struct {
	Code string
	Kind catalog.Kind
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit aborted at %s %s: %v", e.Kind, e.Code, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Updater is the part of the catalog store a commit needs.
type Updater interface {
	Update(ctx context.Context, kind catalog.Kind, code string, patch catalog.Patch) (catalog.Record, error)
}

// Applier writes approved results back, one update per result.
type Applier struct {
	store  Updater
	logger zerolog.Logger
}

func NewApplier(store Updater, logger zerolog.Logger) *Applier {
	return &Applier{store: store, logger: logger}
}

// Commit issues updates sequentially in selection order and stops at the
// first failed write: that entry is FAILED, everything after it SKIPPED and
// a *CommitError is returned. Nothing already written is rolled back.
// Results that are not Matched, or carry nothing to write, are skipped
// without touching the store.
func (a *Applier) Commit(ctx context.Context, selected []MatchResult) (CommitReport, error) {
	var rep CommitReport
	rep.Entries = make([]CommitEntry, 0, len(selected))

	for i, res := range selected {
		entry := CommitEntry{Input: res.Input, Code: res.Code, Kind: res.Kind}

		if res.Disposition != Matched || res.Code == "" {
			entry.Status = CommitSkipped
			entry.Error = fmt.Sprintf("not committable: %s", res.Disposition)
			rep.add(entry)
			continue
		}
		patch := res.Patch()
		if patch.IsEmpty() {
			entry.Status = CommitSkipped
			entry.Error = "nothing to write"
			rep.add(entry)
			continue
		}

		var err error
		if err = ctx.Err(); err == nil {
			var rec catalog.Record
			rec, err = a.store.Update(ctx, res.Kind, res.Code, patch)
			if err == nil {
				entry.Status = CommitApplied
				entry.Record = &rec
				rep.add(entry)
				a.logger.Info().Str("code", res.Code).Str("kind", string(res.Kind)).Msg("catalog record updated")
				continue
			}
		}

		entry.Status = CommitFailed
		entry.Error = err.Error()
		rep.add(entry)
		a.logger.Error().Err(err).Str("code", res.Code).Str("kind", string(res.Kind)).
			Int("remaining", len(selected)-i-1).Msg("commit aborted")

		for _, rest := range selected[i+1:] {
			rep.add(CommitEntry{
				Input:  rest.Input,
				Code:   rest.Code,
				Kind:   rest.Kind,
				Status: CommitSkipped,
				Error:  "not attempted after earlier failure",
			})
		}
		return rep, &CommitError{Code: res.Code, Kind: res.Kind, Err: err}
	}

	return rep, nil
}

// Select picks the Matched results whose codes are listed, or all of them.
// Order follows results, not codes.
func Select(results []MatchResult, codes []string, all bool) []MatchResult {
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []MatchResult
	for _, res := range results {
		if res.Disposition != Matched {
			continue
		}
		if all || want[res.Code] {
			out = append(out, res)
		}
	}
	return out
}
