package reconcile

import (
	"encoding/json"
	"time"
)

// Counts summarises a report by disposition.
type Counts struct {
	Total            int `json:"total"`
	Matched          int `json:"matched"`
	Unmatched        int `json:"unmatched"`
	QueryFailed      int `json:"query_failed"`
	Cancelled        int `json:"cancelled"`
	WouldOverwrite   int `json:"would_overwrite"`
	LookupsSucceeded int `json:"lookups_succeeded"`
	LookupsFailed    int `json:"lookups_failed"`
}

// Report accumulates results in arrival order. It belongs to whoever started
// the batch and is not safe for concurrent use.
type Report struct {
	ID         string
	Unit       UnitKind
	StartedAt  time.Time
	FinishedAt time.Time

	results  []MatchResult
	warnings []string
	counts   Counts
}

func NewReport(unit UnitKind) *Report {
	return &Report{Unit: unit, StartedAt: time.Now().UTC()}
}

func (r *Report) Add(res MatchResult) {
	r.results = append(r.results, res)
	r.counts.add(res)
}

func (r *Report) Warn(msg string) {
	r.warnings = append(r.warnings, msg)
}

// Results returns a copy of the results in the order they were added.
func (r *Report) Results() []MatchResult {
	out := make([]MatchResult, len(r.results))
	copy(out, r.results)
	return out
}

func (r *Report) Warnings() []string {
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

func (r *Report) Counts() Counts {
	return r.counts
}

// Matched returns the results that can be committed.
func (r *Report) Matched() []MatchResult {
	var out []MatchResult
	for _, res := range r.results {
		if res.Disposition == Matched {
			out = append(out, res)
		}
	}
	return out
}

func (c *Counts) add(res MatchResult) {
	c.Total++
	switch res.Disposition {
	case Matched:
		c.Matched++
		if res.WouldOverwrite {
			c.WouldOverwrite++
		}
	case Unmatched:
		c.Unmatched++
	case QueryFailed:
		c.QueryFailed++
	case Cancelled:
		c.Cancelled++
	}

	if res.Unit != UnitQuery {
		return
	}
	switch res.Disposition {
	case QueryFailed:
		c.LookupsFailed++
	case Matched, Unmatched:
		c.LookupsSucceeded++
	}
}

type reportJSON struct {
	ID         string        `json:"id,omitempty"`
	Unit       UnitKind      `json:"unit"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Counts     Counts        `json:"counts"`
	Warnings   []string      `json:"warnings,omitempty"`
	Results    []MatchResult `json:"results"`
}

func (r *Report) MarshalJSON() ([]byte, error) {
	results := r.results
	if results == nil {
		results = []MatchResult{}
	}
	return json.Marshal(reportJSON{
		ID:         r.ID,
		Unit:       r.Unit,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Counts:     r.counts,
		Warnings:   r.warnings,
		Results:    results,
	})
}

// UnmarshalJSON recomputes counts from the results rather than trusting the file.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw reportJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Report{
		ID:         raw.ID,
		Unit:       raw.Unit,
		StartedAt:  raw.StartedAt,
		FinishedAt: raw.FinishedAt,
		warnings:   raw.Warnings,
	}
	for _, res := range raw.Results {
		r.Add(res)
	}
	return nil
}
