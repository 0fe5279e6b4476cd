package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_CountsAndOrder(t *testing.T) {
	rep := NewReport(UnitQuery)
	rep.Add(MatchResult{Unit: UnitQuery, Input: "1", Disposition: Unmatched, Reason: ReasonNoTarget})
	rep.Add(MatchResult{Unit: UnitQuery, Input: "2", Disposition: QueryFailed})
	rep.Add(MatchResult{Unit: UnitQuery, Input: "3", Disposition: Matched, Code: "A1", WouldOverwrite: true})
	rep.Add(MatchResult{Unit: UnitQuery, Input: "4", Disposition: Cancelled})

	c := rep.Counts()
	assert.Equal(t, Counts{
		Total:            4,
		Matched:          1,
		Unmatched:        1,
		QueryFailed:      1,
		Cancelled:        1,
		WouldOverwrite:   1,
		LookupsSucceeded: 2,
		LookupsFailed:    1,
	}, c)

	var inputs []string
	for _, r := range rep.Results() {
		inputs = append(inputs, r.Input)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, inputs)
	require.Len(t, rep.Matched(), 1)
	assert.Equal(t, "A1", rep.Matched()[0].Code)
}

func TestReport_JSONRecomputesCounts(t *testing.T) {
	raw := `{
		"id": "run-1",
		"unit": "asset",
		"counts": {"total": 99, "matched": 99},
		"results": [
			{"unit": "asset", "input": "A621.jpg", "code": "A621", "kind": "book", "disposition": "MATCHED",
			 "asset": {"path": "A621.jpg", "url": "https://drive/1"}},
			{"unit": "asset", "input": "xyz.png", "disposition": "UNMATCHED", "reason": "no recognizable identifier"}
		]
	}`

	var rep Report
	require.NoError(t, json.Unmarshal([]byte(raw), &rep))
	assert.Equal(t, "run-1", rep.ID)
	assert.Equal(t, 2, rep.Counts().Total)
	assert.Equal(t, 1, rep.Counts().Matched)
	assert.Equal(t, "https://drive/1", *rep.Matched()[0].Patch().ImageURL)

	out, err := json.Marshal(&rep)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"total":2`)
}
