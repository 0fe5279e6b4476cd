package reconcile

// MatchAsset resolves a listed file against the index. The catalog record
// is copied into the result as it was when the batch started.
func MatchAsset(a Asset, idx *Index) MatchResult {
	asset := a
	res := MatchResult{Unit: UnitAsset, Input: a.Path, Asset: &asset}

	code, ok := ParseCode(a.Path)
	if !ok {
		res.Disposition = Unmatched
		res.Reason = ReasonNoIdentifier
		return res
	}
	res.Code = code

	rec, ok := idx.Lookup(code)
	if !ok {
		res.Disposition = Unmatched
		res.Reason = ReasonNoRecord
		return res
	}

	res.Disposition = Matched
	res.Kind = rec.Kind
	res.Record = &rec
	res.WouldOverwrite = rec.HasImage()
	return res
}

// MatchQuery pairs a lookup outcome with the record the operator named, if
// any. A successful lookup without a target stays Unmatched and keeps its
// metadata for manual entry: query results never pick a record on their own.
func MatchQuery(o Outcome, idx *Index) MatchResult {
	res := MatchResult{Unit: UnitQuery, Input: o.Query.ISBN}

	if o.Err != nil {
		res.Disposition = QueryFailed
		res.Reason = o.Err.Error()
		return res
	}
	if o.Metadata == nil {
		res.Disposition = QueryFailed
		res.Reason = "lookup returned no data"
		return res
	}
	md := *o.Metadata
	res.Metadata = &md

	if o.Query.Target == "" {
		res.Disposition = Unmatched
		res.Reason = ReasonNoTarget
		return res
	}
	code, ok := ParseCode(o.Query.Target)
	if !ok {
		res.Disposition = Unmatched
		res.Reason = ReasonNoIdentifier
		return res
	}
	res.Code = code

	rec, ok := idx.Lookup(code)
	if !ok {
		res.Disposition = Unmatched
		res.Reason = ReasonNoRecord
		return res
	}

	res.Disposition = Matched
	res.Kind = rec.Kind
	res.Record = &rec
	res.WouldOverwrite = res.Patch().Overwrites(rec)
	return res
}

func cancelledResult(q Query) MatchResult {
	return MatchResult{
		Unit:        UnitQuery,
		Input:       q.ISBN,
		Disposition: Cancelled,
		Reason:      ReasonCancelled,
	}
}
