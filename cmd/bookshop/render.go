package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookshop/internal/catalog"
	"bookshop/internal/reconcile"
)

var resultColumns = []column{
	right("#", 0),
	left("Input", 40),
	left("Code", 0),
	left("Kind", 0),
	left("Disposition", 0),
	left("Detail", 60),
	left("Overwrite", 0),
}

var commitColumns = []column{
	right("#", 0),
	left("Input", 40),
	left("Code", 0),
	left("Kind", 0),
	left("Status", 0),
	left("Error", 60),
}

var recordColumns = []column{
	left("Code", 0),
	left("Title", 40),
	left("Author/Category", 30),
	left("ISBN", 0),
	left("Image", 0),
	right("Price", 0),
}

func resultRow(n int, res reconcile.MatchResult) []string {
	return []string{
		strconv.Itoa(n),
		res.Input,
		res.Code,
		string(res.Kind),
		string(res.Disposition),
		resultDetail(res),
		yesNo(res.WouldOverwrite),
	}
}

// resultDetail is the reason for non-matches, otherwise what would be written.
func resultDetail(res reconcile.MatchResult) string {
	if res.Disposition != reconcile.Matched {
		return res.Reason
	}
	if res.Asset != nil {
		return res.Asset.URL
	}
	if md := res.Metadata; md != nil {
		parts := []string{md.Title}
		if md.Author != "" {
			parts = append(parts, md.Author)
		}
		if md.PublishedYear > 0 {
			parts = append(parts, strconv.Itoa(md.PublishedYear))
		}
		return strings.Join(parts, " / ")
	}
	return ""
}

func renderResults(results []reconcile.MatchResult) string {
	rows := make([][]string, 0, len(results))
	for i, res := range results {
		rows = append(rows, resultRow(i+1, res))
	}
	return renderTable(resultColumns, rows)
}

// printProgress writes one result as soon as it is known.
func printProgress(w io.Writer, n, total int, res reconcile.MatchResult) {
	code := res.Code
	if code == "" {
		code = "-"
	}
	fmt.Fprintf(w, "[%d/%d] %-13s %-8s %-12s %s\n", n, total, res.Input, code, res.Disposition, resultDetail(res))
}

func printSummary(w io.Writer, rep *reconcile.Report) {
	c := rep.Counts()
	fmt.Fprintf(w, "Run %s: %d %s units\n", valueOr(rep.ID, "(unrecorded)"), c.Total, rep.Unit)
	fmt.Fprintf(w, "  matched:         %d (%d would overwrite)\n", c.Matched, c.WouldOverwrite)
	fmt.Fprintf(w, "  unmatched:       %d\n", c.Unmatched)
	if rep.Unit == reconcile.UnitQuery {
		fmt.Fprintf(w, "  lookup failures: %d\n", c.QueryFailed)
		fmt.Fprintf(w, "  cancelled:       %d\n", c.Cancelled)
	}
	for _, warning := range rep.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func renderCommit(rep reconcile.CommitReport) string {
	rows := make([][]string, 0, len(rep.Entries))
	for i, e := range rep.Entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Input, e.Code, string(e.Kind), string(e.Status), e.Error})
	}
	return renderTable(commitColumns, rows)
}

func renderRecords(records []catalog.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		detail := r.Author
		if r.Kind == catalog.KindItem {
			detail = r.Category
		}
		rows = append(rows, []string{r.Code, r.Title, detail, r.ISBN, yesNo(r.HasImage()), formatPrice(r.PriceCents)})
	}
	return renderTable(recordColumns, rows)
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
