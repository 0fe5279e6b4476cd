package reconcile

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

var resultHeaders = []string{
	"input", "unit", "code", "kind", "disposition", "reason", "would_overwrite",
	"catalog_title", "current_image_url", "proposed_image_url",
	"title", "author", "publisher", "published_year", "page_count", "isbn", "source",
}

// WriteXLSX renders a report as a workbook for offline review: one row per
// result followed by a summary sheet.
func WriteXLSX(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return err
	}
	for i, h := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(resultsSheet, cell, h)
	}

	for i, res := range rep.Results() {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(resultsSheet, cell, value)
		}

		set(1, res.Input)
		set(2, string(res.Unit))
		set(3, res.Code)
		set(4, string(res.Kind))
		set(5, string(res.Disposition))
		set(6, res.Reason)
		set(7, res.WouldOverwrite)
		if res.Record != nil {
			set(8, res.Record.Title)
			set(9, res.Record.ImageURL)
		}
		if res.Asset != nil {
			set(10, res.Asset.URL)
		}
		if md := res.Metadata; md != nil {
			set(10, md.CoverURL)
			set(11, md.Title)
			set(12, md.Author)
			set(13, md.Publisher)
			set(14, blankZero(md.PublishedYear))
			set(15, blankZero(md.PageCount))
			set(16, md.ISBN)
			set(17, md.Source)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	c := rep.Counts()
	summary := [][2]any{
		{"run_id", rep.ID},
		{"unit", string(rep.Unit)},
		{"total", c.Total},
		{"matched", c.Matched},
		{"would_overwrite", c.WouldOverwrite},
		{"unmatched", c.Unmatched},
		{"query_failed", c.QueryFailed},
		{"cancelled", c.Cancelled},
	}
	for _, warning := range rep.Warnings() {
		summary = append(summary, [2]any{"warning", warning})
	}
	for i, kv := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), kv[1])
	}

	_, err := f.WriteTo(w)
	return err
}

func blankZero(v int) any {
	if v == 0 {
		return ""
	}
	return v
}
