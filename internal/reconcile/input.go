package reconcile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseQueries splits free text on newlines, commas and semicolons. A line
// holding a tab is a record instead: ISBN in the first field, optional target
// code in the second. Blank entries are dropped and repeated ISBNs are kept
// once, first occurrence wins.
func ParseQueries(text string) []Query {
	qs := newQuerySet()
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	for _, line := range lines {
		if strings.ContainsRune(line, '\t') {
			fields := strings.Split(line, "\t")
			if !isHeader(fields[0]) {
				qs.addRecord(fields)
			}
			continue
		}
		for _, f := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
			qs.add(f, "")
		}
	}
	return qs.list
}

// ReadQueriesCSV reads a delimited file with the ISBN in the first field and
// an optional target code in the second. The delimiter (comma, semicolon or
// tab) is taken from the first non-empty line. A leading "isbn" header row
// is skipped.
func ReadQueriesCSV(r io.Reader) ([]Query, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	qs := newQuerySet()
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read queries: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		if first {
			first = false
			if isHeader(rec[0]) {
				continue
			}
		}
		qs.addRecord(rec)
	}
	return qs.list, nil
}

// ReadQueriesXLSX reads the first sheet of a workbook: ISBN in column A,
// optional target code in column B.
func ReadQueriesXLSX(r io.Reader) ([]Query, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	qs := newQuerySet()
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if i == 0 && isHeader(row[0]) {
			continue
		}
		qs.addRecord(row)
	}
	return qs.list, nil
}

// ReadQueriesFile picks a reader by extension: .xlsx workbooks, .csv and
// .tsv delimited files, anything else as free text.
func ReadQueriesFile(path string) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadQueriesXLSX(f)
	case ".csv", ".tsv":
		return ReadQueriesCSV(f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return ParseQueries(string(data)), nil
}

func sniffDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		best, bestN := ',', strings.Count(line, ",")
		for _, d := range []rune{';', '\t'} {
			if n := strings.Count(line, string(d)); n > bestN {
				best, bestN = d, n
			}
		}
		return best
	}
	return ','
}

func isHeader(field string) bool {
	return strings.EqualFold(strings.TrimSpace(field), "isbn")
}

type querySet struct {
	seen map[string]bool
	list []Query
}

func newQuerySet() *querySet {
	return &querySet{seen: map[string]bool{}}
}

func (s *querySet) addRecord(fields []string) {
	target := ""
	if len(fields) > 1 {
		target = fields[1]
	}
	s.add(fields[0], target)
}

func (s *querySet) add(isbn, target string) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" || s.seen[isbn] {
		return
	}
	s.seen[isbn] = true
	s.list = append(s.list, Query{ISBN: isbn, Target: strings.TrimSpace(target)})
}
