package catalog

import (
	"fmt"
	"strings"
)

// dialect captures the few places where postgres and sqlite SQL differ.
type dialect struct {
	name     string
	distinct string
	now      string
	numbered bool
}

var (
	postgresDialect = dialect{name: "postgres", distinct: "IS DISTINCT FROM", now: "now()", numbered: true}
	sqliteDialect   = dialect{name: "sqlite", distinct: "IS NOT", now: "CURRENT_TIMESTAMP"}
)

func (d dialect) placeholder(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func tableFor(kind Kind) (string, error) {
	switch kind {
	case KindBook:
		return "books", nil
	case KindItem:
		return "other_items", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

const (
	bookColumns = "id, code, title, isbn, author, publisher, published_year, page_count, description, price_cents, image_url, updated_at"
	itemColumns = "id, code, title, category, description, price_cents, image_url, updated_at"
)

func columnsFor(kind Kind) string {
	if kind == KindItem {
		return itemColumns
	}
	return bookColumns
}

func selectSQL(d dialect, kind Kind, byCode bool) (string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	q := fmt.Sprintf("SELECT %s FROM %s", columnsFor(kind), table)
	if byCode {
		q += " WHERE code = " + d.placeholder(1)
	} else {
		q += " ORDER BY code ASC"
	}
	return q, nil
}

func pageSQL(d dialect, kind Kind) (string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE code > %s ORDER BY code ASC LIMIT %s",
		columnsFor(kind), table, d.placeholder(1), d.placeholder(2)), nil
}

func countSQL(kind Kind) (string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	return "SELECT count(*) FROM " + table, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(kind Kind, row rowScanner) (Record, error) {
	r := Record{Kind: kind}
	var err error
	switch kind {
	case KindItem:
		err = row.Scan(&r.ID, &r.Code, &r.Title, &r.Category, &r.Description, &r.PriceCents, &r.ImageURL, &r.UpdatedAt)
	default:
		err = row.Scan(&r.ID, &r.Code, &r.Title, &r.ISBN, &r.Author, &r.Publisher, &r.PublishedYear,
			&r.PageCount, &r.Description, &r.PriceCents, &r.ImageURL, &r.UpdatedAt)
	}
	return r, err
}

type assignment struct {
	column string
	value  any
}

func patchAssignments(p Patch) []assignment {
	var out []assignment
	add := func(column string, v any) { out = append(out, assignment{column: column, value: v}) }
	if p.ImageURL != nil {
		add("image_url", *p.ImageURL)
	}
	if p.ISBN != nil {
		add("isbn", *p.ISBN)
	}
	if p.Author != nil {
		add("author", *p.Author)
	}
	if p.Publisher != nil {
		add("publisher", *p.Publisher)
	}
	if p.PublishedYear != nil {
		add("published_year", *p.PublishedYear)
	}
	if p.PageCount != nil {
		add("page_count", *p.PageCount)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	return out
}

// updateSQL only touches the row when at least one column actually changes,
// so replaying the same patch leaves updated_at alone.
func updateSQL(d dialect, kind Kind, code string, p Patch) (string, []any, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", nil, err
	}
	if err := p.Validate(kind); err != nil {
		return "", nil, err
	}
	assigns := patchAssignments(p)
	if len(assigns) == 0 {
		return "", nil, fmt.Errorf("empty patch for %s %s", kind, code)
	}

	sets := make([]string, 0, len(assigns)+1)
	changed := make([]string, 0, len(assigns))
	args := make([]any, 0, len(assigns)+1)
	argn := 1
	for _, a := range assigns {
		ph := d.placeholder(argn)
		sets = append(sets, fmt.Sprintf("%s = %s", a.column, ph))
		args = append(args, a.value)
		argn++
	}
	// sqlite's positional "?" cannot be reused, so the change guard binds the values again.
	for _, a := range assigns {
		changed = append(changed, fmt.Sprintf("%s %s %s", a.column, d.distinct, d.placeholder(argn)))
		args = append(args, a.value)
		argn++
	}
	sets = append(sets, "updated_at = "+d.now)

	// Placeholders appear in args order; sqlite binds "?" by position.
	q := fmt.Sprintf("UPDATE %s SET %s WHERE (%s) AND code = %s",
		table, strings.Join(sets, ", "), strings.Join(changed, " OR "), d.placeholder(argn))
	args = append(args, code)
	return q, args, nil
}

func upsertSQL(d dialect, r Record) (string, []any, error) {
	var cols []string
	var args []any
	switch r.Kind {
	case KindBook:
		cols = []string{"id", "code", "title", "isbn", "author", "publisher", "published_year", "page_count", "description", "price_cents", "image_url"}
		args = []any{r.ID, r.Code, r.Title, r.ISBN, r.Author, r.Publisher, r.PublishedYear, r.PageCount, r.Description, r.PriceCents, r.ImageURL}
	case KindItem:
		cols = []string{"id", "code", "title", "category", "description", "price_cents", "image_url"}
		args = []any{r.ID, r.Code, r.Title, r.Category, r.Description, r.PriceCents, r.ImageURL}
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	table, _ := tableFor(r.Kind)

	phs := make([]string, len(cols))
	for i := range cols {
		phs[i] = d.placeholder(i + 1)
	}
	updates := make([]string, 0, len(cols))
	for _, c := range cols[2:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	updates = append(updates, "updated_at = "+d.now)

	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT (code) DO UPDATE SET %s`,
		table, strings.Join(cols, ", "), strings.Join(phs, ", "), strings.Join(updates, ", "))
	return q, args, nil
}
