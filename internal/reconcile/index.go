package reconcile

import (
	"bookshop/internal/catalog"
)

// Collision is a code present in both the book and the item collection.
type Collision struct {
	Code string
	Book catalog.Record
	Item catalog.Record
}

// Index resolves codes against the catalog snapshot taken at the start of a
// batch. Books are searched before items.
type Index struct {
	books      map[string]catalog.Record
	items      map[string]catalog.Record
	collisions []Collision
}

// BuildIndex never fails: a code found in both collections resolves to the
// book and is reported through Collisions. Within one collection the first
// record for a code wins.
func BuildIndex(books, items []catalog.Record) *Index {
	idx := &Index{
		books: make(map[string]catalog.Record, len(books)),
		items: make(map[string]catalog.Record, len(items)),
	}

	for _, b := range books {
		if _, ok := idx.books[b.Code]; ok {
			continue
		}
		b.Kind = catalog.KindBook
		idx.books[b.Code] = b
	}
	for _, it := range items {
		if _, ok := idx.items[it.Code]; ok {
			continue
		}
		it.Kind = catalog.KindItem
		idx.items[it.Code] = it
		if b, ok := idx.books[it.Code]; ok {
			idx.collisions = append(idx.collisions, Collision{Code: it.Code, Book: b, Item: it})
		}
	}

	return idx
}

// Lookup is safe on a nil index, which finds nothing.
func (i *Index) Lookup(code string) (catalog.Record, bool) {
	if i == nil {
		return catalog.Record{}, false
	}
	if rec, ok := i.books[code]; ok {
		return rec, true
	}
	rec, ok := i.items[code]
	return rec, ok
}

func (i *Index) Collisions() []Collision {
	return i.collisions
}

// Len counts distinct records, not distinct codes.
func (i *Index) Len() int {
	return len(i.books) + len(i.items)
}
