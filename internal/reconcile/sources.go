package reconcile

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"bookshop/internal/platform/drive"
	"bookshop/internal/platform/gemini"
	"bookshop/internal/platform/openlibrary"
)

type OpenLibraryClient interface {
	GetBookByISBN(ctx context.Context, isbn string) (*openlibrary.BookDetails, error)
}

// OpenLibraryLookup serves MetadataLookup from Open Library.
type OpenLibraryLookup struct {
	client OpenLibraryClient
}

func NewOpenLibraryLookup(client OpenLibraryClient) *OpenLibraryLookup {
	return &OpenLibraryLookup{client: client}
}

func (l *OpenLibraryLookup) Lookup(ctx context.Context, isbn string) (Metadata, error) {
	details, err := l.client.GetBookByISBN(ctx, isbn)
	if err != nil {
		return Metadata{}, err
	}

	md := Metadata{
		ISBN:          openlibrary.NormalizeISBN(isbn),
		Title:         joinTitle(details.Title, details.Subtitle),
		Publisher:     formatPublishers(details.Publishers),
		PublishedYear: parseYear(details.PublishDate),
		PageCount:     details.NumberOfPages,
		Description:   strings.TrimSpace(details.Notes),
		CoverURL:      details.Cover.Large,
		Source:        "openlibrary",
	}
	if md.CoverURL == "" {
		md.CoverURL = details.Cover.Medium
	}
	names := make([]string, 0, len(details.Authors))
	for _, a := range details.Authors {
		names = append(names, a.Name)
	}
	md.Author = strings.Join(names, ", ")
	return md, nil
}

type GeminiClient interface {
	LookupISBN(ctx context.Context, isbn string) (*gemini.Book, error)
}

// GeminiLookup serves MetadataLookup from a search-grounded model.
type GeminiLookup struct {
	client GeminiClient
}

func NewGeminiLookup(client GeminiClient) *GeminiLookup {
	return &GeminiLookup{client: client}
}

func (l *GeminiLookup) Lookup(ctx context.Context, isbn string) (Metadata, error) {
	book, err := l.client.LookupISBN(ctx, openlibrary.NormalizeISBN(isbn))
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		ISBN:          openlibrary.NormalizeISBN(book.ISBN),
		Title:         joinTitle(book.Title, book.Subtitle),
		Author:        strings.Join(book.Authors, ", "),
		Publisher:     strings.TrimSpace(book.Publisher),
		PublishedYear: parseYear(book.PublishedDate),
		PageCount:     max(book.PageCount, 0),
		Description:   strings.TrimSpace(book.Description),
		CoverURL:      strings.TrimSpace(book.CoverURL),
		Source:        "gemini",
	}, nil
}

type DriveLister interface {
	List(ctx context.Context, prefix string, maxResults int) ([]drive.Entry, error)
}

// DriveAssets serves AssetLister from a Drive folder.
type DriveAssets struct {
	lister DriveLister
}

func NewDriveAssets(lister DriveLister) *DriveAssets {
	return &DriveAssets{lister: lister}
}

func (d *DriveAssets) ListAssets(ctx context.Context, prefix string, maxResults int) ([]Asset, error) {
	entries, err := d.lister.List(ctx, prefix, maxResults)
	if err != nil {
		return nil, err
	}
	out := make([]Asset, 0, len(entries))
	for _, e := range entries {
		out = append(out, Asset{Path: e.Name, URL: e.URL})
	}
	return out, nil
}

var yearPattern = regexp.MustCompile(`\b(1[5-9]|20)[0-9]{2}\b`)

// parseYear finds a four digit year in free-form dates like "March 5, 2003".
func parseYear(date string) int {
	m := yearPattern.FindString(date)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

func joinTitle(title, subtitle string) string {
	title = strings.TrimSpace(title)
	subtitle = strings.TrimSpace(subtitle)
	if subtitle == "" {
		return title
	}
	return title + ": " + subtitle
}

func formatPublishers(p []openlibrary.Publisher) string {
	if len(p) == 0 {
		return ""
	}
	names := make([]string, len(p))
	for i, pub := range p {
		names[i] = pub.Name
	}
	return strings.Join(names, ", ")
}
