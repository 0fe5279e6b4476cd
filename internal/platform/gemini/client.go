// Package gemini looks up bibliographic data for an ISBN by asking a Gemini
// model with Google Search grounding. Answers are treated as untrusted input.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

var (
	// ErrNotFound is returned when the model reports no edition for the ISBN.
	ErrNotFound = errors.New("gemini: isbn not found")
	// ErrMalformed is returned when the answer holds no usable JSON object.
	ErrMalformed = errors.New("gemini: malformed answer")
)

// Book is the shape the model is asked to answer with.
type Book struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"published_date"`
	PageCount     int      `json:"page_count"`
	Description   string   `json:"description"`
	CoverURL      string   `json:"cover_url"`
	Found         *bool    `json:"found"`
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models  generator
	model   string
	limiter *rate.Limiter
}

func NewClient(ctx context.Context, apiKey, model string, rps float64) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	if rps <= 0 {
		rps = 0.5
	}
	return &Client{
		models:  gc.Models,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

const promptTemplate = `Find the published book with ISBN %s using web search.
Answer with a single JSON object and nothing else, using these keys:
"isbn", "title", "subtitle", "authors" (array of names), "publisher",
"published_date", "page_count" (integer), "description" (at most 600 characters),
"cover_url", "found" (boolean).
If no book with this ISBN exists, answer {"found": false}.`

// LookupISBN issues exactly one model call.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*Book, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.models.GenerateContent(ctx, c.model,
		genai.Text(fmt.Sprintf(promptTemplate, isbn)),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0),
			Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}

	return parseAnswer(isbn, resp.Text())
}

func parseAnswer(isbn, text string) (*Book, error) {
	raw, ok := extractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrMalformed, isbn)
	}
	var book Book
	if err := json.Unmarshal([]byte(raw), &book); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrMalformed, isbn, err)
	}
	if (book.Found != nil && !*book.Found) || strings.TrimSpace(book.Title) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, isbn)
	}
	if book.ISBN == "" {
		book.ISBN = isbn
	}
	return &book, nil
}

// extractJSONObject returns the outermost {...} span; grounded answers often
// wrap the object in prose or a fenced code block.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
