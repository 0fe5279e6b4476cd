// Package drive lists photographs kept in a Google Drive folder.
package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	mimeTypeFolder = "application/vnd.google-apps.folder"
	// maxPageSize is the Drive API ceiling for files.list.
	maxPageSize = 1000
)

var (
	ErrUnauthorized = errors.New("drive: unauthorised (invalid credentials)")
	ErrForbidden    = errors.New("drive: forbidden (insufficient permissions)")
	ErrNotFound     = errors.New("drive: folder not found")
	ErrRateLimited  = errors.New("drive: rate limit exceeded")
)

// Entry is one file in the folder.
type Entry struct {
	ID   string
	Name string
	URL  string
}

type Lister struct {
	svc      *drive.Service
	folderID string
}

// NewLister authenticates with a service account key file.
func NewLister(ctx context.Context, credentialsFile, folderID string) (*Lister, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("drive: read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("drive: parse credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("drive: create service: %w", err)
	}
	return NewListerWithService(svc, folderID), nil
}

func NewListerWithService(svc *drive.Service, folderID string) *Lister {
	return &Lister{svc: svc, folderID: folderID}
}

// List issues a single files.list call returning at most maxResults files
// whose names start with prefix. A wider Drive page is never followed.
func (l *Lister) List(ctx context.Context, prefix string, maxResults int) ([]Entry, error) {
	if maxResults <= 0 || maxResults > maxPageSize {
		maxResults = maxPageSize
	}

	q := fmt.Sprintf("'%s' in parents and trashed = false and mimeType != '%s'", escape(l.folderID), mimeTypeFolder)
	if prefix != "" {
		q += fmt.Sprintf(" and name contains '%s'", escape(prefix))
	}

	res, err := l.svc.Files.List().
		Q(q).
		PageSize(int64(maxResults)).
		OrderBy("name").
		Fields("files(id,name,webContentLink,webViewLink)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	out := make([]Entry, 0, len(res.Files))
	for _, f := range res.Files {
		// "contains" matches word prefixes anywhere in the name.
		if prefix != "" && !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		link := f.WebContentLink
		if link == "" {
			link = f.WebViewLink
		}
		out = append(out, Entry{ID: f.Id, Name: f.Name, URL: link})
	}
	return out, nil
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("drive: list files: %w", err)
	}
	switch gerr.Code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case http.StatusForbidden:
		for _, e := range gerr.Errors {
			if strings.Contains(e.Reason, "RateLimitExceeded") || e.Reason == "rateLimitExceeded" {
				return fmt.Errorf("%w: %v", ErrRateLimited, err)
			}
		}
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("drive: list files: %w", err)
}
