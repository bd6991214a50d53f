package fetcher

import (
	"context"
	"time"
)

// Page is a fetched document, decoded to UTF-8.
type Page struct {
	Body      []byte
	ETag      string
	FetchedAt time.Time
}

// Fetcher retrieves documents over HTTP.
type Fetcher interface {
	// Fetch downloads the document at rawURL.
	Fetch(ctx context.Context, rawURL string) (*Page, error)

	// FetchIfChanged downloads the document only if its ETag differs from
	// the given one. The bool reports whether new content was returned.
	FetchIfChanged(ctx context.Context, rawURL string, etag string) (*Page, bool, error)
}
