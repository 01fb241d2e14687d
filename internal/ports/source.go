package ports

import (
	"context"

	"github.com/rojanmagar2001/readsync/internal/domain"
)

// PageFetcher produces one page of remote records. An empty cursor asks
// for the first page; the returned page's NextCursor feeds the next call.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (domain.Page, error)
}

// Source is one external provider of records. Each source pairs a name
// (which keys its table and credential) with the fetcher for its API.
// Sources are selected from a registry list, not via inheritance.
type Source struct {
	Name    string
	Fetcher PageFetcher
}
