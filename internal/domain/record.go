package domain

import "time"

// Record is one item as seen by a remote source. The id is an opaque,
// source-issued primary key; a later page may carry the same id with
// updated fields, which replaces the stored row.
type Record struct {
	ID        string
	URL       string
	Title     *string
	CreatedAt *time.Time
}

// Page is one slice of a paginated listing. An empty NextCursor means
// the stream is exhausted.
type Page struct {
	Records    []Record
	NextCursor string
}

// HasNext reports whether another page follows this one.
func (p Page) HasNext() bool { return p.NextCursor != "" }
