package ports

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rojanmagar2001/readsync/internal/domain"
)

// ErrNoAPIKey means no credential row exists for the requested source.
var ErrNoAPIKey = errors.New("no api key configured for source")

// RecordStore is the keyed local table behind a source's sync loop.
// Implementations must guarantee at most one stored record per id within
// a source, and must apply one page's updates+inserts atomically.
type RecordStore interface {
	// Records returns every stored record for the source, ordered by id.
	Records(ctx context.Context, source string) ([]domain.Record, error)

	// ApplyPage writes one reconciled page inside a single transaction.
	// Records in updates must already exist; records in inserts must not.
	ApplyPage(ctx context.Context, source string, updates, inserts []domain.Record) error

	// CountRecords returns the number of stored records for the source.
	CountRecords(ctx context.Context, source string) (int, error)
}

// CredentialStore resolves API keys by data-source name. A missing key is
// fatal to that source's sync and must surface as ErrNoAPIKey from the
// implementation, before any network call is attempted.
type CredentialStore interface {
	APIKey(ctx context.Context, source string) (string, error)
	SetAPIKey(ctx context.Context, source, key string) error
}

// RunJournal records the outcome of each sync invocation.
type RunJournal interface {
	// BeginRun opens a journal row and returns its run id.
	BeginRun(ctx context.Context, source string) (string, error)

	// FinishRun closes the row with final counters. A non-nil runErr marks
	// the run failed; committed pages from before the failure remain.
	FinishRun(ctx context.Context, runID string, pages, fetched int, runErr error) error
}
