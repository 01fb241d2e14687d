package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/rojanmagar2001/readsync/internal/domain"
	"github.com/rojanmagar2001/readsync/internal/ports"
)

// Syncer drives one source's pagination to completion and reconciles
// every page into the record store. One Syncer serves all sources; each
// Sync call is independent.
type Syncer struct {
	store   ports.RecordStore
	journal ports.RunJournal
	limiter ports.Limiter
	logger  *slog.Logger
}

func NewSyncer(store ports.RecordStore, journal ports.RunJournal, limiter ports.Limiter, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:   store,
		journal: journal,
		limiter: limiter,
		logger:  logger,
	}
}

// Sync fetches pages in server cursor order until the cursor runs out,
// committing each page's updates+inserts in one store transaction. A
// failure on page N leaves pages 1..N-1 committed; nothing is rolled
// back and the error is reported in the result.
func (s *Syncer) Sync(ctx context.Context, src ports.Source) domain.SyncResult {
	start := time.Now()
	res := domain.SyncResult{Source: src.Name}

	runID, err := s.journal.BeginRun(ctx, src.Name)
	if err != nil {
		res.Err = errors.Wrap(err, "open run journal")
		res.Elapsed = time.Since(start)
		return res
	}

	res.Err = s.run(ctx, src, &res)
	res.Elapsed = time.Since(start)

	if jerr := s.journal.FinishRun(ctx, runID, res.Pages, res.Fetched, res.Err); jerr != nil {
		s.logger.Warn("could not close run journal",
			"source", src.Name, "run", runID, "err", jerr)
	}
	return res
}

func (s *Syncer) run(ctx context.Context, src ports.Source, res *domain.SyncResult) error {
	// Warm the known-id set from the store so a restarted process
	// classifies previously stored records as updates, not inserts.
	stored, err := s.store.Records(ctx, src.Name)
	if err != nil {
		return errors.Wrap(err, "warm known ids")
	}
	known := make(map[string]struct{}, len(stored))
	for _, rec := range stored {
		known[rec.ID] = struct{}{}
	}

	cursor := ""
	for {
		if err := s.limiter.Take(ctx, src.Name); err != nil {
			return errors.Wrap(err, "inter-page pacing")
		}

		page, err := src.Fetcher.FetchPage(ctx, cursor)
		if err != nil {
			return errors.Wrapf(err, "fetch page %d", res.Pages+1)
		}
		res.Pages++
		res.Fetched += len(page.Records)

		updates, inserts := partition(known, page.Records)
		if err := s.store.ApplyPage(ctx, src.Name, updates, inserts); err != nil {
			return errors.Wrapf(err, "reconcile page %d", res.Pages)
		}
		res.Updated += len(updates)
		res.Inserted += len(inserts)

		// Re-read after commit rather than merging speculatively: the
		// store is the authority when external writers share the file.
		stored, err := s.store.Records(ctx, src.Name)
		if err != nil {
			return errors.Wrapf(err, "refresh after page %d", res.Pages)
		}
		known = make(map[string]struct{}, len(stored))
		for _, rec := range stored {
			known[rec.ID] = struct{}{}
		}

		s.logger.Debug("page reconciled",
			"source", src.Name,
			"page", res.Pages,
			"fetched", len(page.Records),
			"updated", len(updates),
			"inserted", len(inserts),
		)

		if !page.HasNext() {
			return nil
		}
		cursor = page.NextCursor
	}
}

// partition splits a page against the known-id set. Membership at
// partition time decides the class, so the two slices never share an id
// unless the server repeated one inside a single page.
func partition(known map[string]struct{}, recs []domain.Record) (updates, inserts []domain.Record) {
	for _, rec := range recs {
		if _, ok := known[rec.ID]; ok {
			updates = append(updates, rec)
		} else {
			inserts = append(inserts, rec)
		}
	}
	return updates, inserts
}
