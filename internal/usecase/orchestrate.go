package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rojanmagar2001/readsync/internal/domain"
	"github.com/rojanmagar2001/readsync/internal/ports"
)

// Orchestrator runs every registered source's sync loop concurrently
// and joins the outcomes. Sources never share tables or credentials, so
// one failing source does not stop its siblings.
type Orchestrator struct {
	syncer  *Syncer
	sources []ports.Source
}

func NewOrchestrator(syncer *Syncer, sources []ports.Source) *Orchestrator {
	return &Orchestrator{syncer: syncer, sources: sources}
}

// Run syncs all sources and returns every per-source result. The error
// is non-nil when at least one source failed, after all have finished.
func (o *Orchestrator) Run(ctx context.Context, stdout io.Writer) ([]domain.SyncResult, error) {
	results := make(chan domain.SyncResult, len(o.sources))

	var wg sync.WaitGroup
	wg.Add(len(o.sources))
	for _, src := range o.sources {
		go func(src ports.Source) {
			defer wg.Done()
			results <- o.syncer.Sync(ctx, src)
		}(src)
	}
	wg.Wait()
	close(results)

	all := make([]domain.SyncResult, 0, len(o.sources))
	for r := range results {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Source < all[j].Source })

	failed := 0
	for _, r := range all {
		if r.Failed() {
			failed++
			fmt.Fprintf(stdout, "FAIL  %-12s %v\n", r.Source, r.Err)
			continue
		}
		fmt.Fprintf(stdout, "OK    %-12s pages=%d fetched=%d inserted=%d updated=%d in %s\n",
			r.Source, r.Pages, r.Fetched, r.Inserted, r.Updated, r.Elapsed.Round(time.Millisecond))
	}

	if failed > 0 {
		return all, fmt.Errorf("%d of %d sources failed", failed, len(all))
	}
	return all, nil
}
