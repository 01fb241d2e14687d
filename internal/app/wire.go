package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/rojanmagar2001/readsync/internal/config"
	"github.com/rojanmagar2001/readsync/internal/infra/httpclient"
	"github.com/rojanmagar2001/readsync/internal/infra/limiter"
	"github.com/rojanmagar2001/readsync/internal/infra/store"
	"github.com/rojanmagar2001/readsync/internal/ports"
	"github.com/rojanmagar2001/readsync/internal/readwise"
	"github.com/rojanmagar2001/readsync/internal/usecase"
)

type Config struct {
	ConfigPath string
	DBPath     string
	Timeout    time.Duration
	PageDelay  time.Duration

	// Source restricts the run to one named source; empty syncs all
	// enabled sources.
	Source string

	// ListSource prints the stored records of one source and exits.
	ListSource string

	// SetKeySource / Key store a credential and exit.
	SetKeySource string
	Key          string

	// InitConfig writes the default config file and exits.
	InitConfig bool

	Verbose bool

	// ReadwiseBaseURL overrides the list endpoint (tests, proxies).
	ReadwiseBaseURL string
}

// Run wires the store, fetchers, and orchestrator together and executes
// the requested command. The store handle is constructed here and
// injected downward; nothing holds it globally.
func Run(ctx context.Context, cfg Config, stdout, stderr io.Writer) error {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}

	if cfg.InitConfig {
		if err := config.Save(fileCfg, cfg.ConfigPath); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "config written")
		return nil
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.PageDelay <= 0 {
		d, err := fileCfg.Delay()
		if err != nil {
			return err
		}
		cfg.PageDelay = d // limiter applies its own default when zero
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = fileCfg.DBPath()
		if err != nil {
			return err
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.SetKeySource != "" {
		if err := st.SetAPIKey(ctx, cfg.SetKeySource, cfg.Key); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "stored api key for %s\n", cfg.SetKeySource)
		return nil
	}

	if cfg.ListSource != "" {
		return listRecords(ctx, st, cfg.ListSource, stdout)
	}

	httpc := httpclient.New(cfg.Timeout)
	lim := limiter.New(cfg.PageDelay)
	syncer := usecase.NewSyncer(st, st, lim, logger)

	sources, failures := buildSources(ctx, cfg, fileCfg, st, httpc)
	for _, f := range failures {
		fmt.Fprintf(stdout, "FAIL  %-12s %v\n", f.name, f.err)
	}
	if len(sources) == 0 && len(failures) == 0 {
		return errors.New("no sources selected")
	}

	orch := usecase.NewOrchestrator(syncer, sources)
	_, runErr := orch.Run(ctx, stdout)

	if len(failures) > 0 {
		if runErr != nil {
			return errors.Wrapf(runErr, "%d sources failed preflight", len(failures))
		}
		return errors.Errorf("%d sources failed preflight", len(failures))
	}
	return runErr
}

type preflightFailure struct {
	name string
	err  error
}

// buildSources turns the enabled config entries into fetch-ready
// sources. A source with no stored credential fails preflight here,
// before any network call, without blocking its siblings.
func buildSources(
	ctx context.Context,
	cfg Config,
	fileCfg *config.Config,
	creds ports.CredentialStore,
	httpc ports.HTTPClient,
) ([]ports.Source, []preflightFailure) {
	var (
		sources  []ports.Source
		failures []preflightFailure
	)

	for _, entry := range fileCfg.Sources {
		if !entry.IsEnabled() {
			continue
		}
		if cfg.Source != "" && entry.Name != cfg.Source {
			continue
		}

		fetcher, err := buildFetcher(ctx, cfg, entry.Name, creds, httpc)
		if err != nil {
			failures = append(failures, preflightFailure{name: entry.Name, err: err})
			continue
		}
		sources = append(sources, ports.Source{Name: entry.Name, Fetcher: fetcher})
	}
	return sources, failures
}

func buildFetcher(
	ctx context.Context,
	cfg Config,
	name string,
	creds ports.CredentialStore,
	httpc ports.HTTPClient,
) (ports.PageFetcher, error) {
	switch name {
	case "readwise":
		key, err := creds.APIKey(ctx, name)
		if err != nil {
			return nil, err
		}
		var opts []readwise.Option
		if cfg.ReadwiseBaseURL != "" {
			opts = append(opts, readwise.WithBaseURL(cfg.ReadwiseBaseURL))
		}
		return readwise.New(httpc, key, opts...)
	default:
		return nil, errors.Errorf("unknown source %q", name)
	}
}

func listRecords(ctx context.Context, st ports.RecordStore, source string, stdout io.Writer) error {
	recs, err := st.Records(ctx, source)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		title := "(untitled)"
		if rec.Title != nil && *rec.Title != "" {
			title = *rec.Title
		}
		when := ""
		if rec.CreatedAt != nil {
			when = rec.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(stdout, "%-10s %-40s %s\n", when, title, rec.URL)
	}
	fmt.Fprintf(stdout, "\n%d records for %s\n", len(recs), source)
	return nil
}
