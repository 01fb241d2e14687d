// readsync pulls paginated records from remote bookmarking services
// into a local SQLite file and lists them.
//
// Usage:
//
//	readsync -set-key readwise -key <token>   store a credential
//	readsync                                  sync all enabled sources
//	readsync -list readwise                   print stored records
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rojanmagar2001/readsync/internal/app"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (default ~/.readsync/config.yaml)")
		dbPath     = flag.String("db", "", "Database file (default ~/.readsync/readsync.db)")
		timeout    = flag.Duration("timeout", 5*time.Second, "Per-request HTTP timeout")
		pageDelay  = flag.Duration("page-delay", 0, "Delay between page fetches (default 1s)")
		source     = flag.String("source", "", "Sync only this source")
		list       = flag.String("list", "", "Print stored records for a source and exit")
		setKey     = flag.String("set-key", "", "Store an API key for a source and exit")
		key        = flag.String("key", "", "API key value for -set-key")
		initConfig = flag.Bool("init-config", false, "Write the default config file and exit")
		verbose    = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	cfg := app.Config{
		ConfigPath:   *configPath,
		DBPath:       *dbPath,
		Timeout:      *timeout,
		PageDelay:    *pageDelay,
		Source:       *source,
		ListSource:   *list,
		SetKeySource: *setKey,
		Key:          *key,
		InitConfig:   *initConfig,
		Verbose:      *verbose,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
