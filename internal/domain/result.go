package domain

import "time"

// SyncResult is the outcome of one full sync invocation for one source.
type SyncResult struct {
	Source   string
	Pages    int
	Fetched  int
	Inserted int
	Updated  int
	Elapsed  time.Duration
	Err      error
}

func (r SyncResult) Failed() bool { return r.Err != nil }
