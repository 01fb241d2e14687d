package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rojanmagar2001/readsync/internal/domain"
	"github.com/rojanmagar2001/readsync/internal/infra/store"
	"github.com/rojanmagar2001/readsync/internal/ports"
)

func openTestDB(t *testing.T) *store.SQLite {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "readsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func strptr(s string) *string { return &s }

func TestSQLite_ApplyPageAndReadBack(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	inserts := []domain.Record{
		{ID: "2", URL: "https://a/2"},
		{ID: "1", URL: "https://a/1", Title: strptr("one"), CreatedAt: &created},
	}
	require.NoError(t, st.ApplyPage(ctx, "readwise", nil, inserts))

	recs, err := st.Records(ctx, "readwise")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Ordered by id.
	assert.Equal(t, "1", recs[0].ID)
	require.NotNil(t, recs[0].Title)
	assert.Equal(t, "one", *recs[0].Title)
	require.NotNil(t, recs[0].CreatedAt)
	assert.True(t, created.Equal(*recs[0].CreatedAt))

	assert.Equal(t, "2", recs[1].ID)
	assert.Nil(t, recs[1].Title)
	assert.Nil(t, recs[1].CreatedAt)

	n, err := st.CountRecords(ctx, "readwise")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLite_UpdateOverwritesMutableFields(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)

	require.NoError(t, st.ApplyPage(ctx, "readwise", nil,
		[]domain.Record{{ID: "1", URL: "https://a/1", Title: strptr("old")}}))
	require.NoError(t, st.ApplyPage(ctx, "readwise",
		[]domain.Record{{ID: "1", URL: "https://a/1b", Title: strptr("new")}}, nil))

	recs, err := st.Records(ctx, "readwise")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://a/1b", recs[0].URL)
	assert.Equal(t, "new", *recs[0].Title)
}

func TestSQLite_RepeatedIDInOnePageLastWriteWins(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)

	require.NoError(t, st.ApplyPage(ctx, "readwise", nil, []domain.Record{
		{ID: "1", URL: "https://a/1", Title: strptr("first")},
		{ID: "1", URL: "https://a/1", Title: strptr("second")},
	}))

	recs, err := st.Records(ctx, "readwise")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "second", *recs[0].Title)
}

func TestSQLite_SourcesAreDisjoint(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)

	require.NoError(t, st.ApplyPage(ctx, "readwise", nil,
		[]domain.Record{{ID: "1", URL: "https://a/1"}}))
	require.NoError(t, st.ApplyPage(ctx, "pocket", nil,
		[]domain.Record{{ID: "1", URL: "https://b/1"}}))

	rw, err := st.Records(ctx, "readwise")
	require.NoError(t, err)
	pk, err := st.Records(ctx, "pocket")
	require.NoError(t, err)

	require.Len(t, rw, 1)
	require.Len(t, pk, 1)
	assert.Equal(t, "https://a/1", rw[0].URL)
	assert.Equal(t, "https://b/1", pk[0].URL)
}

func TestSQLite_APIKeys(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)

	_, err := st.APIKey(ctx, "readwise")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrNoAPIKey))

	require.NoError(t, st.SetAPIKey(ctx, "readwise", "tok-1"))
	key, err := st.APIKey(ctx, "readwise")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", key)

	// Overwrite.
	require.NoError(t, st.SetAPIKey(ctx, "readwise", "tok-2"))
	key, err = st.APIKey(ctx, "readwise")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", key)

	require.Error(t, st.SetAPIKey(ctx, "readwise", ""))
}

func TestSQLite_RunJournal(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)

	id1, err := st.BeginRun(ctx, "readwise")
	require.NoError(t, err)
	require.NotEmpty(t, id1)
	require.NoError(t, st.FinishRun(ctx, id1, 3, 120, nil))

	id2, err := st.BeginRun(ctx, "readwise")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	require.NoError(t, st.FinishRun(ctx, id2, 1, 0, errors.New("boom")))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "readsync.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.ApplyPage(ctx, "readwise", nil,
		[]domain.Record{{ID: "1", URL: "https://a/1"}}))
	require.NoError(t, st.Close())

	st2, err := store.Open(path)
	require.NoError(t, err)
	defer st2.Close()

	recs, err := st2.Records(ctx, "readwise")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].ID)
}
