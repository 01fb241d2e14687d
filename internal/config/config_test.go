package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rojanmagar2001/readsync/internal/config"
)

func TestLoad_MissingFileYieldsDefault(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "readwise", cfg.Sources[0].Name)
	assert.True(t, cfg.Sources[0].IsEnabled())
}

func TestLoad_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /tmp/custom.db
page_delay: 2s
sources:
  - name: readwise
  - name: pocket
    enabled: false
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.DB)

	d, err := cfg.Delay()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	require.Len(t, cfg.Sources, 2)
	assert.True(t, cfg.Sources[0].IsEnabled())
	assert.False(t, cfg.Sources[1].IsEnabled())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [b\ta/d"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestDelay_Invalid(t *testing.T) {
	cfg := &config.Config{PageDelay: "soon"}
	_, err := cfg.Delay()
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &config.Config{
		DB:        "/data/rs.db",
		PageDelay: "500ms",
		Sources:   []config.SourceEntry{{Name: "readwise"}},
	}
	require.NoError(t, config.Save(in, path))

	out, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, in.DB, out.DB)
	assert.Equal(t, in.PageDelay, out.PageDelay)
	assert.Equal(t, in.Sources, out.Sources)
}
