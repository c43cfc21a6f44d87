package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/di/providers"
	"github.com/comicbridge/comicbridge/internal/kapowarr"
	"github.com/comicbridge/comicbridge/internal/migrate"
	"github.com/comicbridge/comicbridge/internal/ratelimit"
)

func writeConfig(t *testing.T, dir, historyDB string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := `
mylar:
  url: http://mylar:8090
  api_key: mk
kapowarr:
  url: http://kapowarr:5656
  api_key: kk
  root_folder_id: 2
  root: ` + dir + `
options:
  dry_run: true
  copy_files: true
  limit: 3
  delay: 5
  log_level: error
  history_db: ` + historyDB + `
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestContainer(t *testing.T, historyDB string) *do.RootScope {
	t.Helper()
	dir := t.TempDir()
	injector := NewContainer(Params{
		Load: config.LoadOptions{
			ConfigFile: writeConfig(t, dir, historyDB),
			EnvFile:    filepath.Join(dir, "missing.env"),
		},
		Run: providers.RunFlags{ResumeFrom: "Saga"},
	})
	t.Cleanup(func() { _ = injector.Shutdown() })
	return injector
}

func TestContainer_Pipeline(t *testing.T) {
	injector := newTestContainer(t, "")

	pipeline, err := do.Invoke[*migrate.Pipeline](injector)
	require.NoError(t, err)

	assert.Equal(t, migrate.Options{
		CopyFiles:  true,
		DryRun:     true,
		Limit:      3,
		ResumeFrom: "Saga",
	}, pipeline.Options())
}

func TestContainer_DryRunIsClientOption(t *testing.T) {
	injector := newTestContainer(t, "")

	client, err := do.Invoke[*kapowarr.Client](injector)
	require.NoError(t, err)
	assert.True(t, client.DryRun())
}

func TestContainer_LimiterUsesConfiguredDelay(t *testing.T) {
	injector := newTestContainer(t, "")

	limiter, err := do.Invoke[*ratelimit.Limiter](injector)
	require.NoError(t, err)
	assert.True(t, limiter.Enabled())
	assert.Equal(t, "5s", limiter.Delay().String())
}

func TestContainer_HistoryDisabledByDefault(t *testing.T) {
	injector := newTestContainer(t, "")

	handle, err := do.Invoke[*providers.HistoryHandle](injector)
	require.NoError(t, err)
	assert.False(t, handle.Enabled())
	assert.NoError(t, handle.Shutdown())
}

func TestContainer_HistoryEnabled(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	injector := newTestContainer(t, dbPath)

	handle, err := do.Invoke[*providers.HistoryHandle](injector)
	require.NoError(t, err)
	require.True(t, handle.Enabled())

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestContainer_ConfigErrorSurfaces(t *testing.T) {
	injector := NewContainer(Params{
		Load: config.LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.json")},
	})

	_, err := do.Invoke[*config.Config](injector)
	assert.Error(t, err)
}
