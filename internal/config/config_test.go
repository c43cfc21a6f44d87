package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comicbridge/comicbridge/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("mylar-url", "", "")
	fs.String("kapowarr-api-key", "", "")
	fs.Int("root-folder-id", 0, "")
	fs.Bool("dry-run", false, "")
	fs.Int("delay", 20, "")
	fs.Int("limit", 0, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func validConfig() *Config {
	return &Config{
		Mylar: MylarConfig{URL: "http://mylar:8090", APIKey: "mk", Timeout: time.Minute},
		Kapowarr: KapowarrConfig{
			URL:           "http://kapowarr:5656",
			APIKey:        "kk",
			RootFolderID:  1,
			Root:          "/data/comics",
			ContainerRoot: "/comics-1",
			Timeout:       time.Minute,
		},
		Options: OptionsConfig{Delay: 20, LogLevel: "info", LogFormat: "pretty"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, 60*time.Second, cfg.Mylar.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Kapowarr.Timeout)
	assert.Equal(t, "/mnt/user/data/media/kapowarr", cfg.Kapowarr.Root)
	assert.Equal(t, "/comics-1", cfg.Kapowarr.ContainerRoot)
	assert.Equal(t, 20, cfg.Options.Delay)
	assert.Equal(t, 20*time.Second, cfg.Options.DelayDuration())
	assert.Equal(t, "info", cfg.Options.LogLevel)
	assert.Equal(t, "pretty", cfg.Options.LogFormat)
	assert.False(t, cfg.Options.CopyFiles)
	assert.False(t, cfg.Options.DryRun)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"mylar": {"url": "http://mylar:8090/", "api_key": "mk"},
		"kapowarr": {"url": "http://kapowarr:5656", "api_key": "kk", "root_folder_id": 3, "timeout": "5s"},
		"options": {"copy_files": true, "delay": 2, "log_level": "DEBUG"}
	}`)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "http://mylar:8090", cfg.Mylar.URL)
	assert.Equal(t, "mk", cfg.Mylar.APIKey)
	assert.Equal(t, 3, cfg.Kapowarr.RootFolderID)
	assert.Equal(t, 5*time.Second, cfg.Kapowarr.Timeout)
	assert.True(t, cfg.Options.CopyFiles)
	assert.Equal(t, 2, cfg.Options.Delay)
	assert.Equal(t, "debug", cfg.Options.LogLevel)
	// Unset keys keep their defaults.
	assert.Equal(t, "/comics-1", cfg.Kapowarr.ContainerRoot)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
mylar:
  url: http://mylar:8090
  api_key: mk
options:
  dry_run: true
  limit: 5
`)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "http://mylar:8090", cfg.Mylar.URL)
	assert.True(t, cfg.Options.DryRun)
	assert.Equal(t, 5, cfg.Options.Limit)
}

func TestLoad_FileWithoutExtensionIsJSON(t *testing.T) {
	path := writeFile(t, "comicbridge", `{"options": {"limit": 7}}`)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Options.Limit)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"mylar": `)

	_, err := Load(LoadOptions{ConfigFile: path})
	require.Error(t, err)
}

func TestLoad_DefaultFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(`{"options": {"delay": 9}}`), 0o600))
	t.Chdir(dir)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigFile, cfg.File)
	assert.Equal(t, 9, cfg.Options.Delay)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"mylar": {"url": "http://file:8090", "api_key": "file-key"}}`)
	t.Setenv("COMICBRIDGE_MYLAR_API_KEY", "env-key")
	t.Setenv("COMICBRIDGE_OPTIONS_DELAY", "3")
	t.Setenv("COMICBRIDGE_OPTIONS_DRY_RUN", "true")

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "http://file:8090", cfg.Mylar.URL)
	assert.Equal(t, "env-key", cfg.Mylar.APIKey)
	assert.Equal(t, 3, cfg.Options.Delay)
	assert.True(t, cfg.Options.DryRun)
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "COMICBRIDGE_KAPOWARR_API_KEY"
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	envFile := writeFile(t, ".env", key+"=dotenv-key\n")

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Kapowarr.APIKey)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("COMICBRIDGE_KAPOWARR_URL", "http://from-env:5656")
	envFile := writeFile(t, ".env", "COMICBRIDGE_KAPOWARR_URL=http://from-dotenv:5656\n")

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:5656", cfg.Kapowarr.URL)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), ".env")})
	assert.NoError(t, err)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	path := writeFile(t, "config.json", `{"mylar": {"url": "http://file:8090"}, "options": {"limit": 4}}`)
	t.Setenv("COMICBRIDGE_MYLAR_URL", "http://env:8090")

	flags := testFlags(t, "--mylar-url", "http://flag:8090", "--dry-run", "--root-folder-id", "2")

	cfg, err := Load(LoadOptions{ConfigFile: path, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "http://flag:8090", cfg.Mylar.URL)
	assert.True(t, cfg.Options.DryRun)
	assert.Equal(t, 2, cfg.Kapowarr.RootFolderID)
	// Flags the user did not set leave lower layers alone.
	assert.Equal(t, 4, cfg.Options.Limit)
	assert.Equal(t, 20, cfg.Options.Delay)
}

func TestValidate_Scopes(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		scope      Scope
		wantFields []string
	}{
		{
			name:  "valid migrate",
			scope: ScopeMigrate,
		},
		{
			name:       "migrate requires root folder",
			mutate:     func(c *Config) { c.Kapowarr.RootFolderID = 0 },
			scope:      ScopeMigrate,
			wantFields: []string{"kapowarr.root_folder_id"},
		},
		{
			name: "migrate reports every section",
			mutate: func(c *Config) {
				c.Mylar.APIKey = ""
				c.Kapowarr.URL = "not a url"
				c.Options.Delay = -1
			},
			scope:      ScopeMigrate,
			wantFields: []string{"mylar.api_key", "kapowarr.url", "options.delay"},
		},
		{
			name:   "source ignores destination",
			mutate: func(c *Config) { c.Kapowarr = KapowarrConfig{} },
			scope:  ScopeSource,
		},
		{
			name:       "source requires mylar",
			mutate:     func(c *Config) { c.Mylar.URL = "" },
			scope:      ScopeSource,
			wantFields: []string{"mylar.url"},
		},
		{
			name: "destination ignores source and root folder",
			mutate: func(c *Config) {
				c.Mylar = MylarConfig{}
				c.Kapowarr.RootFolderID = 0
			},
			scope: ScopeDestination,
		},
		{
			name:       "destination container root must be absolute",
			mutate:     func(c *Config) { c.Kapowarr.ContainerRoot = "comics-1" },
			scope:      ScopeDestination,
			wantFields: []string{"kapowarr.container_root"},
		},
		{
			name:       "history requires a database",
			scope:      ScopeHistory,
			wantFields: []string{"options.history_db"},
		},
		{
			name:   "history ignores both catalogs",
			mutate: func(c *Config) { *c = Config{Options: OptionsConfig{LogLevel: "warn", LogFormat: "json", HistoryDB: "h.db"}} },
			scope:  ScopeHistory,
		},
		{
			name:       "options checked in every scope",
			mutate:     func(c *Config) { c.Options.LogFormat = "xml" },
			scope:      ScopeSource,
			wantFields: []string{"options.log_format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err := cfg.Validate(tt.scope)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			for _, field := range tt.wantFields {
				assert.Contains(t, details, field)
			}
			assert.Len(t, details, len(tt.wantFields))
		})
	}
}
