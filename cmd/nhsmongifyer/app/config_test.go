package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultOutputDir, config.OutputDir)
	assert.Equal(t, constants.NFZBaseURL, config.NFZAPIURL)
	assert.Equal(t, constants.GeoapifyBaseURL, config.GeoAPIURL)
	assert.Equal(t, constants.DefaultPageLimit, config.PageLimit)
	assert.Equal(t, constants.DefaultMaxPageAttempts, config.MaxPageAttempts)
	assert.Equal(t, constants.DefaultLookupDelay, config.LookupDelay)
	assert.Equal(t, constants.DefaultServeAddr, config.Serve.Addr)
	assert.Equal(t, "auto", config.LogFormat)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NHS_OUTPUT_DIR", "/data")
	t.Setenv("NHS_PAGE_LIMIT", "10")
	t.Setenv("NHS_LOOKUP_DELAY", "250ms")
	t.Setenv("NHS_DEDUPE", "true")
	t.Setenv("NHS_ELASTICSEARCH_ADDRESSES", "http://es1:9200, http://es2:9200")
	t.Setenv("NHS_POSTGRES_DSN", "postgres://localhost/nfz")
	t.Setenv("GEOAPIFY_KEY", "secret")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/data", config.OutputDir)
	assert.Equal(t, 10, config.PageLimit)
	assert.Equal(t, 250*time.Millisecond, config.LookupDelay)
	assert.True(t, config.Dedupe)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, config.Elasticsearch.Addresses)
	assert.Equal(t, "postgres://localhost/nfz", config.Postgres.DSN)
	assert.Equal(t, "secret", config.GeoapifyKey)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	// Registered so the value loaded from .env is removed after the test.
	t.Setenv("NHS_START_PAGE", "")
	require.NoError(t, os.Unsetenv("NHS_START_PAGE"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NHS_START_PAGE=4\n"), 0o600))

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4, config.StartPage)
}

func TestLoadConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `output_dir: /srv/nfz
http_timeout: 5s
elasticsearch:
  addresses:
    - http://localhost:9200
  index_prefix: contracts
schedule:
  cron: "0 3 * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/nfz", config.OutputDir)
	assert.Equal(t, 5*time.Second, config.HTTPTimeout)
	assert.Equal(t, []string{"http://localhost:9200"}, config.Elasticsearch.Addresses)
	assert.Equal(t, "contracts", config.Elasticsearch.IndexPrefix)
	assert.Equal(t, "0 3 * * *", config.Schedule.Cron)
	assert.Equal(t, path, config.ConfigFile)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{OutputDir: ".", Format: "table", LogLevel: "info"}
	config.UpdateFromFlags(true, false, true, "", "debug", "/tmp/out")

	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "table", config.Format)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "/tmp/out", config.OutputDir)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			OutputDir:   ".",
			NFZAPIURL:   constants.NFZBaseURL,
			GeoAPIURL:   constants.GeoapifyBaseURL,
			HTTPTimeout: time.Second,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = " " }},
		{"relative api url", func(c *Config) { c.NFZAPIURL = "api.nfz.gov.pl" }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"bad elasticsearch address", func(c *Config) { c.Elasticsearch.Addresses = []string{"localhost"} }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			assert.ErrorIs(t, config.Validate(), errors.ErrConfig)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup, matching testing.T.Chdir from newer Go releases.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if abs, err := filepath.Abs(dir); err == nil {
		t.Setenv("PWD", abs)
	}
}
