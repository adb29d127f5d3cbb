package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/pkg/collections"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

const agreementsBody = `{"meta": {"page": 1, "limit": 25}, "links": {}, "data": {"agreements": [
  {"id": "A1", "type": "agreement", "attributes": {"code": "C-1", "origin-code": "O", "service-type": "03", "service-name": "Szpital", "amount": 100.5, "provider-code": "P1", "year": 2025, "branch": "07"}, "links": {}},
  {"id": "A2", "type": "agreement", "attributes": {"code": "C-2", "origin-code": "O", "service-type": "03", "service-name": "Szpital", "amount": 20, "provider-code": "P1", "year": 2025, "branch": "07"}, "links": {}}
]}}`

const providersBody = `{"meta": {}, "data": {"entries": [
  {"id": "id-P1", "type": "provider", "attributes": {"code": "P1", "name": "Szpital P1", "nip": "1", "regon": "2", "registry-number": "3", "street": "Prosta 1", "place": "Warszawa", "post-code": "00-001", "branch": "07"}}
]}}`

// contractsAPI serves one page of agreements held by provider P1.
func contractsAPI(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/agreements":
			_, _ = w.Write([]byte(agreementsBody))
		case "/providers":
			_, _ = w.Write([]byte(providersBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

type testApp struct {
	*App
	out  *bytes.Buffer
	logs *logging.TestLogger
}

func newTestApp(t *testing.T, mutate func(*Config)) *testApp {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)
	config.OutputDir = t.TempDir()
	config.LookupDelay = 0
	config.GeoapifyKey = ""
	if mutate != nil {
		mutate(config)
	}

	out := &bytes.Buffer{}
	tl := logging.NewTestLogger(t)
	app, err := New("1.2.3", "abc123", "2025-01-01", "test",
		WithConfig(config), WithLogger(tl.Logger), WithStdout(out))
	require.NoError(t, err)
	return &testApp{App: app, out: out, logs: tl}
}

func (a *testApp) run(args ...string) error {
	a.out.Reset()
	return a.Execute(context.Background(), args)
}

func TestRunCommand(t *testing.T) {
	api, _ := contractsAPI(t)
	app := newTestApp(t, func(c *Config) { c.NFZAPIURL = api.URL })

	err := app.run("run", "--branch", "mazowieckie", "--service", "03", "--year", "2025", "-o", "json")
	require.NoError(t, err)

	var summary summaryView
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &summary))
	require.Len(t, summary.Partitions, 1)
	part := summary.Partitions[0]
	assert.Equal(t, "success", part.Status)
	assert.Equal(t, 2, part.Agreements)
	assert.Equal(t, 1, part.Providers.Resolved)
	assert.Len(t, part.Collections, 3)
	assert.NotEmpty(t, summary.RunID)

	layout := store.NewLayout(app.Config().OutputDir, nfz.Mazowieckie, nfz.Hospital)
	st := store.New(layout, nil)
	infos := store.ReadRecords[collections.ProviderInfo](st, layout.CollectionPath(collections.ProvidersInfo))
	require.Len(t, infos, 1)
	assert.Equal(t, "P1", infos[0].Code)
	assert.ElementsMatch(t, []string{"A1", "A2"}, infos[0].Agreements)

	app.logs.AssertContains(t, "Skipping geocoding")
}

func TestRunCommandRejectsInvalidRunsBeforeFetching(t *testing.T) {
	api, calls := contractsAPI(t)
	app := newTestApp(t, func(c *Config) { c.NFZAPIURL = api.URL })

	err := app.run("run", "--branch", "99", "--service", "03")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Zero(t, calls.Load())
}

func TestRunCommandStrict(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(api.Close)
	app := newTestApp(t, func(c *Config) {
		c.NFZAPIURL = api.URL
		c.MaxPageAttempts = 1
	})

	require.NoError(t, app.run("run", "--branch", "07", "--service", "03", "-o", "json"))
	assert.Contains(t, app.out.String(), `"status": "fatal"`)

	err := app.run("run", "--branch", "07", "--service", "03", "--strict", "-o", "json")
	var pe *errors.PartitionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "harvest", pe.Stage)
}

func TestHarvestThenMerge(t *testing.T) {
	api, _ := contractsAPI(t)
	app := newTestApp(t, func(c *Config) { c.NFZAPIURL = api.URL })
	layout := store.NewLayout(app.Config().OutputDir, nfz.Mazowieckie, nfz.Hospital)

	require.NoError(t, app.run("harvest", "--branch", "07", "--service", "03", "--no-geo", "-o", "json"))
	_, err := os.Stat(layout.ProvidersPath())
	require.NoError(t, err)
	st := store.New(layout, nil)
	assert.Empty(t, st.LoadArray(layout.CollectionPath(collections.Agreements)))

	require.NoError(t, app.run("merge", "--branch", "07", "--service", "03", "--dedupe", "-o", "json"))
	assert.Len(t, st.LoadArray(layout.CollectionPath(collections.Agreements)), 2)

	// Dedupe keeps a rerun from appending the same agreements again.
	require.NoError(t, app.run("merge", "--branch", "07", "--service", "03", "--dedupe", "-o", "json"))
	assert.Len(t, st.LoadArray(layout.CollectionPath(collections.Agreements)), 2)
}

func TestLoadWithoutLoaders(t *testing.T) {
	app := newTestApp(t, nil)
	err := app.run("load", "--branch", "07", "--service", "03")
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestValidateCommand(t *testing.T) {
	app := newTestApp(t, nil)

	require.NoError(t, app.run("validate", "--branch", "07", "--service", "03"))
	assert.Contains(t, app.out.String(), "Configuration is valid (1 runs checked)")
	app.logs.AssertContains(t, "No Geoapify key configured")

	err := app.run("validate", "--branch", "07", "--service", "99")
	assert.True(t, errors.IsValidationError(err))

	app.Config().Schedule.Cron = "every day"
	assert.ErrorIs(t, app.run("validate"), errors.ErrConfig)
}

func TestValidateRejectsBadPageLimit(t *testing.T) {
	app := newTestApp(t, func(c *Config) { c.PageLimit = 100 })
	err := app.run("validate")
	assert.True(t, errors.IsValidationError(err))
}

func TestEnumerationCommands(t *testing.T) {
	app := newTestApp(t, nil)

	require.NoError(t, app.run("branches", "-o", "json"))
	var branches []enumEntry
	require.NoError(t, json.Unmarshal(app.out.Bytes(), &branches))
	assert.Len(t, branches, len(nfz.Branches()))
	assert.Contains(t, branches, enumEntry{Code: "07", Name: "Mazowieckie"})

	require.NoError(t, app.run("services", "-o", "yaml"))
	assert.Contains(t, app.out.String(), "name: LeczenieSzpitalne")

	require.NoError(t, app.run("services", "-o", "table"))
	assert.Contains(t, app.out.String(), "LeczenieSzpitalne")
	assert.Contains(t, app.out.String(), "CODE")

	assert.Error(t, app.run("services", "-o", "xml"))
}

func TestVersionCommand(t *testing.T) {
	app := newTestApp(t, nil)
	require.NoError(t, app.run("version"))
	assert.Equal(t, "nhsmongifyer 1.2.3 (commit abc123, built 2025-01-01 by test)\n", app.out.String())
}

func TestShutdownWritesMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nhsmongifyer.prom")
	app := newTestApp(t, func(c *Config) { c.MetricsFile = path })

	require.NoError(t, app.Shutdown(context.Background()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no metrics were collected")

	app.Metrics().PartitionDone("success")
	require.NoError(t, app.Shutdown(context.Background()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "success")
}
