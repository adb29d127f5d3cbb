package app

import (
	"github.com/panevka/nhsmongifyer/internal/ingest"
	"github.com/panevka/nhsmongifyer/internal/loader"
	"github.com/panevka/nhsmongifyer/internal/transport"
)

// geoapifyKeyParam is the query parameter Geoapify reads the key from.
const geoapifyKeyParam = "apiKey"

func (a *App) contractsClient() *transport.Client {
	return transport.New("nfz", a.config.NFZAPIURL,
		transport.WithTimeout(a.config.HTTPTimeout),
		transport.WithLogger(a.logger))
}

// geocoder returns nil without a key so the runner skips enrichment.
func (a *App) geocoder() ingest.Fetcher {
	if a.config.GeoapifyKey == "" {
		return nil
	}
	return transport.New("geoapify", a.config.GeoAPIURL,
		transport.WithTimeout(a.config.HTTPTimeout),
		transport.WithAuth(transport.QueryAuth{Param: geoapifyKeyParam, Key: a.config.GeoapifyKey}),
		transport.WithLogger(a.logger))
}

func (a *App) pipelineOptions() []ingest.Option {
	return []ingest.Option{
		ingest.WithPageLimit(a.config.PageLimit),
		ingest.WithStartPage(a.config.StartPage),
		ingest.WithMaxPageAttempts(a.config.MaxPageAttempts),
		ingest.WithLookupDelay(a.config.LookupDelay),
		ingest.WithAPIVersion(a.config.APIVersion),
	}
}

// validatePipelineOptions reports option errors before any command starts.
func (a *App) validatePipelineOptions() error {
	return ingest.Defaults().Apply(a.pipelineOptions()...).Validate()
}

// loaders opens every configured database. Handles are closed on Shutdown.
func (a *App) loaders() ([]ingest.Loader, error) {
	var loaders []ingest.Loader

	if len(a.config.Elasticsearch.Addresses) > 0 {
		es, err := loader.NewElasticsearch(a.config.Elasticsearch.Addresses, a.config.Elasticsearch.IndexPrefix, a.logger)
		if err != nil {
			return nil, err
		}
		loaders = append(loaders, es)
	}

	if a.config.Postgres.DSN != "" {
		pg, err := loader.OpenPostgres(a.config.Postgres.DSN, a.logger)
		if err != nil {
			return nil, err
		}
		a.onShutdown(pg)
		loaders = append(loaders, pg)
	}

	return loaders, nil
}

func (a *App) newRunner(stages []ingest.Stage, loaders []ingest.Loader) *ingest.Runner {
	return ingest.NewRunner(ingest.RunnerConfig{
		Contracts: a.contractsClient(),
		Geocoder:  a.geocoder(),
		OutputDir: a.config.OutputDir,
		Stages:    stages,
		Options:   a.pipelineOptions(),
		Dedupe:    a.config.Dedupe,
		Loaders:   loaders,
		Logger:    a.logger,
		Metrics:   a.Metrics(),
	})
}
