// Package ingest harvests one partition from the remote APIs into the
// document store: agreement pages first, then the providers they
// reference, then the geocoded location of each provider.
package ingest

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/pkg/logging"
)

// Endpoints.
const (
	AgreementsEndpoint = "agreements"
	ProvidersEndpoint  = "providers"
	GeocodeEndpoint    = "geocode/search"
)

// Fetcher performs one GET against an API and returns the JSON body.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error)
}

// Pipeline runs the ingestion stages of one partition.
type Pipeline struct {
	contracts Fetcher
	geocoder  Fetcher
	store     *store.Store
	opts      *Options
	logger    *zerolog.Logger

	lookupLimiter  *rate.Limiter
	geocodeLimiter *rate.Limiter
}

// NewPipeline creates a pipeline. geocoder may be nil, in which case
// EnrichGeo reports a configuration error.
func NewPipeline(contracts, geocoder Fetcher, st *store.Store, opts ...Option) (*Pipeline, error) {
	o := Defaults().Apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		contracts:      contracts,
		geocoder:       geocoder,
		store:          st,
		opts:           o,
		logger:         logging.OrNop(o.Logger),
		lookupLimiter:  pacer(o.LookupDelay),
		geocodeLimiter: pacer(o.GeocodeDelay),
	}, nil
}

// pacer allows one call per delay, with no pause before the first.
func pacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
