package ingest

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/internal/metrics"
	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
)

// Options tune pagination and pacing.
type Options struct {
	// PageLimit is the number of agreements requested per page
	PageLimit int

	// StartPage is the first page requested
	StartPage int

	// MaxPageAttempts bounds consecutive failures on the same page
	MaxPageAttempts int

	// LookupDelay is the pause before each provider lookup
	LookupDelay time.Duration

	// GeocodeDelay is the pause before each geocoding request
	GeocodeDelay time.Duration

	// APIVersion is sent as api-version to the contracts API
	APIVersion string

	Logger  *zerolog.Logger
	Metrics *metrics.Metrics
}

// Defaults returns the options used when none are given.
func Defaults() *Options {
	return &Options{
		PageLimit:       constants.DefaultPageLimit,
		StartPage:       constants.DefaultStartPage,
		MaxPageAttempts: constants.DefaultMaxPageAttempts,
		LookupDelay:     constants.DefaultLookupDelay,
		APIVersion:      constants.NFZAPIVersion,
	}
}

// Option is a function that configures Options.
type Option func(*Options)

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.PageLimit <= 0 || o.PageLimit > constants.MaxPageLimit {
		return errors.NewSchemaError("Options", "page_limit", "must be between 1 and 25")
	}
	if o.StartPage <= 0 {
		return errors.NewSchemaError("Options", "start_page", "must be positive")
	}
	if o.MaxPageAttempts <= 0 {
		return errors.NewSchemaError("Options", "max_page_attempts", "must be positive")
	}
	if o.LookupDelay < 0 || o.GeocodeDelay < 0 {
		return errors.NewSchemaError("Options", "delay", "must not be negative")
	}
	return nil
}

// WithPageLimit sets the page size.
func WithPageLimit(n int) Option {
	return func(o *Options) { o.PageLimit = n }
}

// WithStartPage sets the first page.
func WithStartPage(n int) Option {
	return func(o *Options) { o.StartPage = n }
}

// WithMaxPageAttempts bounds consecutive failures on one page.
func WithMaxPageAttempts(n int) Option {
	return func(o *Options) { o.MaxPageAttempts = n }
}

// WithLookupDelay sets the pause before each provider lookup.
func WithLookupDelay(d time.Duration) Option {
	return func(o *Options) { o.LookupDelay = d }
}

// WithGeocodeDelay sets the pause before each geocoding request.
func WithGeocodeDelay(d time.Duration) Option {
	return func(o *Options) { o.GeocodeDelay = d }
}

// WithAPIVersion sets the contracts API version.
func WithAPIVersion(v string) Option {
	return func(o *Options) { o.APIVersion = v }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}
