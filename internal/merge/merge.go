// Package merge folds the raw files of a partition into the normalized
// output collections.
package merge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/internal/metrics"
	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/internal/validation"
	"github.com/panevka/nhsmongifyer/pkg/collections"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/geo"
	"github.com/panevka/nhsmongifyer/pkg/logging"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// Report counts what one fold did.
type Report struct {
	Collection collections.Kind `json:"collection"`
	Written    int              `json:"written"`
	Skipped    int              `json:"skipped"`
	Total      int              `json:"total"`
}

// Engine runs the folds of one partition.
type Engine struct {
	store   *store.Store
	dedupe  bool
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithDedupe makes the agreement and geo folds replace entries by key
// instead of appending.
func WithDedupe(dedupe bool) Option {
	return func(e *Engine) { e.dedupe = dedupe }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a merge engine over st.
func NewEngine(st *store.Store, opts ...Option) *Engine {
	e := &Engine{store: st}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger)
	return e
}

// Fold runs the fold producing kind.
func (e *Engine) Fold(ctx context.Context, kind collections.Kind) (Report, error) {
	switch kind {
	case collections.ProvidersInfo:
		return e.ProvidersInfo(ctx)
	case collections.ProvidersGeo:
		return e.ProvidersGeo(ctx)
	case collections.Agreements:
		return e.Agreements(ctx)
	default:
		return Report{Collection: kind}, errors.NewConfigError("merge", fmt.Sprintf("unknown collection %q", kind), nil)
	}
}

// All runs every fold and stops at the first fatal error.
func (e *Engine) All(ctx context.Context) ([]Report, error) {
	reports := make([]Report, 0, len(collections.Kinds()))
	for _, kind := range []collections.Kind{collections.ProvidersInfo, collections.ProvidersGeo, collections.Agreements} {
		r, err := e.Fold(ctx, kind)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// ProvidersInfo attaches every agreement id to its provider. Entries are
// keyed by provider code and carry each id once.
func (e *Engine) ProvidersInfo(ctx context.Context) (Report, error) {
	report := Report{Collection: collections.ProvidersInfo}
	layout := e.store.Layout()

	providers := make(map[string]nfz.Provider)
	for _, p := range store.ReadRecords[nfz.Provider](e.store, layout.ProvidersPath()) {
		if _, ok := providers[p.Attributes.Code]; !ok {
			providers[p.Attributes.Code] = p
		}
	}

	coll := store.OpenCollection(e.store, layout.CollectionPath(collections.ProvidersInfo),
		func(p collections.ProviderInfo) string { return p.Code })

	err := e.eachAgreement(ctx, &report, func(a nfz.Agreement) {
		code := a.Attributes.ProviderCode
		provider, ok := providers[code]
		if !ok {
			report.Skipped++
			e.metrics.Skipped("merge", "unresolved")
			e.logger.Debug().Str("agreement_id", a.ID).Str("provider_code", code).Msg("No provider for agreement")
			return
		}

		if _, exists := coll.Get(code); !exists && !e.valid(&report, "ProviderInfo", collections.NewProviderInfo(provider)) {
			return
		}
		added := false
		coll.Upsert(code,
			func() collections.ProviderInfo { return collections.NewProviderInfo(provider) },
			func(p *collections.ProviderInfo) { added = p.AddAgreement(a.ID) })
		if added {
			report.Written++
		}
	})
	if err != nil {
		return report, err
	}
	return finish(e, coll, report)
}

// ProvidersGeo projects every geo entry into a ProviderGeoData document.
func (e *Engine) ProvidersGeo(ctx context.Context) (Report, error) {
	report := Report{Collection: collections.ProvidersGeo}
	layout := e.store.Layout()

	var key func(collections.ProviderGeoData) string
	if e.dedupe {
		key = func(g collections.ProviderGeoData) string { return g.Code }
	}
	coll := store.OpenCollection(e.store, layout.CollectionPath(collections.ProvidersGeo), key)

	for _, entry := range store.ReadRecords[geo.Entry](e.store, layout.GeoPath()) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doc := collections.NewProviderGeoData(entry)
		if !e.valid(&report, "ProviderGeoData", doc) {
			continue
		}
		add(coll, e.dedupe, doc)
		report.Written++
	}
	return finish(e, coll, report)
}

// Agreements projects every harvested agreement into an AgreementInfo
// document.
func (e *Engine) Agreements(ctx context.Context) (Report, error) {
	report := Report{Collection: collections.Agreements}
	layout := e.store.Layout()

	var key func(collections.AgreementInfo) string
	if e.dedupe {
		key = func(a collections.AgreementInfo) string { return a.ID }
	}
	coll := store.OpenCollection(e.store, layout.CollectionPath(collections.Agreements), key)

	err := e.eachAgreement(ctx, &report, func(a nfz.Agreement) {
		info := collections.NewAgreementInfo(a)
		if !e.valid(&report, "AgreementInfo", info) {
			return
		}
		add(coll, e.dedupe, info)
		report.Written++
	})
	if err != nil {
		return report, err
	}
	return finish(e, coll, report)
}

// eachAgreement walks the saved pages in page order. Records that fail
// validation are counted as skipped one by one.
func (e *Engine) eachAgreement(ctx context.Context, report *Report, fn func(nfz.Agreement)) error {
	pages, err := e.store.SortedPages()
	if err != nil {
		return err
	}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		store.ScanRecords(e.store, page.Path, func(_ int, a nfz.Agreement, err error) {
			if e.skip(report, err) || ctx.Err() != nil {
				return
			}
			fn(a)
		})
	}
	return ctx.Err()
}

func (e *Engine) valid(report *Report, schema string, v any) bool {
	return !e.skip(report, validation.Struct(schema, v))
}

// skip counts err against report when it drops the record.
func (e *Engine) skip(report *Report, err error) bool {
	outcome := errors.Classify(err)
	if outcome.OK() {
		return false
	}
	report.Skipped++
	e.metrics.Skipped("merge", outcome.Reason())
	e.logger.Error().Err(err).Str("collection", string(report.Collection)).Msg("Skipping invalid entry")
	return true
}

// add replaces by key when the collection is keyed and appends otherwise.
func add[T any](coll *store.Collection[T], keyed bool, item T) {
	if keyed {
		coll.Put(item)
		return
	}
	coll.Append(item)
}

func finish[T any](e *Engine, coll *store.Collection[T], report Report) (Report, error) {
	if err := coll.Flush(); err != nil {
		return report, err
	}
	report.Total = coll.Len()

	layout := e.store.Layout()
	e.metrics.SetCollection(string(report.Collection), string(layout.Branch), string(layout.Service), report.Total)
	e.logger.Info().
		Str("collection", string(report.Collection)).
		Int("written", report.Written).
		Int("skipped", report.Skipped).
		Int("total", report.Total).
		Msg("Merged collection")
	return report, nil
}
