package ingest

import (
	"context"
	"net/url"
	"time"

	"github.com/panevka/nhsmongifyer/internal/metrics"
	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/internal/validation"
	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/geo"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// LookupReport lists the keys of a lookup stage by outcome.
type LookupReport struct {
	Stage          string
	Resolved       []string
	Unresolved     []string
	Failed         []string
	SkippedRecords int
	Duration       time.Duration
}

// lookupOutcome classifies the result of one lookup and names the bucket it
// is reported, counted and logged under.
func lookupOutcome(err error) (errors.Outcome, string) {
	outcome := errors.Classify(err)
	switch {
	case outcome.OK():
		return outcome, metrics.Resolved
	case outcome.Status == errors.Skip && errors.IsNotFound(err):
		return outcome, metrics.Unresolved
	default:
		return outcome, metrics.Failed
	}
}

func (r *LookupReport) record(key, label string) {
	switch label {
	case metrics.Resolved:
		r.Resolved = append(r.Resolved, key)
	case metrics.Unresolved:
		r.Unresolved = append(r.Unresolved, key)
	default:
		r.Failed = append(r.Failed, key)
	}
}

// finishLookup reports one lookup. Fatal outcomes are returned for the
// caller to abort on.
func (p *Pipeline) finishLookup(report *LookupReport, key string, err error) error {
	outcome, label := lookupOutcome(err)
	if outcome.Status == errors.Fatal {
		return err
	}
	report.record(key, label)
	p.opts.Metrics.Lookup(report.Stage, label)

	event := p.logger.Debug()
	msg := "Lookup resolved"
	switch label {
	case metrics.Unresolved:
		event, msg = p.logger.Warn(), "Unresolved "+report.Stage
	case metrics.Failed:
		event, msg = p.logger.Error().Err(err).Str("reason", outcome.Reason()), "Lookup failed, skipping"
	}
	event.Str("stage", report.Stage).Str("provider_code", key).Msg(msg)
	return nil
}

// ResolveProviders looks up every distinct provider code referenced by the
// saved pages and appends each match to the providers file. A code is
// looked up at most once per call, and each lookup waits on the pacing
// limiter first. Page records that fail validation are counted and
// skipped one by one.
func (p *Pipeline) ResolveProviders(ctx context.Context, cfg nfz.RunConfig) (*LookupReport, error) {
	start := time.Now()
	report := &LookupReport{Stage: "provider"}
	defer func() {
		report.Duration = time.Since(start)
		p.opts.Metrics.ObserveStage("resolve", report.Duration)
	}()

	pages, err := p.store.SortedPages()
	if err != nil {
		return report, err
	}

	var codes []string
	seen := make(map[string]struct{})
	for _, page := range pages {
		report.SkippedRecords += store.ScanRecords(p.store, page.Path, func(_ int, a nfz.Agreement, err error) {
			if err != nil {
				p.opts.Metrics.Skipped("resolve", errors.Classify(err).Reason())
				return
			}
			code := a.Attributes.ProviderCode
			if code == "" {
				return
			}
			if _, ok := seen[code]; ok {
				return
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		})
	}

	for _, code := range codes {
		if err := p.lookupLimiter.Wait(ctx); err != nil {
			return report, err
		}

		provider, err := p.lookupProvider(ctx, cfg, code)
		if err == nil {
			err = p.store.AppendRecord(p.store.Layout().ProvidersPath(), provider)
		}
		if fatal := p.finishLookup(report, code, err); fatal != nil {
			return report, fatal
		}
	}

	p.logger.Info().
		Int("resolved", len(report.Resolved)).
		Int("unresolved", len(report.Unresolved)).
		Int("failed", len(report.Failed)).
		Msg("Resolved providers")
	return report, nil
}

func (p *Pipeline) lookupProvider(ctx context.Context, cfg nfz.RunConfig, code string) (nfz.Provider, error) {
	query := url.Values{
		"code":        {code},
		"branch":      {string(cfg.Branch)},
		"limit":       {"1"},
		"format":      {constants.ResponseFormat},
		"api-version": {p.opts.APIVersion},
	}

	raw, err := p.contracts.Fetch(ctx, ProvidersEndpoint, query)
	if err != nil {
		return nfz.Provider{}, err
	}
	page, err := validation.Validate[nfz.ProvidersPage](raw)
	if err != nil {
		return nfz.Provider{}, err
	}
	if len(page.Data.Entries) == 0 {
		return nfz.Provider{}, errors.NewLookupMiss("provider", code)
	}
	return page.Data.Entries[0], nil
}

// EnrichGeo geocodes every saved provider and appends each match to the
// geographic data file. Only the first result is used; an empty result
// set is recorded as unresolved.
func (p *Pipeline) EnrichGeo(ctx context.Context, cfg nfz.RunConfig) (*LookupReport, error) {
	start := time.Now()
	report := &LookupReport{Stage: "geocode"}
	defer func() {
		report.Duration = time.Since(start)
		p.opts.Metrics.ObserveStage("enrich", report.Duration)
	}()

	if p.geocoder == nil {
		return report, errors.NewConfigError("geocoding", constants.GeoapifyKeyEnv+" is not set", errors.ErrAPIKeyRequired)
	}

	var providers []nfz.Provider
	report.SkippedRecords = store.ScanRecords(p.store, p.store.Layout().ProvidersPath(), func(_ int, provider nfz.Provider, err error) {
		if err != nil {
			p.opts.Metrics.Skipped("enrich", errors.Classify(err).Reason())
			return
		}
		providers = append(providers, provider)
	})
	for _, provider := range providers {
		if err := p.geocodeLimiter.Wait(ctx); err != nil {
			return report, err
		}

		code := provider.Attributes.Code
		result, err := p.geocode(ctx, provider.Attributes)
		if err == nil {
			entry := geo.Entry{
				ProviderCode:   code,
				ProviderBranch: providerBranch(provider, cfg),
				GeoData:        result,
			}
			err = p.store.AppendRecord(p.store.Layout().GeoPath(), entry)
		}
		if fatal := p.finishLookup(report, code, err); fatal != nil {
			return report, fatal
		}
	}

	p.logger.Info().
		Int("resolved", len(report.Resolved)).
		Int("unresolved", len(report.Unresolved)).
		Int("failed", len(report.Failed)).
		Msg("Geocoded providers")
	return report, nil
}

func (p *Pipeline) geocode(ctx context.Context, attrs nfz.ProviderAttributes) (geo.Result, error) {
	query := url.Values{
		"city":     {attrs.Place},
		"street":   {attrs.Street},
		"postcode": {attrs.PostCode},
		"country":  {"Poland"},
		"lang":     {"pl"},
		"limit":    {"1"},
		"type":     {"amenity"},
		"format":   {constants.ResponseFormat},
		"filter":   {"countrycode:pl"},
		"bias":     {"countrycode:pl"},
	}

	raw, err := p.geocoder.Fetch(ctx, GeocodeEndpoint, query)
	if err != nil {
		return geo.Result{}, err
	}
	resp, err := validation.Validate[geo.Response](raw)
	if err != nil {
		return geo.Result{}, err
	}
	if len(resp.Results) == 0 {
		return geo.Result{}, errors.NewLookupMiss("geocode", attrs.Code)
	}
	return validation.Validate[geo.Result](resp.Results[0])
}

func providerBranch(provider nfz.Provider, cfg nfz.RunConfig) string {
	if provider.Attributes.Branch != "" {
		return string(provider.Attributes.Branch)
	}
	return string(cfg.Branch)
}
