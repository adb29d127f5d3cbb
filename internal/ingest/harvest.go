package ingest

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/panevka/nhsmongifyer/internal/validation"
	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// HarvestReport summarizes a pagination run.
type HarvestReport struct {
	Pages    int
	Records  int
	Skipped  int
	Attempts int
	Duration time.Duration
}

// Harvest pages through the agreements of cfg and saves each page.
//
// A page that fails to fetch is attempted again, up to MaxPageAttempts
// consecutive times, after which the partition aborts. A response whose
// envelope does not validate aborts at once because the next page cannot
// be known. Records that fail validation are dropped from their page.
func (p *Pipeline) Harvest(ctx context.Context, cfg nfz.RunConfig) (*HarvestReport, error) {
	start := time.Now()
	report := &HarvestReport{}
	defer func() {
		report.Duration = time.Since(start)
		p.opts.Metrics.ObserveStage("harvest", report.Duration)
	}()

	page := p.opts.StartPage
	limit := p.opts.PageLimit
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempts++

		next, done, err := p.harvestPage(ctx, cfg, page, limit, report)
		if err == nil {
			failures = 0
			if done {
				p.logger.Info().
					Int("pages", report.Pages).
					Int("records", report.Records).
					Int("skipped", report.Skipped).
					Msg("Harvested agreements")
				return report, nil
			}
			page = next
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		if outcome := errors.Classify(err); outcome.Status == errors.Fatal || errors.IsValidationError(err) {
			p.opts.Metrics.PageFailed(string(cfg.Branch), string(cfg.ServiceType))
			return report, &errors.PartitionError{Partition: cfg.String(), Stage: "harvest", Err: err}
		}

		failures++
		p.opts.Metrics.PageFailed(string(cfg.Branch), string(cfg.ServiceType))
		p.logger.Warn().
			Err(err).
			Int("page", page).
			Int("attempt", failures).
			Int("max_attempts", p.opts.MaxPageAttempts).
			Msg("Page attempt failed")

		if failures >= p.opts.MaxPageAttempts {
			return report, &errors.PartitionError{Partition: cfg.String(), Stage: "harvest", Err: err}
		}
		if err := p.lookupLimiter.Wait(ctx); err != nil {
			return report, err
		}
	}
}

// harvestPage fetches, validates and saves one page. It returns the next
// page to request and whether pagination is finished.
func (p *Pipeline) harvestPage(ctx context.Context, cfg nfz.RunConfig, page, limit int, report *HarvestReport) (int, bool, error) {
	raw, err := p.contracts.Fetch(ctx, AgreementsEndpoint, agreementsQuery(cfg, page, limit, p.opts.APIVersion))
	if err != nil {
		return page, false, err
	}

	parsed, err := validation.Validate[nfz.AgreementsPage](raw)
	if err != nil {
		return page, false, err
	}

	agreements := make([]nfz.Agreement, 0, len(parsed.Data.Agreements))
	for i, record := range parsed.Data.Agreements {
		a, err := validation.Validate[nfz.Agreement](record)
		switch outcome := errors.Classify(err); outcome.Status {
		case errors.Success:
			agreements = append(agreements, a)
		case errors.Skip:
			report.Skipped++
			p.opts.Metrics.Skipped("harvest", outcome.Reason())
			p.logger.Warn().Err(err).Int("page", page).Int("index", i).Msg("Skipping invalid agreement")
		default:
			return page, false, err
		}
	}

	number := parsed.PageNumber(page)
	if err := p.store.SavePage(agreements, number, limit); err != nil {
		return page, false, err
	}

	report.Pages++
	report.Records += len(agreements)
	p.opts.Metrics.PageFetched(string(cfg.Branch), string(cfg.ServiceType))
	p.logger.Debug().
		Int("page", number).
		Int("records", len(agreements)).
		Int("skipped", len(parsed.Data.Agreements)-len(agreements)).
		Bool("has_next", parsed.HasNext()).
		Msg("Saved agreements page")

	return page + 1, !parsed.HasNext(), nil
}

func agreementsQuery(cfg nfz.RunConfig, page, limit int, apiVersion string) url.Values {
	return url.Values{
		"year":        {strconv.Itoa(cfg.Year)},
		"branch":      {string(cfg.Branch)},
		"serviceType": {string(cfg.ServiceType)},
		"page":        {strconv.Itoa(page)},
		"limit":       {strconv.Itoa(limit)},
		"format":      {constants.ResponseFormat},
		"api-version": {apiVersion},
	}
}
