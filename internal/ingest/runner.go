package ingest

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/internal/merge"
	"github.com/panevka/nhsmongifyer/internal/metrics"
	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/internal/validation"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// Stage is one step of a partition run.
type Stage string

// Stages in execution order.
const (
	StageHarvest Stage = "harvest"
	StageResolve Stage = "resolve"
	StageEnrich  Stage = "enrich"
	StageMerge   Stage = "merge"
	StageLoad    Stage = "load"
)

// AllStages returns every stage in execution order.
func AllStages() []Stage {
	return []Stage{StageHarvest, StageResolve, StageEnrich, StageMerge, StageLoad}
}

// Loader copies the merged collections of a partition into a database.
type Loader interface {
	Name() string
	Load(ctx context.Context, st *store.Store) error
}

// RunnerConfig wires a Runner.
type RunnerConfig struct {
	Contracts Fetcher
	// Geocoder may be nil; enrichment is then skipped with an error log.
	Geocoder  Fetcher
	OutputDir string
	Stages    []Stage
	Options   []Option
	Dedupe    bool
	Loaders   []Loader
	Logger    *zerolog.Logger
	Metrics   *metrics.Metrics
}

// Runner processes a list of partitions one after another.
type Runner struct {
	cfg    RunnerConfig
	logger *zerolog.Logger
}

// NewRunner creates a runner. An empty stage list runs every stage.
func NewRunner(cfg RunnerConfig) *Runner {
	if len(cfg.Stages) == 0 {
		cfg.Stages = AllStages()
	}
	return &Runner{cfg: cfg, logger: logging.OrNop(cfg.Logger)}
}

// PartitionResult is the outcome of one partition.
type PartitionResult struct {
	Config    nfz.RunConfig
	Status    errors.Status
	Err       error
	Harvest   *HarvestReport
	Providers *LookupReport
	Geo       *LookupReport
	Merge     []merge.Report
	Duration  time.Duration
}

// RunSummary lists the outcome of every partition of a run.
type RunSummary struct {
	RunID      string
	Partitions []PartitionResult
	Duration   time.Duration
}

// Failed returns the partitions that ended fatally.
func (s *RunSummary) Failed() []PartitionResult {
	var failed []PartitionResult
	for _, p := range s.Partitions {
		if p.Status == errors.Fatal {
			failed = append(failed, p)
		}
	}
	return failed
}

// Err joins the errors of every fatal partition.
func (s *RunSummary) Err() error {
	var errs []error
	for _, p := range s.Failed() {
		errs = append(errs, p.Err)
	}
	return errors.Join(errs...)
}

// ValidateConfigs checks every config and reports all failures together.
func ValidateConfigs(configs []nfz.RunConfig) error {
	if len(configs) == 0 {
		return errors.NewSchemaError("RunFile", "runs", "required")
	}
	var errs []error
	for _, cfg := range configs {
		if err := validation.Struct("RunConfig", cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run validates every config before any network call, then processes the
// partitions in order. A fatal partition is logged and the run moves on.
// The returned error is non-nil only for invalid configs or cancellation.
func (r *Runner) Run(ctx context.Context, configs []nfz.RunConfig) (*RunSummary, error) {
	if err := ValidateConfigs(configs); err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &RunSummary{RunID: uuid.NewString()}
	ctx = logging.WithLogger(ctx, r.logger)
	ctx = logging.WithRunID(ctx, summary.RunID)
	logging.FromContext(ctx).Info().Int("partitions", len(configs)).Msg("Starting run")

	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		result := r.runPartition(ctx, cfg)
		summary.Partitions = append(summary.Partitions, result)
		r.cfg.Metrics.PartitionDone(result.Status.String())
	}

	summary.Duration = time.Since(start)
	logging.FromContext(ctx).Info().
		Int("partitions", len(summary.Partitions)).
		Int("failed", len(summary.Failed())).
		Dur("duration", summary.Duration).
		Msg("Run finished")
	return summary, nil
}

func (r *Runner) runPartition(ctx context.Context, cfg nfz.RunConfig) PartitionResult {
	start := time.Now()
	result := PartitionResult{Config: cfg, Status: errors.Success}

	ctx = logging.WithPartition(ctx, string(cfg.Branch), string(cfg.ServiceType), cfg.Year)
	log := logging.FromContext(ctx)

	err := r.partition(ctx, cfg, &result)
	result.Duration = time.Since(start)
	if outcome := errors.Classify(err); !outcome.OK() {
		result.Status = outcome.Status
		result.Err = err
		log.Error().Err(err).Dur("duration", result.Duration).Msg("Partition aborted")
		return result
	}
	log.Info().Dur("duration", result.Duration).Msg("Partition complete")
	return result
}

func (r *Runner) partition(ctx context.Context, cfg nfz.RunConfig, result *PartitionResult) error {
	log := logging.FromContext(ctx)
	st := store.New(store.NewLayout(r.cfg.OutputDir, cfg.Branch, cfg.ServiceType), log)
	if err := st.Initialize(); err != nil {
		return abort(cfg, "initialize", err)
	}

	opts := append(slices.Clone(r.cfg.Options), WithLogger(log), WithMetrics(r.cfg.Metrics))
	pipeline, err := NewPipeline(r.cfg.Contracts, r.cfg.Geocoder, st, opts...)
	if err != nil {
		return abort(cfg, "initialize", err)
	}

	if r.enabled(StageHarvest) {
		if result.Harvest, err = pipeline.Harvest(ctx, cfg); err != nil {
			return abort(cfg, string(StageHarvest), err)
		}
	}
	if r.enabled(StageResolve) {
		if result.Providers, err = pipeline.ResolveProviders(ctx, cfg); err != nil {
			return abort(cfg, string(StageResolve), err)
		}
	}
	if r.enabled(StageEnrich) {
		result.Geo, err = pipeline.EnrichGeo(ctx, cfg)
		switch {
		case errors.Is(err, errors.ErrAPIKeyRequired):
			log.Error().Err(err).Msg("Skipping geocoding")
		case err != nil:
			return abort(cfg, string(StageEnrich), err)
		}
	}
	if r.enabled(StageMerge) {
		engine := merge.NewEngine(st,
			merge.WithDedupe(r.cfg.Dedupe),
			merge.WithLogger(log),
			merge.WithMetrics(r.cfg.Metrics))
		if result.Merge, err = engine.All(ctx); err != nil {
			return abort(cfg, string(StageMerge), err)
		}
	}
	if r.enabled(StageLoad) {
		for _, loader := range r.cfg.Loaders {
			if err := loader.Load(ctx, st); err != nil {
				return abort(cfg, string(StageLoad)+" "+loader.Name(), err)
			}
		}
	}
	return nil
}

func (r *Runner) enabled(stage Stage) bool {
	return slices.Contains(r.cfg.Stages, stage)
}

// abort tags err with the partition and stage unless it already carries them.
func abort(cfg nfz.RunConfig, stage string, err error) error {
	var pe *errors.PartitionError
	if errors.As(err, &pe) {
		return err
	}
	return &errors.PartitionError{Partition: cfg.String(), Stage: stage, Err: err}
}
