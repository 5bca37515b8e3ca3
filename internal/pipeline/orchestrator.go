// Package pipeline sequences the harvest stages A-F as a strict forward
// state machine and reports one terminal result per run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"harvester/internal/beans"
	"harvester/internal/config"
	"harvester/internal/detect"
	"harvester/internal/enrich"
	"harvester/internal/fetch"
	"harvester/internal/inventory"
	"harvester/internal/logging"
	"harvester/internal/runstate"
	"harvester/internal/surface"
	"harvester/internal/trace"
)

// LockFileName guards the output directory. One pipeline run owns the
// output directory at a time; concurrent runs are unsupported.
const LockFileName = "harvest.lock"

// Enricher is the optional, swappable enrichment collaborator.
type Enricher interface {
	Enrich(ctx context.Context, req enrich.Request) (*surface.Enrichment, error)
}

// Options bundles the orchestrator's collaborators. Nil fields fall
// back to defaults (built-in detectors/extractors, no-op sink, no
// enrichment).
type Options struct {
	Logger     *slog.Logger
	Sink       EventSink
	Registry   *detect.Registry
	Extractors *surface.ExtractorSet
	Enricher   Enricher
}

// Orchestrator drives one harvest run. The pipeline is single-threaded
// and strictly sequential; a caller may run it on a background
// goroutine and consume events elsewhere.
type Orchestrator struct {
	cfg        *config.Config
	logger     *slog.Logger
	sink       EventSink
	registry   *detect.Registry
	extractors *surface.ExtractorSet
	enricher   Enricher
}

// New constructs an orchestrator for a validated config.
func New(cfg *config.Config, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	registry := opts.Registry
	if registry == nil {
		registry = detect.NewDefaultRegistry(logger)
	}
	extractors := opts.Extractors
	if extractors == nil {
		extractors = surface.NewDefaultExtractorSet(logger)
	}
	return &Orchestrator{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		sink:       sink,
		registry:   registry,
		extractors: extractors,
		enricher:   opts.Enricher,
	}
}

// Run executes stages A-F. A stage error halts the pipeline immediately;
// later stages never run. Coverage gaps do not fail the run.
func (o *Orchestrator) Run(ctx context.Context) Result {
	runID := uuid.NewString()
	logger := o.logger.With(logging.String(logging.FieldRunID, runID))

	if err := o.cfg.EnsureOutputDir(); err != nil {
		o.sink.StageError(StageClone, err.Error())
		return failure(StageClone, err)
	}

	lock := flock.New(filepath.Join(o.cfg.Repo.OutputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		err = fmt.Errorf("acquire output lock: %w", err)
		o.sink.StageError(StageClone, err.Error())
		return failure(StageClone, err)
	}
	if !locked {
		err = errors.New("output directory is owned by another harvest run")
		o.sink.StageError(StageClone, err.Error())
		return failure(StageClone, err)
	}
	defer func() { _ = lock.Unlock() }()

	store, err := runstate.Open(o.cfg.Repo.OutputDir)
	if err != nil {
		o.sink.StageError(StageClone, err.Error())
		return failure(StageClone, err)
	}
	defer store.Close()

	state, err := o.prepareState(ctx, store, runID)
	if err != nil {
		o.sink.StageError(StageClone, err.Error())
		return failure(StageClone, err)
	}

	// Stage A: Clone & Normalize.
	o.sink.StageStart(StageClone)
	workTree, err := o.runClone(ctx)
	if err != nil {
		return o.halt(StageClone, err, logger)
	}
	o.completeStage(ctx, store, StageClone, fmt.Sprintf("working tree at %s", workTree))

	// Stage B: Inventory & Detection.
	if err := ctx.Err(); err != nil {
		return o.halt(StageInventory, err, logger)
	}
	o.sink.StageStart(StageInventory)
	inv, profile, err := o.runDetection(workTree)
	if err != nil {
		return o.halt(StageInventory, err, logger)
	}
	for _, warning := range profile.Warnings {
		o.sink.Progress(StageInventory, warning)
	}
	for _, stack := range profile.Stacks {
		o.sink.Progress(StageInventory,
			fmt.Sprintf("detected %s (confidence %.2f)", stack.Stack, stack.Confidence))
	}
	o.completeStage(ctx, store, StageInventory,
		fmt.Sprintf("%d files, %d stacks detected", inv.Len(), len(profile.Stacks)))
	logger.Info("detection complete",
		logging.Int("files", inv.Len()),
		logging.Int("stacks", len(profile.Stacks)))

	// Stage C: Surface Extraction.
	if err := ctx.Err(); err != nil {
		return o.halt(StageExtraction, err, logger)
	}
	o.sink.StageStart(StageExtraction)
	collection := o.extractors.ExtractAll(inv)
	for _, warning := range collection.Warnings {
		o.sink.Progress(StageExtraction, warning)
	}
	if collection.Len() == 0 && o.extractors.Len() > 0 && len(collection.Warnings) == o.extractors.Len() {
		return o.halt(StageExtraction, errors.New("all surface extractors failed"), logger)
	}
	if o.enricher != nil {
		o.enrichSurfaces(ctx, collection, inv)
	}
	o.completeStage(ctx, store, StageExtraction,
		fmt.Sprintf("%d surfaces extracted", collection.Len()))

	// Stage D: Traceability (intermediate).
	if err := ctx.Err(); err != nil {
		return o.halt(StageTrace, err, logger)
	}
	o.sink.StageStart(StageTrace)
	check := trace.Intermediate(collection, inv)
	if check.UnresolvedRefs > 0 {
		o.sink.Progress(StageTrace,
			fmt.Sprintf("%d surfaces reference files missing from the inventory", check.UnresolvedRefs))
	}
	o.completeStage(ctx, store, StageTrace,
		fmt.Sprintf("%d surfaces cross-checked", check.SurfaceCount))

	// Stage E: Bean Generation.
	if err := ctx.Err(); err != nil {
		return o.halt(StageBeans, err, logger)
	}
	o.sink.StageStart(StageBeans)
	written, err := o.runBeans(ctx, collection, state)
	if err != nil {
		return o.halt(StageBeans, err, logger)
	}
	skipped := 0
	for _, bean := range written {
		if bean.Skipped {
			skipped++
		}
	}
	o.completeStage(ctx, store, StageBeans,
		fmt.Sprintf("%d beans written, %d skipped", len(written)-skipped, skipped))

	// Stage F: Coverage Gates.
	if err := ctx.Err(); err != nil {
		return o.halt(StageGates, err, logger)
	}
	o.sink.StageStart(StageGates)
	report := trace.Build(collection, written, inv)
	for _, gap := range report.GapSummaries() {
		o.sink.Progress(StageGates, gap)
	}
	o.completeStage(ctx, store, StageGates,
		fmt.Sprintf("%d gaps, coverage passed: %t", report.GapCount, report.CoveragePassed))

	logger.Info("harvest complete",
		logging.Int("beans", len(written)),
		logging.Int("gaps", report.GapCount),
		logging.Bool("coverage_passed", report.CoveragePassed))

	return Result{
		Success:        true,
		BeanCount:      len(written),
		GapCount:       report.GapCount,
		CoveragePassed: report.CoveragePassed,
	}
}

// prepareState resets run state for fresh runs and reads the persisted
// bean count once for resumed runs.
func (o *Orchestrator) prepareState(ctx context.Context, store *runstate.Store, runID string) (*runstate.Manager, error) {
	if o.cfg.Resume {
		return runstate.NewResumedManager(ctx, store)
	}
	if err := store.Begin(ctx, runID, o.cfg.Repo.Locator); err != nil {
		return nil, err
	}
	return runstate.NewManager(store), nil
}

func (o *Orchestrator) runClone(ctx context.Context) (string, error) {
	lines, done := fetch.Resolve(ctx, o.cfg.Repo.Locator, o.cfg.Repo.Ref, o.cfg.Repo.OutputDir)
	for line := range lines {
		o.sink.Progress(StageClone, line)
	}
	result := <-done
	if result.Err != nil {
		return "", result.Err
	}
	return result.Path, nil
}

func (o *Orchestrator) runDetection(workTree string) (*inventory.Inventory, *detect.StackProfile, error) {
	inv, err := inventory.Scan(workTree, o.cfg)
	if err != nil {
		return nil, nil, err
	}
	profile := o.registry.RunDetection(inv, o.cfg.Detection.MinConfidence)
	return inv, profile, nil
}

// enrichSurfaces attaches enrichment documents in collection order.
// Failures degrade individual surfaces and never abort the stage.
func (o *Orchestrator) enrichSurfaces(ctx context.Context, collection *surface.Collection, inv *inventory.Inventory) {
	enriched := surface.NewCollection()
	for _, s := range collection.Ordered() {
		doc, err := o.enricher.Enrich(ctx, enrich.Request{
			SurfaceType: string(s.Type),
			SurfaceName: s.Name,
			SurfaceData: s.Detail,
			SourceCode:  sourceSnippet(inv, s),
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			o.logger.Warn("enrichment failed",
				logging.String(logging.FieldSurface, s.Name),
				logging.Error(err))
		} else {
			s.Enrichment = doc
		}
		enriched.Add(s)
	}
	*collection = *enriched
}

func (o *Orchestrator) runBeans(ctx context.Context, collection *surface.Collection, state *runstate.Manager) ([]beans.WrittenBean, error) {
	writer := beans.NewWriter(o.cfg.Repo.OutputDir, o.logger)
	written, err := writer.WriteBeans(ctx, collection, state)
	if err != nil {
		return nil, err
	}
	if err := writer.GenerateIndex(written); err != nil {
		return nil, err
	}
	if err := writer.GenerateTemplatesDir(); err != nil {
		return nil, err
	}
	return written, nil
}

func (o *Orchestrator) completeStage(ctx context.Context, store *runstate.Store, stage Stage, message string) {
	o.sink.StageComplete(stage, message)
	if err := store.RecordStage(ctx, string(stage)); err != nil {
		o.logger.Warn("record stage checkpoint",
			logging.String(logging.FieldStage, string(stage)),
			logging.Error(err))
	}
}

func (o *Orchestrator) halt(stage Stage, err error, logger *slog.Logger) Result {
	o.sink.StageError(stage, err.Error())
	logger.Error("stage failed",
		logging.String(logging.FieldStage, string(stage)),
		logging.Error(err))
	return failure(stage, err)
}

// sourceSnippet loads a bounded excerpt of the surface's first source
// reference for the enrichment prompt.
func sourceSnippet(inv *inventory.Inventory, s surface.Surface) string {
	if len(s.SourceRefs) == 0 || inv == nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(inv.Root, filepath.FromSlash(s.SourceRefs[0].Path)))
	if err != nil {
		return ""
	}
	const maxSnippet = 4000
	content := string(data)
	if len(content) > maxSnippet {
		content = content[:maxSnippet]
	}
	return strings.ToValidUTF8(content, "")
}
