// Package aggregator implements BuildAggregator (spec.md §4.2): it drives
// GradleDriver to enumerate the root build and its included/editable
// builds, fans ModelProbe out across all their projects in parallel, and
// collects the raw SourceSetModels for DependencyLinker. The fan-out
// follows the teacher's pkg/graph/runner.go worker-pool shape (a bounded
// channel of work items drained by a fixed set of goroutines), generalized
// from task execution to per-project probing.
package aggregator

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/jvmakine/fbsp/internal/bsperrors"
	"github.com/jvmakine/fbsp/internal/config"
	"github.com/jvmakine/fbsp/internal/gradledriver"
	"github.com/jvmakine/fbsp/internal/gradledriver/buildfile"
	"github.com/jvmakine/fbsp/internal/gradledriver/versioncatalog"
	"github.com/jvmakine/fbsp/internal/model"
	"github.com/jvmakine/fbsp/internal/obslog"
	"github.com/jvmakine/fbsp/internal/probe"
)

// projectUnit is one (build, project) pair queued for probing, carrying
// enough context for ModelProbe without re-deriving it per worker.
type projectUnit struct {
	build   *gradledriver.GradleBuild
	project gradledriver.BasicGradleProject
	order   int
}

// probeOutcome pairs one projectUnit's result with its discovery order so
// the aggregator can restore stable ordering after parallel execution.
type probeOutcome struct {
	order  int
	models []*model.SourceSetModel
	err    error
	path   string
}

// BuildAggregator drives one end-to-end aggregation run.
type BuildAggregator struct {
	driver  gradledriver.GradleDriver
	probe   probe.ModelProbe
	log     *obslog.Logger
	workers int
}

// Option configures a BuildAggregator.
type Option func(*BuildAggregator)

// WithWorkers overrides the default parallelism (NumCPU).
func WithWorkers(n int) Option {
	return func(a *BuildAggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// New creates a BuildAggregator from its collaborators.
func New(driver gradledriver.GradleDriver, modelProbe probe.ModelProbe, log *obslog.Logger, opts ...Option) *BuildAggregator {
	a := &BuildAggregator{driver: driver, probe: modelProbe, log: log, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate runs one full aggregation: connect, enumerate root + included
// builds, fan ModelProbe out across every project, and return the raw
// models in stable discovery order (root build first, then included builds
// in encounter order; within a build, project enumeration order).
//
// An individual project's probe failure is logged and that project is
// omitted; the aggregation as a whole still succeeds. Structural failures
// (bsperrors.ModelDeserializationFailed) and cancellation fail the whole
// run, per spec.md §4.2/§7.
func (a *BuildAggregator) Aggregate(ctx context.Context, projectRoot string, prefs config.GradlePreferences) ([]*model.SourceSetModel, error) {
	conn, err := a.driver.Connect(ctx, projectRoot, prefs)
	if err != nil {
		return nil, fmt.Errorf("connecting to gradle project at %s: %w", projectRoot, err)
	}
	defer conn.Close()

	root, err := conn.RootBuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading root build: %w", err)
	}
	included, err := conn.IncludedBuilds(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("enumerating included builds: %w", err)
	}

	builds := append([]*gradledriver.GradleBuild{root}, included...)
	units := enumerateUnits(builds)
	if len(units) == 0 {
		return nil, nil
	}

	outcomes, err := a.runPool(ctx, conn.GradleVersion(), units)
	if err != nil {
		return nil, err
	}

	return collectInOrder(outcomes, a.log), nil
}

// enumerateUnits flattens builds into projectUnits, preserving the
// discovery order spec.md §4.2 requires: root build first, then included
// builds in encounter order, each build's projects in enumeration order.
func enumerateUnits(builds []*gradledriver.GradleBuild) []projectUnit {
	var units []projectUnit
	order := 0
	for _, build := range builds {
		for _, project := range build.Projects {
			units = append(units, projectUnit{build: build, project: project, order: order})
			order++
		}
	}
	return units
}

// runPool fans the given units out across a.workers goroutines, bounded the
// way the teacher's executeParallel bounds task execution, and gathers one
// probeOutcome per unit.
func (a *BuildAggregator) runPool(ctx context.Context, gradleVersion string, units []projectUnit) ([]probeOutcome, error) {
	workers := a.workers
	if workers > len(units) {
		workers = len(units)
	}
	if workers < 1 {
		workers = 1
	}

	unitChan := make(chan projectUnit, len(units))
	for _, u := range units {
		unitChan <- u
	}
	close(unitChan)

	results := make(chan probeOutcome, len(units))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.worker(ctx, gradleVersion, unitChan, results)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var outcomes []probeOutcome
	for outcome := range results {
		if outcome.err != nil {
			var deserialize *bsperrors.ModelDeserializationFailed
			if asModelDeserializationFailed(outcome.err, &deserialize) {
				return nil, outcome.err
			}
		}
		select {
		case <-ctx.Done():
			return nil, &bsperrors.AggregationCancelled{Cause: ctx.Err()}
		default:
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (a *BuildAggregator) worker(ctx context.Context, gradleVersion string, units <-chan projectUnit, results chan<- probeOutcome) {
	for unit := range units {
		select {
		case <-ctx.Done():
			results <- probeOutcome{order: unit.order, err: &bsperrors.AggregationCancelled{Cause: ctx.Err()}, path: unit.project.Path}
			continue
		default:
		}
		view := a.buildView(unit, gradleVersion)
		models, err := a.probe.Probe(ctx, view)
		if err != nil {
			results <- probeOutcome{order: unit.order, err: &bsperrors.ProbeFailure{ProjectPath: unit.project.Path, Cause: err}, path: unit.project.Path}
			continue
		}
		results <- probeOutcome{order: unit.order, models: copyModels(models), path: unit.project.Path}
	}
}

// buildView assembles the ProjectView ModelProbe expects: a build-file
// parse and nearby version-catalog lookup, each best-effort since a missing
// build file or catalog is routine for some project shapes.
func (a *BuildAggregator) buildView(unit projectUnit, gradleVersion string) probe.ProjectView {
	view := probe.ProjectView{
		ProjectName:   unit.project.Name,
		ProjectPath:   unit.project.Path,
		ProjectDir:    unit.project.ProjectDir,
		RootDir:       unit.build.RootDir,
		GradleVersion: gradleVersion,
	}
	for _, name := range []string{"build.gradle.kts", "build.gradle"} {
		if info, err := buildfile.Parse(filepath.Join(unit.project.ProjectDir, name)); err == nil {
			view.BuildInfo = info
			break
		}
	}
	if catalog, err := versioncatalog.FindNearby(unit.project.ProjectDir); err == nil {
		view.Catalog = catalog
	}
	return view
}

// copyModels re-constructs each SourceSetModel via a shallow copy step so
// every model in the aggregation shares the same concrete representation,
// decoupling the rest of the pipeline from whatever internal probe state
// produced it, per spec.md §4.2 step 5.
func copyModels(models []*model.SourceSetModel) []*model.SourceSetModel {
	out := make([]*model.SourceSetModel, len(models))
	for i, m := range models {
		cp := *m
		out[i] = &cp
	}
	return out
}

// collectInOrder sorts probeOutcomes back into discovery order and logs
// (without failing) every per-project probe error.
func collectInOrder(outcomes []probeOutcome, log *obslog.Logger) []*model.SourceSetModel {
	ordered := make([]probeOutcome, len(outcomes))
	copy(ordered, outcomes)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].order < ordered[j-1].order; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	var all []*model.SourceSetModel
	for _, outcome := range ordered {
		if outcome.err != nil {
			if log != nil {
				log.Warn("probe failed for %s: %v", outcome.path, outcome.err)
			}
			continue
		}
		all = append(all, outcome.models...)
	}
	return all
}

func asModelDeserializationFailed(err error, target **bsperrors.ModelDeserializationFailed) bool {
	if failure, ok := err.(*bsperrors.ProbeFailure); ok {
		if inner, ok := failure.Cause.(*bsperrors.ModelDeserializationFailed); ok {
			*target = inner
			return true
		}
	}
	if inner, ok := err.(*bsperrors.ModelDeserializationFailed); ok {
		*target = inner
		return true
	}
	return false
}
