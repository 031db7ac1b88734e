// Package targetgraph implements TargetGraph (spec.md §4.4): it converts a
// linked list of SourceSetModels into BSP build targets with stable URIs,
// stores them keyed by URI and by (projectDir, sourceSetName), and
// publishes snapshots atomically so readers never see a partially-updated
// graph. Dependency edges are held in a github.com/dominikbraun/graph
// directed graph, which also backs the acyclic-closure check invariant 1
// asks for.
package targetgraph

import (
	"fmt"
	"sort"
	"sync/atomic"

	graphlib "github.com/dominikbraun/graph"

	"github.com/jvmakine/fbsp/internal/bsperrors"
	"github.com/jvmakine/fbsp/internal/model"
	"github.com/jvmakine/fbsp/internal/obslog"
)

type snapshot struct {
	ordered   []*model.GradleBuildTarget
	byURI     map[string]*model.GradleBuildTarget
	byProject map[model.BuildTargetRef]*model.GradleBuildTarget
	depGraph  graphlib.Graph[string, string]
}

// TargetGraph is the shared mutable state readers (BSP request handlers)
// and the writer (aggregation completion) coordinate through. It is safe
// for concurrent use: reads never block on a write, and a write is visible
// to readers only once it is wholly complete (spec.md §5 "shared resources").
type TargetGraph struct {
	current atomic.Pointer[snapshot]
	log     *obslog.Logger
}

// New returns an empty TargetGraph.
func New(log *obslog.Logger) *TargetGraph {
	g := &TargetGraph{log: log}
	g.current.Store(emptySnapshot())
	return g
}

func emptySnapshot() *snapshot {
	return &snapshot{
		byURI:     map[string]*model.GradleBuildTarget{},
		byProject: map[model.BuildTargetRef]*model.GradleBuildTarget{},
		depGraph:  graphlib.New(graphlib.StringHash, graphlib.Directed(), graphlib.PreventCycles()),
	}
}

// Store replaces the current snapshot wholesale with build targets derived
// from models, in the given (already-linked) order, and returns the new
// target list. No partial updates are ever visible: construction happens
// against a fresh snapshot value, and TargetGraph.current is only swapped
// once that value is complete.
func (g *TargetGraph) Store(models []*model.SourceSetModel) ([]*model.BuildTarget, error) {
	next := emptySnapshot()

	for _, m := range models {
		target := buildTarget(m)
		gbt := &model.GradleBuildTarget{Target: target, Model: m}
		next.ordered = append(next.ordered, gbt)
		next.byURI[target.ID] = gbt
		next.byProject[m.Ref()] = gbt
		if err := next.depGraph.AddVertex(target.ID); err != nil && err != graphlib.ErrVertexAlreadyExists {
			return nil, &bsperrors.ModelDeserializationFailed{Reason: fmt.Sprintf("adding vertex %s: %v", target.ID, err)}
		}
	}

	for _, m := range models {
		fromURI := BuildTargetURI(m.ProjectDir, m.SourceSetName)
		for _, dep := range m.BuildTargetDependencies {
			toURI := BuildTargetURI(dep.ProjectDir, dep.SourceSetName)
			if err := next.depGraph.AddEdge(fromURI, toURI); err != nil && err != graphlib.ErrEdgeAlreadyExists {
				if g.log != nil {
					g.log.Warn("dropping dependency edge %s -> %s: %v", fromURI, toURI, err)
				}
			}
		}
	}

	g.current.Store(next)

	targets := make([]*model.BuildTarget, len(next.ordered))
	for i, gbt := range next.ordered {
		targets[i] = gbt.Target
	}
	return targets, nil
}

// GetAll returns every build target in the current snapshot, in stable
// discovery order (spec.md §5 "ordering guarantees").
func (g *TargetGraph) GetAll() []*model.BuildTarget {
	snap := g.current.Load()
	targets := make([]*model.BuildTarget, len(snap.ordered))
	for i, gbt := range snap.ordered {
		targets[i] = gbt.Target
	}
	return targets
}

// GetByURI looks a target up by its stable build target URI.
func (g *TargetGraph) GetByURI(uri string) (*model.BuildTarget, error) {
	snap := g.current.Load()
	gbt, ok := snap.byURI[uri]
	if !ok {
		return nil, &bsperrors.TargetNotFound{ID: uri}
	}
	return gbt.Target, nil
}

// GetModelByURI looks the owning SourceSetModel up by URI, for callers (such
// as the buildTarget/sources handler) that need the underlying model rather
// than just its BSP-facing projection.
func (g *TargetGraph) GetModelByURI(uri string) (*model.SourceSetModel, error) {
	snap := g.current.Load()
	gbt, ok := snap.byURI[uri]
	if !ok {
		return nil, &bsperrors.TargetNotFound{ID: uri}
	}
	return gbt.Model, nil
}

// GetByProjectAndSourceSet looks a target up by its pre-URI identity.
func (g *TargetGraph) GetByProjectAndSourceSet(projectDir, sourceSetName string) (*model.BuildTarget, error) {
	snap := g.current.Load()
	gbt, ok := snap.byProject[model.BuildTargetRef{ProjectDir: projectDir, SourceSetName: sourceSetName}]
	if !ok {
		return nil, &bsperrors.TargetNotFound{ID: BuildTargetURI(projectDir, sourceSetName)}
	}
	return gbt.Target, nil
}

// TransitiveDependencies returns the closure of build target IDs that id
// depends on, not including id itself, using the stored dependency graph.
func (g *TargetGraph) TransitiveDependencies(id string) ([]string, error) {
	snap := g.current.Load()
	if _, ok := snap.byURI[id]; !ok {
		return nil, &bsperrors.TargetNotFound{ID: id}
	}
	visited := map[string]bool{}
	var walk func(string) error
	walk = func(current string) error {
		adj, err := snap.depGraph.AdjacencyMap()
		if err != nil {
			return err
		}
		for target := range adj[current] {
			if visited[target] {
				continue
			}
			visited[target] = true
			if err := walk(target); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(id); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(visited))
	for k := range visited {
		result = append(result, k)
	}
	sort.Strings(result)
	return result, nil
}

// buildTarget converts one linked SourceSetModel into its BSP-facing
// BuildTarget, per spec.md §4.4's tag/capability/dataKind rules.
func buildTarget(m *model.SourceSetModel) *model.BuildTarget {
	target := &model.BuildTarget{
		ID:            BuildTargetURI(m.ProjectDir, m.SourceSetName),
		DisplayName:   m.DisplayName,
		BaseDirectory: "file://" + m.ProjectDir,
		Capabilities: model.Capabilities{
			CanCompile: true,
			CanTest:    m.HasTests,
			CanRun:     m.SourceSetName == "main",
		},
	}

	for _, dep := range m.BuildTargetDependencies {
		target.Dependencies = append(target.Dependencies, BuildTargetURI(dep.ProjectDir, dep.SourceSetName))
	}

	target.Tags = buildTags(m)
	target.LanguageIDs = m.Extensions.Names()

	if dataKind, data := buildJvmData(m); dataKind != "" {
		target.DataKind = dataKind
		target.Data = data
	}

	return target
}

// buildTags applies spec.md §4's tag rules: "test" iff the model's HasTests
// flag is set (on the JVM path ModelProbe sets it from
// model.IsTestSourceSet, so the tag and the flag can never disagree);
// "library" iff it is a non-test source set with source dirs.
func buildTags(m *model.SourceSetModel) []string {
	var tags []string
	if m.HasTests {
		tags = append(tags, model.TagTest)
	}
	if len(m.SourceDirs) > 0 && !m.HasTests {
		tags = append(tags, model.TagLibrary)
	}
	return tags
}

// buildJvmData resolves dataKind precedence scala > kotlin > java, per the
// multi-language extension open question's resolution.
func buildJvmData(m *model.SourceSetModel) (string, *model.JvmBuildTargetData) {
	switch {
	case m.Extensions.Scala != nil:
		return "scala", &model.JvmBuildTargetData{GradleVersion: m.GradleVersion}
	case m.Extensions.Kotlin != nil:
		return "kotlin", &model.JvmBuildTargetData{GradleVersion: m.GradleVersion}
	case m.Extensions.Java != nil:
		return "jvm", &model.JvmBuildTargetData{
			GradleVersion:       m.GradleVersion,
			JavaVersion:         m.Extensions.Java.JavaVersion,
			SourceCompatibility: m.Extensions.Java.SourceCompatibility,
			TargetCompatibility: m.Extensions.Java.TargetCompatibility,
		}
	default:
		return "", nil
	}
}
