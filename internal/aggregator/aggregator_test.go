package aggregator

import (
	"context"
	"fmt"
	"testing"

	"github.com/jvmakine/fbsp/internal/bsperrors"
	"github.com/jvmakine/fbsp/internal/config"
	"github.com/jvmakine/fbsp/internal/gradledriver"
	"github.com/jvmakine/fbsp/internal/model"
	"github.com/jvmakine/fbsp/internal/probe"
)

// fakeDriver/fakeConnection stand in for gradledriver.GradleDriver so the
// aggregator's fan-out and ordering logic can be tested without a real
// filesystem-backed Gradle layout.
type fakeDriver struct {
	root     *gradledriver.GradleBuild
	included []*gradledriver.GradleBuild
	version  string
}

func (d *fakeDriver) Connect(ctx context.Context, projectRoot string, prefs config.GradlePreferences) (gradledriver.Connection, error) {
	return &fakeConnection{driver: d}, nil
}

type fakeConnection struct{ driver *fakeDriver }

func (c *fakeConnection) GradleVersion() string { return c.driver.version }
func (c *fakeConnection) Close() error          { return nil }
func (c *fakeConnection) RootBuild(ctx context.Context) (*gradledriver.GradleBuild, error) {
	return c.driver.root, nil
}
func (c *fakeConnection) IncludedBuilds(ctx context.Context, root *gradledriver.GradleBuild) ([]*gradledriver.GradleBuild, error) {
	return c.driver.included, nil
}

// fakeProbe returns one canned SourceSetModel per project path, or fails for
// paths listed in failPaths.
type fakeProbe struct {
	failPaths map[string]error
}

func (p *fakeProbe) Probe(ctx context.Context, view probe.ProjectView) ([]*model.SourceSetModel, error) {
	if err, ok := p.failPaths[view.ProjectPath]; ok {
		return nil, err
	}
	return []*model.SourceSetModel{model.New(view.ProjectName, view.ProjectPath, view.ProjectDir, view.RootDir, "main")}, nil
}

func buildOf(path, name, dir string) gradledriver.BasicGradleProject {
	return gradledriver.BasicGradleProject{Name: name, Path: path, ProjectDir: dir}
}

func TestAggregatePreservesDiscoveryOrder(t *testing.T) {
	root := &gradledriver.GradleBuild{
		RootProjectName: "demo",
		RootDir:         "/workspace/demo",
		Projects: []gradledriver.BasicGradleProject{
			buildOf(":app", "app", "/workspace/demo/app"),
			buildOf(":lib", "lib", "/workspace/demo/lib"),
		},
	}
	includedBuild := &gradledriver.GradleBuild{
		RootProjectName: "util",
		RootDir:         "/workspace/util",
		Projects: []gradledriver.BasicGradleProject{
			buildOf(":", "util", "/workspace/util"),
		},
	}
	driver := &fakeDriver{root: root, included: []*gradledriver.GradleBuild{includedBuild}, version: "8.5"}

	a := New(driver, &fakeProbe{}, nil, WithWorkers(2))
	models, err := a.Aggregate(context.Background(), "/workspace/demo", config.GradlePreferences{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("Aggregate() = %d models, want 3", len(models))
	}
	wantOrder := []string{":app", ":lib", ":"}
	for i, want := range wantOrder {
		if models[i].ProjectPath != want {
			t.Fatalf("models[%d].ProjectPath = %q, want %q (order: %v)", i, models[i].ProjectPath, want, modelPaths(models))
		}
	}
}

func TestAggregateSkipsFailingProjectButSucceeds(t *testing.T) {
	root := &gradledriver.GradleBuild{
		RootProjectName: "demo",
		RootDir:         "/workspace/demo",
		Projects: []gradledriver.BasicGradleProject{
			buildOf(":app", "app", "/workspace/demo/app"),
			buildOf(":broken", "broken", "/workspace/demo/broken"),
		},
	}
	driver := &fakeDriver{root: root, version: "8.5"}
	p := &fakeProbe{failPaths: map[string]error{
		":broken": fmt.Errorf("could not read source set"),
	}}

	a := New(driver, p, nil)
	models, err := a.Aggregate(context.Background(), "/workspace/demo", config.GradlePreferences{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(models) != 1 || models[0].ProjectPath != ":app" {
		t.Fatalf("Aggregate() = %v, want only :app to survive", modelPaths(models))
	}
}

func TestAggregateFailsWholeRunOnModelDeserializationFailure(t *testing.T) {
	root := &gradledriver.GradleBuild{
		RootProjectName: "demo",
		RootDir:         "/workspace/demo",
		Projects: []gradledriver.BasicGradleProject{
			buildOf(":app", "app", "/workspace/demo/app"),
		},
	}
	driver := &fakeDriver{root: root, version: "8.5"}
	p := &fakeProbe{failPaths: map[string]error{
		":app": &bsperrors.ModelDeserializationFailed{Reason: "malformed model"},
	}}

	a := New(driver, p, nil)
	if _, err := a.Aggregate(context.Background(), "/workspace/demo", config.GradlePreferences{}); err == nil {
		t.Fatal("expected Aggregate to fail the whole run on a ModelDeserializationFailed error")
	}
}

func modelPaths(models []*model.SourceSetModel) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.ProjectPath
	}
	return out
}
