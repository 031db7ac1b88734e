package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jvmakine/fbsp/internal/gradledriver/buildfile"
	"github.com/jvmakine/fbsp/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProbeSingleModuleJavaProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "main", "java", "App.java"), "class App {}")
	writeFile(t, filepath.Join(dir, "src", "test", "java", "AppTest.java"), "class AppTest {}")

	info := &buildfile.BuildInfo{Plugins: []string{"java"}}
	p := New(nil)

	models, err := p.Probe(context.Background(), ProjectView{
		ProjectName:   "app",
		ProjectPath:   ":",
		ProjectDir:    dir,
		RootDir:       dir,
		GradleVersion: "8.5",
		BuildInfo:     info,
	})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("Probe() = %d models, want 2 (main, test)", len(models))
	}

	var main, test *model.SourceSetModel
	for _, m := range models {
		switch m.SourceSetName {
		case "main":
			main = m
		case "test":
			test = m
		}
	}
	if main == nil || test == nil {
		t.Fatalf("expected main and test source sets, got %+v", models)
	}
	if main.Extensions.Java == nil {
		t.Fatal("expected main source set to carry a java extension")
	}
	if !test.HasTests {
		t.Fatal("expected test source set to be flagged HasTests")
	}
	if len(main.ArchiveOutputFiles) != 1 {
		t.Fatalf("expected the java plugin's main source set to produce one archive, got %v", main.ArchiveOutputFiles)
	}
}

func TestProbeEmptyProjectReturnsNoModels(t *testing.T) {
	dir := t.TempDir()
	p := New(nil)

	models, err := p.Probe(context.Background(), ProjectView{
		ProjectName: "empty",
		ProjectPath: ":",
		ProjectDir:  dir,
		RootDir:     dir,
		BuildInfo:   &buildfile.BuildInfo{},
	})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(models) != 0 {
		t.Fatalf("Probe() = %v, want no models for a project with no src/ tree", models)
	}
}

func TestProbeRejectsEmptyProjectDir(t *testing.T) {
	p := New(nil)
	if _, err := p.Probe(context.Background(), ProjectView{}); err == nil {
		t.Fatal("expected an error for an empty ProjectDir")
	}
}
