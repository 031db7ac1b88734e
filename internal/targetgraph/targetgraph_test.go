package targetgraph

import (
	"path/filepath"
	"testing"

	"github.com/jvmakine/fbsp/internal/model"
	"github.com/jvmakine/fbsp/internal/obslog"
)

func mainAndTestModels(projectDir string) []*model.SourceSetModel {
	main := model.New("app", ":app", projectDir, projectDir, "main")
	main.SourceDirs = []string{filepath.Join(projectDir, "src", "main", "java")}
	main.SourceOutputDirs = []string{filepath.Join(projectDir, "build", "classes", "java", "main")}
	main.Extensions.Java = &model.JavaExtension{JavaVersion: "17"}

	test := model.New("app", ":app", projectDir, projectDir, "test")
	test.SourceDirs = []string{filepath.Join(projectDir, "src", "test", "java")}
	test.HasTests = true
	test.CompileClasspath = []string{filepath.Join(projectDir, "build", "classes", "java", "main")}
	test.Extensions.Java = &model.JavaExtension{JavaVersion: "17"}
	test.AddBuildTargetDependency(main.Ref())

	return []*model.SourceSetModel{main, test}
}

// TestStoreTagsAndCapabilities covers scenario S1: two targets, test tagged
// "test" and depending on main, main tagged "library".
func TestStoreTagsAndCapabilities(t *testing.T) {
	projectDir := "/workspace/app"
	g := New(obslog.New())
	targets, err := g.Store(mainAndTestModels(projectDir))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}

	mainURI := BuildTargetURI(projectDir, "main")
	testURI := BuildTargetURI(projectDir, "test")

	mainTarget, err := g.GetByURI(mainURI)
	if err != nil {
		t.Fatalf("GetByURI(main): %v", err)
	}
	if !mainTarget.HasTag(model.TagLibrary) {
		t.Fatalf("main target missing library tag: %v", mainTarget.Tags)
	}
	if mainTarget.HasTag(model.TagTest) {
		t.Fatalf("main target should not be tagged test: %v", mainTarget.Tags)
	}

	testTarget, err := g.GetByURI(testURI)
	if err != nil {
		t.Fatalf("GetByURI(test): %v", err)
	}
	if !testTarget.HasTag(model.TagTest) {
		t.Fatalf("test target missing test tag: %v", testTarget.Tags)
	}
	if len(testTarget.Dependencies) != 1 || testTarget.Dependencies[0] != mainURI {
		t.Fatalf("test target dependencies = %v, want [%s]", testTarget.Dependencies, mainURI)
	}
}

// TestGetByProjectAndSourceSet exercises the alternate lookup key.
func TestGetByProjectAndSourceSet(t *testing.T) {
	projectDir := "/workspace/app"
	g := New(obslog.New())
	if _, err := g.Store(mainAndTestModels(projectDir)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	target, err := g.GetByProjectAndSourceSet(projectDir, "main")
	if err != nil {
		t.Fatalf("GetByProjectAndSourceSet: %v", err)
	}
	if target.ID != BuildTargetURI(projectDir, "main") {
		t.Fatalf("unexpected target ID %s", target.ID)
	}
}

// TestStoreReplacesSnapshotAtomically covers the wholesale-replacement side
// of scenario S6: after a second Store, a sequential reader sees only the new
// snapshot's targets and none of the old one's. It does not run concurrent
// readers.
func TestStoreReplacesSnapshotAtomically(t *testing.T) {
	projectDir := "/workspace/app"
	g := New(obslog.New())
	if _, err := g.Store(mainAndTestModels(projectDir)); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	firstCount := len(g.GetAll())

	solo := model.New("app", ":app", projectDir, projectDir, "main")
	solo.SourceDirs = []string{filepath.Join(projectDir, "src", "main", "java")}
	if _, err := g.Store([]*model.SourceSetModel{solo}); err != nil {
		t.Fatalf("second Store: %v", err)
	}
	secondCount := len(g.GetAll())

	if firstCount != 2 || secondCount != 1 {
		t.Fatalf("expected snapshot sizes 2 then 1, got %d then %d", firstCount, secondCount)
	}
	if _, err := g.GetByURI(BuildTargetURI(projectDir, "test")); err == nil {
		t.Fatal("expected test target to be gone after wholesale replacement")
	}
}

func TestUnknownTargetLookupFails(t *testing.T) {
	g := New(obslog.New())
	if _, err := g.GetByURI("file:///nowhere?sourceset=main"); err == nil {
		t.Fatal("expected TargetNotFound error")
	}
}
