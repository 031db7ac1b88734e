package linker

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jvmakine/fbsp/internal/model"
)

func newModel(projectDir, sourceSetName string) *model.SourceSetModel {
	return model.New("p", ":"+sourceSetName, projectDir, projectDir, sourceSetName)
}

// TestLinkJarBasedClasspath covers spec.md scenario S2: a jar dependency is
// rewritten to the class directories the publishing model declared.
func TestLinkJarBasedClasspath(t *testing.T) {
	foo := newModel(filepath.Join("root", "foo"), "main")
	foo.SourceOutputDirs = []string{filepath.Join("root", "foo", "build", "classes", "java", "main")}
	fooJar := filepath.Join("root", "foo", "build", "libs", "foo.jar")
	foo.ArchiveOutputFiles[fooJar] = []string{filepath.Join("root", "foo", "build", "classes", "java", "main")}

	bar := newModel(filepath.Join("root", "bar"), "main")
	bar.CompileClasspath = []string{fooJar}

	Link([]*model.SourceSetModel{foo, bar})

	want := []string{filepath.Join("root", "foo", "build", "classes", "java", "main")}
	if !reflect.DeepEqual(bar.CompileClasspath, want) {
		t.Fatalf("CompileClasspath = %v, want %v", bar.CompileClasspath, want)
	}
	if len(bar.BuildTargetDependencies) != 1 || bar.BuildTargetDependencies[0] != foo.Ref() {
		t.Fatalf("BuildTargetDependencies = %v, want [%v]", bar.BuildTargetDependencies, foo.Ref())
	}
}

// TestLinkDirectOutputDependency covers spec.md scenario S1: a test source
// set whose classpath directly references main's class output directory.
func TestLinkDirectOutputDependency(t *testing.T) {
	main := newModel(filepath.Join("root", "app"), "main")
	main.SourceOutputDirs = []string{filepath.Join("root", "app", "build", "classes", "java", "main")}

	test := newModel(filepath.Join("root", "app"), "test")
	test.CompileClasspath = []string{filepath.Join("root", "app", "build", "classes", "java", "main")}

	Link([]*model.SourceSetModel{main, test})

	if len(test.BuildTargetDependencies) != 1 || test.BuildTargetDependencies[0] != main.Ref() {
		t.Fatalf("expected test to depend on main, got %v", test.BuildTargetDependencies)
	}
	if !reflect.DeepEqual(test.CompileClasspath, main.SourceOutputDirs) {
		t.Fatalf("unlinked classpath entry should pass through unchanged, got %v", test.CompileClasspath)
	}
}

// TestLinkSelfReferenceExcluded covers the self-reference edge case: an
// archive key that equals one of its own producer's output dirs must not
// create a self-dependency.
func TestLinkSelfReferenceExcluded(t *testing.T) {
	m := newModel(filepath.Join("root", "lib"), "main")
	classesDir := filepath.Join("root", "lib", "build", "classes", "java", "main")
	m.SourceOutputDirs = []string{classesDir}
	m.ArchiveOutputFiles[classesDir] = []string{classesDir}
	m.CompileClasspath = []string{classesDir}

	Link([]*model.SourceSetModel{m})

	if len(m.BuildTargetDependencies) != 0 {
		t.Fatalf("expected no self-dependency, got %v", m.BuildTargetDependencies)
	}
}

// TestLinkIdempotent covers invariant 3: linking twice yields the same
// classpath as linking once.
func TestLinkIdempotent(t *testing.T) {
	foo := newModel(filepath.Join("root", "foo"), "main")
	foo.SourceOutputDirs = []string{filepath.Join("root", "foo", "build", "classes", "java", "main")}
	fooJar := filepath.Join("root", "foo", "build", "libs", "foo.jar")
	foo.ArchiveOutputFiles[fooJar] = []string{filepath.Join("root", "foo", "build", "classes", "java", "main")}

	bar := newModel(filepath.Join("root", "bar"), "main")
	bar.CompileClasspath = []string{fooJar}

	models := []*model.SourceSetModel{foo, bar}
	Link(models)
	first := append([]string{}, bar.CompileClasspath...)

	Link(models)
	if !reflect.DeepEqual(bar.CompileClasspath, first) {
		t.Fatalf("second Link changed classpath: %v vs %v", bar.CompileClasspath, first)
	}
	if len(bar.BuildTargetDependencies) != 1 {
		t.Fatalf("second Link duplicated dependencies: %v", bar.BuildTargetDependencies)
	}
}
