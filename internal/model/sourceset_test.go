package model

import "testing"

func TestNewInitializesEmptyCollections(t *testing.T) {
	m := New("app", ":app", "/proj/app", "/proj", "main")
	if m.TaskNames == nil || m.SourceDirs == nil || m.ArchiveOutputFiles == nil || m.ModuleDependencies == nil || m.BuildTargetDependencies == nil {
		t.Fatal("New must initialize every collection field to non-nil")
	}
}

func TestAddBuildTargetDependencyDedupesAndSkipsSelf(t *testing.T) {
	m := New("app", ":app", "/proj/app", "/proj", "main")
	ref := BuildTargetRef{ProjectDir: "/proj/lib", SourceSetName: "main"}

	m.AddBuildTargetDependency(ref)
	m.AddBuildTargetDependency(ref)
	if len(m.BuildTargetDependencies) != 1 {
		t.Fatalf("expected dedup, got %v", m.BuildTargetDependencies)
	}

	m.AddBuildTargetDependency(m.Ref())
	if len(m.BuildTargetDependencies) != 1 {
		t.Fatalf("expected self-reference to be skipped, got %v", m.BuildTargetDependencies)
	}
}

func TestLanguageExtensionsNamesPrecedence(t *testing.T) {
	le := LanguageExtensions{Java: &JavaExtension{}, Scala: &ScalaExtension{}, Kotlin: &KotlinExtension{}}
	names := le.Names()
	want := []string{"java", "kotlin", "scala"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}

func TestOutputEntriesIncludesArchiveKeys(t *testing.T) {
	m := New("app", ":app", "/proj/app", "/proj", "main")
	m.SourceOutputDirs = []string{"/proj/app/build/classes/java/main"}
	m.ArchiveOutputFiles["/proj/app/build/libs/app.jar"] = []string{"/proj/app/build/classes/java/main"}

	entries := m.OutputEntries()
	if len(entries) != 2 {
		t.Fatalf("OutputEntries() = %v, want 2 entries", entries)
	}
}
