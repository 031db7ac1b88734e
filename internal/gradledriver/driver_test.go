package gradledriver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jvmakine/fbsp/internal/config"
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

func TestParseSettingsMultiProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "settings.gradle.kts"), `
rootProject.name = "demo"
include(":app", ":lib")
include("util")
`)
	writeFile(t, filepath.Join(root, "app", "build.gradle.kts"), "plugins { id(\"java\") }")
	writeFile(t, filepath.Join(root, "lib", "build.gradle.kts"), "plugins { id(\"java-library\") }")
	writeFile(t, filepath.Join(root, "util", "build.gradle.kts"), "plugins { id(\"java-library\") }")

	build, err := parseSettings(root)
	if err != nil {
		t.Fatalf("parseSettings: %v", err)
	}
	if build.RootProjectName != "demo" {
		t.Fatalf("RootProjectName = %q, want demo", build.RootProjectName)
	}
	if len(build.Projects) != 3 {
		t.Fatalf("Projects = %v, want 3 entries", build.Projects)
	}
}

func TestParseSettingsSingleProjectFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "build.gradle.kts"), "plugins { id(\"application\") }")

	build, err := parseSettings(root)
	if err != nil {
		t.Fatalf("parseSettings: %v", err)
	}
	if len(build.Projects) != 1 || build.Projects[0].Path != ":" {
		t.Fatalf("expected single root project, got %v", build.Projects)
	}
}

func TestDiscoverGradleVersionFromWrapper(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "gradle", "wrapper", "gradle-wrapper.properties"),
		"distributionUrl=https\\://services.gradle.org/distributions/gradle-8.5-bin.zip\n")

	version, err := discoverGradleVersion(root, config.GradlePreferences{})
	if err != nil {
		t.Fatalf("discoverGradleVersion: %v", err)
	}
	if version != "8.5" {
		t.Fatalf("version = %q, want 8.5", version)
	}
}

func TestDiscoverGradleVersionExplicitPreferenceWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "gradle", "wrapper", "gradle-wrapper.properties"),
		"distributionUrl=https\\://services.gradle.org/distributions/gradle-7.0-bin.zip\n")

	version, err := discoverGradleVersion(root, config.GradlePreferences{Version: "8.8"})
	if err != nil {
		t.Fatalf("discoverGradleVersion: %v", err)
	}
	if version != "8.8" {
		t.Fatalf("version = %q, want 8.8 (explicit preference)", version)
	}
}

func TestConnectRejectsBelowMinimumVersion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "settings.gradle.kts"), `rootProject.name = "demo"`)

	driver := New()
	_, err := driver.Connect(context.Background(), root, config.GradlePreferences{Version: "1.0"})
	if err == nil {
		t.Fatal("expected error for unsupported gradle version")
	}
}

func TestIncludedBuildsDeduplicatesByRootProjectName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "settings.gradle.kts"), `
rootProject.name = "demo"
includeBuild("./libs/util")
`)
	writeFile(t, filepath.Join(root, "build.gradle.kts"), "plugins { id(\"application\") }")
	utilDir := filepath.Join(root, "libs", "util")
	writeFile(t, filepath.Join(utilDir, "settings.gradle.kts"), `rootProject.name = "util"`)
	writeFile(t, filepath.Join(utilDir, "build.gradle.kts"), "plugins { id(\"java-library\") }")

	driver := New()
	conn, err := driver.Connect(context.Background(), root, config.GradlePreferences{Version: "8.5"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	rootBuild, err := conn.RootBuild(context.Background())
	if err != nil {
		t.Fatalf("RootBuild: %v", err)
	}
	included, err := conn.IncludedBuilds(context.Background(), rootBuild)
	if err != nil {
		t.Fatalf("IncludedBuilds: %v", err)
	}
	if len(included) != 1 || included[0].RootProjectName != "util" {
		t.Fatalf("IncludedBuilds = %v, want one build named util", included)
	}
}
