// Package gradledriver is the GradleDriver collaborator from spec.md §6.1: it
// opens a connection to a Gradle project and enumerates its root and
// included/editable builds. The "connection" here is a filesystem-level
// stand-in for a live Tooling API session (no JVM or Tooling API is
// available to this process); it reads settings.gradle(.kts) and each
// project's build.gradle.kts the way the teacher's GradleCompilationRoot
// does, generalized to walk the whole build graph instead of one directory.
package gradledriver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jvmakine/fbsp/internal/config"
	"github.com/jvmakine/fbsp/internal/gradlecompat"
)

// BasicGradleProject is one project within a GradleBuild.
type BasicGradleProject struct {
	Name       string
	Path       string // Gradle-style ":a:b"
	ProjectDir string
}

// GradleBuild is one root or included build: a settings.gradle(.kts) file
// plus the projects it declares.
type GradleBuild struct {
	RootProjectName string
	RootDir         string
	Projects        []BasicGradleProject
}

// GradleDriver opens Tooling-API-shaped connections to a Gradle project.
type GradleDriver interface {
	Connect(ctx context.Context, projectRoot string, prefs config.GradlePreferences) (Connection, error)
}

// Connection models a live Gradle Tooling API session for one project root.
type Connection interface {
	// GradleVersion reports the effective Gradle version for this
	// connection (wrapper-pinned, explicitly configured, or discovered).
	GradleVersion() string
	// RootBuild returns the root build.
	RootBuild(ctx context.Context) (*GradleBuild, error)
	// IncludedBuilds recursively enumerates included/editable builds,
	// de-duplicated by root project name, per spec.md §4.2 step 2.
	IncludedBuilds(ctx context.Context, root *GradleBuild) ([]*GradleBuild, error)
	// Close releases any resources held by the connection.
	Close() error
}

// filesystemDriver is fbsp's concrete GradleDriver: no Tooling API, no JVM —
// it statically parses settings files.
type filesystemDriver struct{}

// New returns the default filesystem-backed GradleDriver.
func New() GradleDriver {
	return &filesystemDriver{}
}

func (d *filesystemDriver) Connect(ctx context.Context, projectRoot string, prefs config.GradlePreferences) (Connection, error) {
	version, err := discoverGradleVersion(projectRoot, prefs)
	if err != nil {
		return nil, err
	}
	minimum := "5.0"
	if gradlecompat.Compare(version, minimum) < 0 {
		return nil, fmt.Errorf("gradle version %s is below the minimum supported version %s", version, minimum)
	}
	return &filesystemConnection{projectRoot: projectRoot, version: version}, nil
}

type filesystemConnection struct {
	projectRoot string
	version     string
}

func (c *filesystemConnection) GradleVersion() string { return c.version }

func (c *filesystemConnection) Close() error { return nil }

func (c *filesystemConnection) RootBuild(ctx context.Context) (*GradleBuild, error) {
	return parseSettings(c.projectRoot)
}

func (c *filesystemConnection) IncludedBuilds(ctx context.Context, root *GradleBuild) ([]*GradleBuild, error) {
	seen := map[string]bool{root.RootProjectName: true}
	var result []*GradleBuild
	var walk func(build *GradleBuild) error
	walk = func(build *GradleBuild) error {
		settingsPath := findSettingsFile(build.RootDir)
		if settingsPath == "" {
			return nil
		}
		included, err := parseIncludedBuilds(settingsPath, build.RootDir)
		if err != nil {
			return err
		}
		for _, includedDir := range included {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			childBuild, err := parseSettings(includedDir)
			if err != nil {
				continue // Gradle version skew or malformed settings: skip, don't fail the whole aggregation.
			}
			if seen[childBuild.RootProjectName] {
				continue
			}
			seen[childBuild.RootProjectName] = true
			result = append(result, childBuild)
			if err := walk(childBuild); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return result, nil
}

// discoverGradleVersion resolves the effective Gradle version: an explicit
// preference wins, then the wrapper properties file. No installed gradle
// (GRADLE_HOME, PATH) is consulted; without either source it returns an
// error.
func discoverGradleVersion(projectRoot string, prefs config.GradlePreferences) (string, error) {
	if prefs.Version != "" {
		return prefs.Version, nil
	}
	wrapperProps := filepath.Join(projectRoot, "gradle", "wrapper", "gradle-wrapper.properties")
	if data, err := os.ReadFile(wrapperProps); err == nil {
		re := regexp.MustCompile(`gradle-([0-9][0-9.]*)-(?:bin|all)\.zip`)
		if m := re.FindStringSubmatch(string(data)); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("could not discover a gradle version for %s: no gradle-wrapper.properties and no configured version/installation", projectRoot)
}

var (
	includeFlatRegex  = regexp.MustCompile(`^\s*include\s+["']([^"']+)["']`)
	rootProjectNameRe = regexp.MustCompile(`rootProject\.name\s*=\s*["']([^"']+)["']`)
	includeBuildRegex = regexp.MustCompile(`includeBuild\s*\(\s*["']([^"']+)["']\s*\)`)
)

// findSettingsFile returns the settings.gradle(.kts) path under dir, or "".
func findSettingsFile(dir string) string {
	for _, name := range []string{"settings.gradle.kts", "settings.gradle"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// parseSettings builds a GradleBuild by reading rootDir's settings file (if
// any) and resolving each declared project's directory and build file.
func parseSettings(rootDir string) (*GradleBuild, error) {
	rootDir = filepath.Clean(rootDir)
	build := &GradleBuild{RootProjectName: filepath.Base(rootDir), RootDir: rootDir}

	settingsPath := findSettingsFile(rootDir)
	if settingsPath == "" {
		// No multi-project settings file: treat rootDir itself as the
		// sole project, iff it has a build file.
		if hasBuildFile(rootDir) {
			build.Projects = append(build.Projects, BasicGradleProject{
				Name:       filepath.Base(rootDir),
				Path:       ":",
				ProjectDir: rootDir,
			})
		}
		return build, nil
	}

	content, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", settingsPath, err)
	}
	text := string(content)
	if m := rootProjectNameRe.FindStringSubmatch(text); m != nil {
		build.RootProjectName = m[1]
	}

	// The root project itself is included iff it has a build file.
	if hasBuildFile(rootDir) {
		build.Projects = append(build.Projects, BasicGradleProject{
			Name:       build.RootProjectName,
			Path:       ":",
			ProjectDir: rootDir,
		})
	}

	for _, path := range extractIncludedPaths(text) {
		projectDir := filepath.Join(rootDir, strings.ReplaceAll(strings.TrimPrefix(path, ":"), ":", string(filepath.Separator)))
		name := path
		if idx := strings.LastIndex(path, ":"); idx >= 0 {
			name = path[idx+1:]
		}
		build.Projects = append(build.Projects, BasicGradleProject{
			Name:       name,
			Path:       path,
			ProjectDir: projectDir,
		})
	}
	return build, nil
}

func hasBuildFile(dir string) bool {
	for _, name := range []string{"build.gradle.kts", "build.gradle"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// extractIncludedPaths parses the include(...) / include "..." statements
// from a settings.gradle(.kts) body, including multi-argument calls like
// include(":a", ":b").
func extractIncludedPaths(text string) []string {
	var paths []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	quotedRe := regexp.MustCompile(`["']([^"']+)["']`)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "include") && (strings.Contains(trimmed, "(") || includeFlatRegex.MatchString(trimmed)) {
			for _, m := range quotedRe.FindAllStringSubmatch(trimmed, -1) {
				paths = append(paths, m[1])
			}
		}
	}
	return paths
}

// parseIncludedBuilds parses includeBuild(...) statements from a settings
// file and resolves them to absolute directories.
func parseIncludedBuilds(settingsPath, rootDir string) ([]string, error) {
	content, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", settingsPath, err)
	}
	var dirs []string
	for _, m := range includeBuildRegex.FindAllStringSubmatch(string(content), -1) {
		dir := m[1]
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(rootDir, dir)
		}
		dirs = append(dirs, filepath.Clean(dir))
	}
	return dirs, nil
}
