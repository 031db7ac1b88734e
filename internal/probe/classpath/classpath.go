// Package classpath resolves a project's compile classpath, resolved module
// dependencies, and Java compiler settings from its parsed build file and
// version catalog. It is shared by ModelProbe's plain-JVM path
// (internal/probe) and its Android variant path (internal/probe/android) so
// both populate these fields identically; it lives in its own package
// because internal/probe/android cannot import internal/probe (which itself
// imports internal/probe/android to dispatch to it).
package classpath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jvmakine/fbsp/internal/gradlecompat"
	"github.com/jvmakine/fbsp/internal/gradledriver/buildfile"
	"github.com/jvmakine/fbsp/internal/gradledriver/versioncatalog"
	"github.com/jvmakine/fbsp/internal/model"
)

// GradleUserHome is overridable in tests; defaults to ~/.gradle.
var GradleUserHome = func() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".gradle")
	}
	return ".gradle"
}

// resolveCoordinate resolves a declared dependency to its (group, name,
// version), following a version-catalog reference when the dependency was
// declared as libs.xyz rather than a literal coordinate string.
func resolveCoordinate(dep buildfile.Dependency, catalog *versioncatalog.Catalog) (group, name, version string) {
	group, name, version = dep.Group, dep.Name, dep.Version
	if dep.VersionCatalogRef != "" && catalog != nil {
		if lib, ok := catalog.GetLibrary(dep.VersionCatalogRef); ok {
			group, name, version = lib.Group, lib.Name, lib.Version
		}
	}
	return group, name, version
}

// ResolveCompileClasspath builds the ordered compile classpath for a
// project: resolved module jars under the Gradle cache convention, followed
// by project-dependency output directories. Project-dependency entries are
// recorded as the sibling's conventional main-classes directory; the
// DependencyLinker matches them against the sibling's SourceOutputDirs to
// add a dependency edge and leaves the entry itself unchanged.
func ResolveCompileClasspath(rootDir string, info *buildfile.BuildInfo, catalog *versioncatalog.Catalog) []string {
	if info == nil {
		return []string{}
	}
	cp := []string{}
	for _, dep := range info.ExternalDependencies() {
		group, name, version := resolveCoordinate(dep, catalog)
		if group == "" || name == "" {
			continue
		}
		cp = append(cp, ModuleJarPath(group, name, version))
	}
	for _, dep := range info.ProjectDependencies() {
		cp = append(cp, ProjectDependencyPlaceholder(rootDir, dep.Name))
	}
	return cp
}

// ModuleJarPath mirrors the Gradle module cache layout under
// ~/.gradle/caches/modules-2/files-2.1/<group>/<name>/<version>/<name>-<version>.jar.
// The hash-named directory Gradle places between the version and the jar is
// not part of the returned path.
func ModuleJarPath(group, name, version string) string {
	jarName := name
	if version != "" {
		jarName = name + "-" + version
	}
	return filepath.Join(GradleUserHome(), "caches", "modules-2", "files-2.1", group, name, version, jarName+".jar")
}

// ProjectDependencyPlaceholder records a sibling-project classpath entry by
// its expected main-classes output directory; DependencyLinker matches this
// against the sibling's actual SourceOutputDirs.
func ProjectDependencyPlaceholder(rootDir, gradlePath string) string {
	rel := strings.ReplaceAll(strings.TrimPrefix(gradlePath, ":"), ":", string(filepath.Separator))
	return filepath.Join(rootDir, rel, "build", "classes", "java", "main")
}

// ResolveModuleDependencies returns the resolved external dependencies as
// ModuleDependency records, for the BuildTarget's dependency listing.
func ResolveModuleDependencies(info *buildfile.BuildInfo, catalog *versioncatalog.Catalog) []model.ModuleDependency {
	if info == nil {
		return []model.ModuleDependency{}
	}
	result := []model.ModuleDependency{}
	for _, dep := range info.ExternalDependencies() {
		group, name, version := resolveCoordinate(dep, catalog)
		if group == "" || name == "" {
			continue
		}
		result = append(result, model.ModuleDependency{Group: group, Name: name, Version: version})
	}
	return result
}

// BuildJavaExtension constructs a JavaExtension with this compiler-args
// precedence: pre-declared --source/--target/--release in declaredArgs win
// outright; otherwise, on Gradle >= 6.6 it appends --release with the latest
// JDK the Gradle version supports and leaves source/targetCompatibility
// empty; on earlier Gradle it sets source/targetCompatibility to that JDK
// instead. There is no notion of a separately configured release: the
// --release flag is emitted on every Gradle >= 6.6 without a pre-declared
// flag.
func BuildJavaExtension(gradleVersion string, declaredArgs []string) *model.JavaExtension {
	ext := &model.JavaExtension{}
	javaVersion := gradlecompat.LatestCompatibleJavaVersion(gradleVersion)
	ext.JavaVersion = javaVersion

	if hasCompilerFlag(declaredArgs, "--source") || hasCompilerFlag(declaredArgs, "--target") || hasCompilerFlag(declaredArgs, "--release") {
		ext.CompilerArgs = declaredArgs
		return ext
	}

	if javaVersion != "" && gradlecompat.Compare(gradleVersion, "6.6") >= 0 {
		ext.CompilerArgs = append(declaredArgs, "--release", javaVersion)
		return ext
	}

	ext.SourceCompatibility = javaVersion
	ext.TargetCompatibility = javaVersion
	ext.CompilerArgs = declaredArgs
	return ext
}

func hasCompilerFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}
