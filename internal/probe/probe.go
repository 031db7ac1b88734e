// Package probe implements ModelProbe (spec.md §4.1): it produces one
// SourceSetModel per project/source-set. It runs as a regular Go package
// rather than in-process inside the Gradle build JVM (no JVM is available to
// this process); it consumes a ProjectView that BuildAggregator assembles from
// the project's on-disk layout and build.gradle.kts, which stands in for
// what the co-resident probe plugin would report over the Tooling API wire.
package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jvmakine/fbsp/internal/bsperrors"
	"github.com/jvmakine/fbsp/internal/gradledriver/buildfile"
	"github.com/jvmakine/fbsp/internal/gradledriver/versioncatalog"
	"github.com/jvmakine/fbsp/internal/model"
	"github.com/jvmakine/fbsp/internal/obslog"
	"github.com/jvmakine/fbsp/internal/probe/android"
)

// languageDirs maps each supported JVM language to its conventional source
// directory name under src/<sourceSet>/.
var languageDirs = map[string]string{
	"java":   model.LanguageJava,
	"kotlin": model.LanguageKotlin,
	"scala":  model.LanguageScala,
	"groovy": model.LanguageGroovy,
}

// ProjectView is the per-project input ModelProbe consumes: everything a
// live Tooling API model provider would have exposed about one project,
// assembled ahead of time by BuildAggregator from the GradleDriver's project
// list.
type ProjectView struct {
	ProjectName   string
	ProjectPath   string
	ProjectDir    string
	RootDir       string
	GradleVersion string
	BuildInfo     *buildfile.BuildInfo
	Catalog       *versioncatalog.Catalog
	Repositories  []string
}

// ModelProbe extracts SourceSetModels for one project.
type ModelProbe interface {
	Probe(ctx context.Context, view ProjectView) ([]*model.SourceSetModel, error)
}

// New returns the default ModelProbe, which dispatches to the Android
// variant path when the build file applies a recognized Android plugin
// (android.IsAndroidProject) and to the plain JVM source-set path otherwise.
func New(log *obslog.Logger) ModelProbe {
	return &jvmProbe{log: log}
}

type jvmProbe struct {
	log *obslog.Logger
}

func (p *jvmProbe) Probe(ctx context.Context, view ProjectView) ([]*model.SourceSetModel, error) {
	if view.ProjectDir == "" {
		return nil, &bsperrors.ModelDeserializationFailed{Reason: "project directory is empty"}
	}

	if android.IsAndroidProject(view.BuildInfo) {
		return android.Probe(ctx, android.ProjectView{
			ProjectName:   view.ProjectName,
			ProjectPath:   view.ProjectPath,
			ProjectDir:    view.ProjectDir,
			RootDir:       view.RootDir,
			GradleVersion: view.GradleVersion,
			BuildInfo:     view.BuildInfo,
			Catalog:       view.Catalog,
		}, p.log)
	}

	sourceSetNames := discoverSourceSetNames(view.ProjectDir)
	if len(sourceSetNames) == 0 {
		return nil, nil
	}

	var models []*model.SourceSetModel
	for _, name := range sourceSetNames {
		m, err := p.probeSourceSet(view, name)
		if err != nil {
			// Guarded per spec.md §4.1: a structural failure for one
			// source set is logged, not fatal to the project's probe.
			if p.log != nil {
				p.log.Warn("skipping source set %s in %s: %v", name, view.ProjectDir, err)
			}
			continue
		}
		if m != nil {
			models = append(models, m)
		}
	}
	return models, nil
}

func (p *jvmProbe) probeSourceSet(view ProjectView, sourceSetName string) (*model.SourceSetModel, error) {
	m := model.New(view.ProjectName, view.ProjectPath, view.ProjectDir, view.RootDir, sourceSetName)
	m.GradleVersion = view.GradleVersion
	m.DisplayName = fmt.Sprintf("%s:%s", view.ProjectPath, sourceSetName)
	m.ClassesTaskName = classesTaskName(sourceSetName)
	m.CleanTaskName = "clean"
	m.TaskNames = []string{m.ClassesTaskName}

	srcRoot := filepath.Join(view.ProjectDir, "src", sourceSetName)

	var languages []string
	for dirName, lang := range languageDirs {
		langDir := filepath.Join(srcRoot, dirName)
		if files, err := collectSourceFiles(langDir); err == nil && len(files) > 0 {
			m.SourceDirs = append(m.SourceDirs, langDir)
			languages = append(languages, lang)
		}
	}
	sort.Strings(m.SourceDirs)
	sort.Strings(languages)

	resourcesDir := filepath.Join(srcRoot, "resources")
	if info, err := os.Stat(resourcesDir); err == nil && info.IsDir() {
		m.ResourceDirs = append(m.ResourceDirs, resourcesDir)
	}

	if len(m.SourceDirs) == 0 && len(m.ResourceDirs) == 0 {
		return nil, nil
	}

	m.GeneratedSourceDirs = discoverGeneratedSourceDirs(view.ProjectDir, sourceSetName, m.SourceDirs)

	for _, lang := range languages {
		m.SourceOutputDirs = append(m.SourceOutputDirs, filepath.Join(view.ProjectDir, "build", "classes", lang, sourceSetName))
	}
	if len(m.ResourceDirs) > 0 {
		m.ResourceOutputDirs = append(m.ResourceOutputDirs, filepath.Join(view.ProjectDir, "build", "resources", sourceSetName))
	}

	if sourceSetName == "main" && view.BuildInfo != nil && isArchivePlugin(view.BuildInfo) {
		archivePath := filepath.Join(view.ProjectDir, "build", "libs", view.ProjectName+".jar")
		m.ArchiveOutputFiles[archivePath] = append([]string{}, m.SourceOutputDirs...)
	}

	m.CompileClasspath = resolveCompileClasspath(view)
	m.ModuleDependencies = resolveModuleDependencies(view)

	m.HasTests = model.IsTestSourceSet(sourceSetName, m.SourceDirs)

	if contains(languages, model.LanguageJava) {
		m.Extensions.Java = buildJavaExtension(view)
	}
	if contains(languages, model.LanguageKotlin) {
		m.Extensions.Kotlin = &model.KotlinExtension{}
	}
	if contains(languages, model.LanguageScala) {
		m.Extensions.Scala = &model.ScalaExtension{}
	}

	return m, nil
}

// discoverSourceSetNames enumerates the project's source sets by scanning
// src/<name>/ for one of the known language directories or a resources dir,
// the filesystem-convention analogue of Gradle's SourceSetContainer.
func discoverSourceSetNames(projectDir string) []string {
	srcDir := filepath.Join(projectDir, "src")
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(srcDir, entry.Name())
		if hasAnySourceContent(candidate) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

func hasAnySourceContent(sourceSetDir string) bool {
	for dirName := range languageDirs {
		if info, err := os.Stat(filepath.Join(sourceSetDir, dirName)); err == nil && info.IsDir() {
			return true
		}
	}
	if info, err := os.Stat(filepath.Join(sourceSetDir, "resources")); err == nil && info.IsDir() {
		return true
	}
	return false
}

func collectSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return files, nil
}

// discoverGeneratedSourceDirs returns compile-task inputs not covered by any
// declared source dir, per spec.md §4.1's "(compileTask.sources) \
// sourceDirs" rule, approximated here by Gradle's conventional
// build/generated/sources tree.
func discoverGeneratedSourceDirs(projectDir, sourceSetName string, declared []string) []string {
	generatedRoot := filepath.Join(projectDir, "build", "generated", "sources")
	entries, err := os.ReadDir(generatedRoot)
	if err != nil {
		return []string{}
	}
	result := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(generatedRoot, entry.Name(), sourceSetName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() && !coveredByAny(candidate, declared) {
			result = append(result, candidate)
		}
	}
	sort.Strings(result)
	return result
}

// coveredByAny reports whether candidate is contained by (path-prefix
// containment) any directory in declared.
func coveredByAny(candidate string, declared []string) bool {
	for _, d := range declared {
		rel, err := filepath.Rel(d, candidate)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func isArchivePlugin(info *buildfile.BuildInfo) bool {
	return info.HasPlugin("java") || info.HasPlugin("application") || info.HasPlugin("java-library") || info.HasPlugin("war")
}

func classesTaskName(sourceSetName string) string {
	if sourceSetName == "main" {
		return "classes"
	}
	return sourceSetName + "Classes"
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
