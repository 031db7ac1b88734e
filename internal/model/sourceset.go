// Package model holds the SourceSetModel and BuildTarget records that flow
// between the probe, linker and target-graph stages of the pipeline.
package model

import "strings"

// JavaExtension carries the Java-specific compile settings for one source set.
type JavaExtension struct {
	JavaVersion         string   `json:"javaVersion"`
	SourceCompatibility string   `json:"sourceCompatibility"`
	TargetCompatibility string   `json:"targetCompatibility"`
	CompilerArgs        []string `json:"compilerArgs"`
}

// KotlinExtension carries the Kotlin-specific compile settings for one source set.
type KotlinExtension struct {
	LanguageVersion string   `json:"languageVersion"`
	ApiVersion      string   `json:"apiVersion"`
	CompilerArgs    []string `json:"compilerArgs"`
}

// ScalaExtension carries the Scala-specific compile settings for one source set.
type ScalaExtension struct {
	ScalaVersion string   `json:"scalaVersion"`
	CompilerArgs []string `json:"compilerArgs"`
}

// LanguageExtensions bundles the per-language records that may coexist on one
// source set, per the "multiple language extensions" open question.
type LanguageExtensions struct {
	Java   *JavaExtension   `json:"java,omitempty"`
	Kotlin *KotlinExtension `json:"kotlin,omitempty"`
	Scala  *ScalaExtension  `json:"scala,omitempty"`
}

// Names returns the languages present on this extension set, in the order
// Java, Kotlin, Scala.
func (le LanguageExtensions) Names() []string {
	var names []string
	if le.Java != nil {
		names = append(names, "java")
	}
	if le.Kotlin != nil {
		names = append(names, "kotlin")
	}
	if le.Scala != nil {
		names = append(names, "scala")
	}
	return names
}

// ModuleClassifier is one classified artifact file (main, sources, javadoc, ...)
// belonging to a resolved module dependency.
type ModuleClassifier struct {
	Classifier string `json:"classifier"`
	URI        string `json:"uri"`
}

// ModuleDependency is one resolved external artifact on a compile classpath.
type ModuleDependency struct {
	Group       string             `json:"group"`
	Name        string             `json:"name"`
	Version     string             `json:"version"`
	Classifiers []ModuleClassifier `json:"classifiers"`
}

// BuildTargetRef identifies a sibling source set that a model depends on.
// It is the pre-URI form of a dependency edge; TargetGraph turns it into a
// stable build target ID.
type BuildTargetRef struct {
	ProjectDir    string `json:"projectDir"`
	SourceSetName string `json:"sourceSetName"`
}

// SourceSetModel is one (project, source-set-or-variant) record produced by
// ModelProbe, mutated in place by DependencyLinker, and immutable once
// published into a TargetGraph snapshot.
type SourceSetModel struct {
	ProjectName   string `json:"projectName"`
	ProjectPath   string `json:"projectPath"`
	ProjectDir    string `json:"projectDir"`
	RootDir       string `json:"rootDir"`
	SourceSetName string `json:"sourceSetName"`
	DisplayName   string `json:"displayName"`
	GradleVersion string `json:"gradleVersion"`

	ClassesTaskName string   `json:"classesTaskName"`
	CleanTaskName   string   `json:"cleanTaskName"`
	TaskNames       []string `json:"taskNames"`

	SourceDirs          []string `json:"sourceDirs"`
	GeneratedSourceDirs []string `json:"generatedSourceDirs"`
	ResourceDirs        []string `json:"resourceDirs"`
	SourceOutputDirs    []string `json:"sourceOutputDirs"`
	ResourceOutputDirs  []string `json:"resourceOutputDirs"`

	// ArchiveOutputFiles maps an archive path to the class directories it bundles.
	ArchiveOutputFiles map[string][]string `json:"archiveOutputFiles"`

	// CompileClasspath is the ordered, absolute-path compile classpath.
	CompileClasspath []string `json:"compileClasspath"`

	ModuleDependencies      []ModuleDependency `json:"moduleDependencies"`
	BuildTargetDependencies []BuildTargetRef   `json:"buildTargetDependencies"`

	HasTests   bool               `json:"hasTests"`
	Extensions LanguageExtensions `json:"extensions"`
}

// New creates a SourceSetModel with every collection field initialized to an
// empty (never nil) value, so JSON marshaling never emits null for an
// optional field that simply has nothing in it.
func New(projectName, projectPath, projectDir, rootDir, sourceSetName string) *SourceSetModel {
	return &SourceSetModel{
		ProjectName:             projectName,
		ProjectPath:             projectPath,
		ProjectDir:              projectDir,
		RootDir:                 rootDir,
		SourceSetName:           sourceSetName,
		TaskNames:               []string{},
		SourceDirs:              []string{},
		GeneratedSourceDirs:     []string{},
		ResourceDirs:            []string{},
		SourceOutputDirs:        []string{},
		ResourceOutputDirs:      []string{},
		ArchiveOutputFiles:      map[string][]string{},
		CompileClasspath:        []string{},
		ModuleDependencies:      []ModuleDependency{},
		BuildTargetDependencies: []BuildTargetRef{},
	}
}

// IsTestSourceSet codifies spec.md §9's open-question resolution: a source
// set counts as a test source set when its name identifies it as one by
// Gradle/Android convention AND it actually carries compileable sources. This
// is the single rule ModelProbe (HasTests) and TargetGraph (the "test" tag)
// both defer to, so the two can never disagree about the same source set.
func IsTestSourceSet(sourceSetName string, sourceDirs []string) bool {
	if len(sourceDirs) == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(sourceSetName), "test")
}

// Ref returns the BuildTargetRef identifying this model.
func (m *SourceSetModel) Ref() BuildTargetRef {
	return BuildTargetRef{ProjectDir: m.ProjectDir, SourceSetName: m.SourceSetName}
}

// AddBuildTargetDependency records a dependency on another model, skipping
// duplicates and self-references.
func (m *SourceSetModel) AddBuildTargetDependency(ref BuildTargetRef) {
	if ref == m.Ref() {
		return
	}
	for _, existing := range m.BuildTargetDependencies {
		if existing == ref {
			return
		}
	}
	m.BuildTargetDependencies = append(m.BuildTargetDependencies, ref)
}

// outputSet is the set of directories that identify a model's own outputs,
// used by OutputEntries.
func (m *SourceSetModel) outputSet() []string {
	all := make([]string, 0, len(m.SourceOutputDirs)+len(m.ResourceOutputDirs))
	all = append(all, m.SourceOutputDirs...)
	all = append(all, m.ResourceOutputDirs...)
	return all
}

// OutputEntries returns every filesystem path (source/resource output dirs
// plus archive keys) that identifies this model as a dependency target.
func (m *SourceSetModel) OutputEntries() []string {
	entries := m.outputSet()
	for archive := range m.ArchiveOutputFiles {
		entries = append(entries, archive)
	}
	return entries
}
