// Package android implements the Android variant path of ModelProbe
// (spec.md §4.1/§9). The Android Gradle Plugin's variant API has no stable
// shape across versions, so the original probe reaches for dynamic member
// lookup rather than a fixed interface; this package expresses the same
// idea as a small capability-probing layer over reflect.Value, with each
// capability guarded so a missing member skips that one enrichment instead
// of failing the whole probe.
package android

import (
	"context"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/jvmakine/fbsp/internal/gradledriver/buildfile"
	"github.com/jvmakine/fbsp/internal/gradledriver/versioncatalog"
	"github.com/jvmakine/fbsp/internal/model"
	"github.com/jvmakine/fbsp/internal/obslog"
	"github.com/jvmakine/fbsp/internal/probe/classpath"
)

// Capability is a guarded accessor over a variant-shaped value: it reports
// the extracted value and whether the underlying member was present at all.
type Capability[T any] func(variant reflect.Value) (T, bool)

// PluginKind identifies which Android plugin a project applies, which
// determines which variant-collection accessors exist and what archive
// artifact its non-test variants produce.
type PluginKind int

const (
	PluginNone PluginKind = iota
	PluginApplication
	PluginLibrary
	PluginDynamicFeature
	PluginFeature
	PluginTest
)

var pluginIDs = map[string]PluginKind{
	"com.android.application":     PluginApplication,
	"com.android.library":         PluginLibrary,
	"com.android.dynamic-feature": PluginDynamicFeature,
	"com.android.feature":         PluginFeature,
	"com.android.test":            PluginTest,
}

// IsAndroidProject reports whether the project's build file applies a
// recognized Android plugin.
func IsAndroidProject(info *buildfile.BuildInfo) bool {
	if info == nil {
		return false
	}
	for _, p := range info.Plugins {
		if _, ok := pluginIDs[p]; ok {
			return true
		}
	}
	return false
}

func pluginKind(info *buildfile.BuildInfo) PluginKind {
	if info == nil {
		return PluginNone
	}
	for _, p := range info.Plugins {
		if kind, ok := pluginIDs[p]; ok {
			return kind
		}
	}
	return PluginNone
}

// ProjectView is the Android-specific input mirroring probe.ProjectView,
// kept separate so this package has no import-cycle dependency back onto
// the parent probe package.
type ProjectView struct {
	ProjectName   string
	ProjectPath   string
	ProjectDir    string
	RootDir       string
	GradleVersion string
	BuildInfo     *buildfile.BuildInfo
	Catalog       *versioncatalog.Catalog
}

// variantDescriptor is this adapter's stand-in for the Android Gradle
// Plugin's BaseVariant object: a reflect-addressable value the capability
// functions below probe the way the original probes a live Groovy/Java
// object of unknown exact shape.
type variantDescriptor struct {
	Name              string
	IsTest            bool
	TestedVariantName string
	JavaDirectories   []string
	KotlinDirectories []string
	ResDirectories    []string
	ResourcesDirs     []string
	BootClasspath     []string
}

// HasTestedVariant reports whether the variant carries a testedVariant
// property, the Android signal ModelProbe uses for hasTests (spec.md §4.1).
var HasTestedVariant Capability[string] = func(v reflect.Value) (string, bool) {
	field := v.FieldByName("TestedVariantName")
	if !field.IsValid() || field.Kind() != reflect.String || field.String() == "" {
		return "", false
	}
	return field.String(), true
}

// HasBootClasspathProvider reports whether the variant's owning project
// exposes an SDK bootclasspath, mirroring
// androidComponents.sdkComponents.bootclasspathProvider.
var HasBootClasspathProvider Capability[[]string] = func(v reflect.Value) ([]string, bool) {
	field := v.FieldByName("BootClasspath")
	if !field.IsValid() || field.Kind() != reflect.Slice || field.Len() == 0 {
		return nil, false
	}
	out := make([]string, field.Len())
	for i := range out {
		out[i] = field.Index(i).String()
	}
	return out, true
}

// HasResDirectories reports whether the variant's source sets carry
// Android resource directories (omitted for unit-test variants).
var HasResDirectories Capability[[]string] = func(v reflect.Value) ([]string, bool) {
	field := v.FieldByName("ResDirectories")
	if !field.IsValid() || field.Kind() != reflect.Slice || field.Len() == 0 {
		return nil, false
	}
	out := make([]string, field.Len())
	for i := range out {
		out[i] = field.Index(i).String()
	}
	return out, true
}

// Probe enumerates Android variants by filesystem convention (src/<variant>/
// java|kotlin|res|resources) standing in for the live variant collections
// (applicationVariants/testVariants/unitTestVariants), and applies each
// capability above to populate the resulting SourceSetModels: outputs,
// classpath, module dependencies and language extensions, the same fields
// the plain-JVM path populates via internal/probe/classpath.
func Probe(ctx context.Context, view ProjectView, log *obslog.Logger) ([]*model.SourceSetModel, error) {
	kind := pluginKind(view.BuildInfo)
	variantNames := discoverVariantNames(view.ProjectDir)
	bootJar, hasBootJar := sdkPlatformJar()

	var models []*model.SourceSetModel
	for _, name := range variantNames {
		descriptor := buildDescriptor(view.ProjectDir, name)
		if hasBootJar {
			descriptor.BootClasspath = []string{bootJar}
		}
		rv := reflect.ValueOf(descriptor)

		m := model.New(view.ProjectName, view.ProjectPath, view.ProjectDir, view.RootDir, name)
		m.GradleVersion = view.GradleVersion
		m.DisplayName = view.ProjectPath + ":" + name
		m.ClassesTaskName = "assemble" + capitalize(name)
		m.TaskNames = []string{m.ClassesTaskName, "compile" + capitalize(name) + "JavaWithJavac"}

		m.SourceDirs = append(m.SourceDirs, descriptor.JavaDirectories...)
		m.SourceDirs = append(m.SourceDirs, descriptor.KotlinDirectories...)
		if resDirs, ok := HasResDirectories(rv); ok {
			m.ResourceDirs = append(m.ResourceDirs, resDirs...)
		}
		m.ResourceDirs = append(m.ResourceDirs, descriptor.ResourcesDirs...)

		if testedVariant, ok := HasTestedVariant(rv); ok {
			m.HasTests = true
			_ = testedVariant
		}
		if kind == PluginTest {
			m.HasTests = true
		}

		if len(m.SourceDirs) == 0 {
			continue
		}

		populateOutputs(m, view, descriptor, kind)
		populateClasspath(m, view, descriptor, rv, log, name)
		populateExtensions(m, view, descriptor)

		models = append(models, m)
	}
	return models, nil
}

// populateOutputs fills SourceOutputDirs/ResourceOutputDirs/ArchiveOutputFiles
// from the AGP filesystem conventions for compiled classes, merged
// resources, and the per-variant APK/AAR.
func populateOutputs(m *model.SourceSetModel, view ProjectView, d variantDescriptor, kind PluginKind) {
	if len(d.JavaDirectories) > 0 {
		m.SourceOutputDirs = append(m.SourceOutputDirs, filepath.Join(view.ProjectDir, "build", "intermediates", "javac", d.Name, "classes"))
	}
	if len(d.KotlinDirectories) > 0 {
		m.SourceOutputDirs = append(m.SourceOutputDirs, filepath.Join(view.ProjectDir, "build", "tmp", "kotlin-classes", d.Name))
	}
	if len(m.ResourceDirs) > 0 {
		m.ResourceOutputDirs = append(m.ResourceOutputDirs, filepath.Join(view.ProjectDir, "build", "intermediates", "merged_res", d.Name))
	}
	if !d.IsTest && kind != PluginNone {
		archivePath := archiveOutputPath(view.ProjectDir, view.ProjectName, d.Name, kind)
		m.ArchiveOutputFiles[archivePath] = append([]string{}, m.SourceOutputDirs...)
	}
}

// archiveOutputPath returns the conventional per-variant archive path: an
// APK under build/outputs/apk for application/dynamic-feature/test plugins,
// an AAR under build/outputs/aar otherwise (library/feature plugins).
func archiveOutputPath(projectDir, projectName, variantName string, kind PluginKind) string {
	switch kind {
	case PluginApplication, PluginDynamicFeature, PluginTest:
		return filepath.Join(projectDir, "build", "outputs", "apk", variantName, projectName+"-"+variantName+".apk")
	default:
		return filepath.Join(projectDir, "build", "outputs", "aar", projectName+"-"+variantName+".aar")
	}
}

// populateClasspath fills CompileClasspath and ModuleDependencies: the
// project's external/project dependencies (shared with the JVM path via
// internal/probe/classpath), the SDK bootclasspath jar when
// HasBootClasspathProvider resolves one, and the variant's R.jar when it
// carries Android resources.
func populateClasspath(m *model.SourceSetModel, view ProjectView, d variantDescriptor, rv reflect.Value, log *obslog.Logger, variantName string) {
	m.CompileClasspath = classpath.ResolveCompileClasspath(view.RootDir, view.BuildInfo, view.Catalog)
	m.ModuleDependencies = classpath.ResolveModuleDependencies(view.BuildInfo, view.Catalog)

	if bootClasspath, ok := HasBootClasspathProvider(rv); ok {
		m.CompileClasspath = append(m.CompileClasspath, bootClasspath...)
		for _, jar := range bootClasspath {
			m.ModuleDependencies = append(m.ModuleDependencies, model.ModuleDependency{
				Group:       "com.android",
				Name:        "android-sdk",
				Version:     view.GradleVersion,
				Classifiers: []model.ModuleClassifier{{Classifier: "boot", URI: jar}},
			})
		}
	} else if log != nil {
		log.Debug("android: no bootclasspath provider for variant %s in %s", variantName, view.ProjectDir)
	}

	if len(d.ResDirectories) > 0 {
		rJar := filepath.Join(view.ProjectDir, "build", "intermediates",
			"compile_and_runtime_not_namespaced_r_class_jar", variantName, "R.jar")
		m.CompileClasspath = append(m.CompileClasspath, rJar)
	}
}

// populateExtensions sets the Java/Kotlin language extensions present on
// the variant, mirroring the JVM path's per-language extension population.
func populateExtensions(m *model.SourceSetModel, view ProjectView, d variantDescriptor) {
	if len(d.JavaDirectories) > 0 {
		m.Extensions.Java = classpath.BuildJavaExtension(view.GradleVersion, nil)
	}
	if len(d.KotlinDirectories) > 0 {
		m.Extensions.Kotlin = &model.KotlinExtension{}
	}
}

// discoverVariantNames enumerates src/<variant>/ directories under the
// project's Android layout.
func discoverVariantNames(projectDir string) []string {
	entries := listDirs(filepath.Join(projectDir, "src"))
	sort.Strings(entries)
	return entries
}

func buildDescriptor(projectDir, variantName string) variantDescriptor {
	d := variantDescriptor{Name: variantName}
	root := filepath.Join(projectDir, "src", variantName)
	if files := listFilesRecursive(filepath.Join(root, "java")); len(files) > 0 {
		d.JavaDirectories = append(d.JavaDirectories, filepath.Join(root, "java"))
	}
	if files := listFilesRecursive(filepath.Join(root, "kotlin")); len(files) > 0 {
		d.KotlinDirectories = append(d.KotlinDirectories, filepath.Join(root, "kotlin"))
	}
	if dirExists(filepath.Join(root, "res")) {
		d.ResDirectories = append(d.ResDirectories, filepath.Join(root, "res"))
	}
	if dirExists(filepath.Join(root, "resources")) {
		d.ResourcesDirs = append(d.ResourcesDirs, filepath.Join(root, "resources"))
	}
	lower := strings.ToLower(variantName)
	if strings.Contains(lower, "unittest") || strings.Contains(lower, "androidtest") {
		d.IsTest = true
		d.TestedVariantName = strings.TrimSuffix(strings.TrimSuffix(variantName, "UnitTest"), "AndroidTest")
		d.ResDirectories = nil // unit-test variants omit resDirectories per spec.md §4.1.
	}
	return d
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
