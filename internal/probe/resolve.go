package probe

import (
	"github.com/jvmakine/fbsp/internal/model"
	"github.com/jvmakine/fbsp/internal/probe/classpath"
)

// resolveCompileClasspath delegates to the classpath package shared with
// the Android variant path.
func resolveCompileClasspath(view ProjectView) []string {
	return classpath.ResolveCompileClasspath(view.RootDir, view.BuildInfo, view.Catalog)
}

// resolveModuleDependencies delegates to the classpath package shared with
// the Android variant path.
func resolveModuleDependencies(view ProjectView) []model.ModuleDependency {
	return classpath.ResolveModuleDependencies(view.BuildInfo, view.Catalog)
}

// buildJavaExtension delegates to the classpath package shared with the
// Android variant path. declaredCompilerArgs always returns nil for now:
// compileJava.options.compilerArgs isn't modeled by buildfile.Parse's
// dependency/plugin scan, and this is the integration point once that scan
// grows compilerArgs support.
func buildJavaExtension(view ProjectView) *model.JavaExtension {
	return classpath.BuildJavaExtension(view.GradleVersion, declaredCompilerArgs(view))
}

func declaredCompilerArgs(view ProjectView) []string {
	return nil
}
