// Package linker implements DependencyLinker (spec.md §4.3): a pure
// function over the flat SourceSetModel list that rewrites each model's
// classpath and computes its inter-target dependency set by matching
// classpath entries against sibling models' declared outputs.
package linker

import "github.com/jvmakine/fbsp/internal/model"

// Link rewrites every model's compileClasspath and buildTargetDependencies
// in place, per spec.md §4.3's two-index algorithm, and returns the same
// slice for convenience chaining. Linking is idempotent: Link(Link(models))
// produces the same classpaths and dependency sets as Link(models).
func Link(models []*model.SourceSetModel) []*model.SourceSetModel {
	outputs, archiveExpansion := buildIndices(models)

	for _, m := range models {
		newClasspath := make([]string, 0, len(m.CompileClasspath))
		for _, entry := range m.CompileClasspath {
			if owner, ok := outputs[entry]; ok && owner != m {
				m.AddBuildTargetDependency(owner.Ref())
			}
			if expansion, ok := archiveExpansion[entry]; ok && len(expansion) > 0 {
				newClasspath = append(newClasspath, expansion...)
				continue
			}
			newClasspath = append(newClasspath, entry)
		}
		m.CompileClasspath = newClasspath
	}
	return models
}

// buildIndices constructs the outputs and archiveExpansion indices spec.md
// §4.3 step 1 describes: outputs maps every source/resource output
// directory to the model that produces it; archiveExpansion maps every
// archive path to the class directories it bundles, excluding any archive
// whose key is also one of its own producing model's outputs (the
// self-reference guard from spec.md §4.3's edge cases).
func buildIndices(models []*model.SourceSetModel) (outputs map[string]*model.SourceSetModel, archiveExpansion map[string][]string) {
	outputs = make(map[string]*model.SourceSetModel)
	archiveExpansion = make(map[string][]string)

	for _, m := range models {
		for _, dir := range m.SourceOutputDirs {
			outputs[dir] = m
		}
		for _, dir := range m.ResourceOutputDirs {
			outputs[dir] = m
		}
	}

	for _, m := range models {
		for archive, classDirs := range m.ArchiveOutputFiles {
			if isSelfReference(archive, m) {
				continue
			}
			archiveExpansion[archive] = classDirs
			if _, exists := outputs[archive]; !exists {
				outputs[archive] = m
			}
		}
	}

	return outputs, archiveExpansion
}

// isSelfReference reports whether archive is itself one of m's own output
// directories, the case spec.md §4.3 says must not create a self-dependency.
func isSelfReference(archive string, m *model.SourceSetModel) bool {
	for _, dir := range m.SourceOutputDirs {
		if dir == archive {
			return true
		}
	}
	for _, dir := range m.ResourceOutputDirs {
		if dir == archive {
			return true
		}
	}
	return false
}
