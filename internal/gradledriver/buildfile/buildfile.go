// Package buildfile parses a build.gradle.kts file for the dependency and
// plugin declarations ModelProbe needs, adapted from the teacher's
// pkg/gradle/build_parser.go line-scanner into a reusable, stand-alone
// parser (the teacher's version lived inside the discovery pipeline; here it
// backs the probe's external-dependency enumeration directly).
package buildfile

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Dependency is one declared dependency entry from a build.gradle.kts
// dependencies { } block.
type Dependency struct {
	Configuration     string // "implementation", "testImplementation", "api", ...
	Group             string
	Name              string
	Version           string
	IsProject         bool   // true for project(":...") dependencies
	VersionCatalogRef string // set when declared as libs.xyz
	Raw               string
}

// BuildInfo is the parsed contents of one build.gradle.kts file.
type BuildInfo struct {
	ProjectDir   string
	Dependencies []Dependency
	Plugins      []string
}

// dependencyConfigurations are the Gradle configuration names whose calls
// inside a dependencies { } block declare a compile/runtime dependency.
var dependencyConfigurations = map[string]bool{
	"implementation":     true,
	"testImplementation": true,
	"api":                true,
	"compileOnly":        true,
	"runtimeOnly":        true,
	"testRuntimeOnly":    true,
	"testCompileOnly":    true,
}

// pluginFunctions are the plugins { } block's ways of declaring a plugin ID.
var pluginFunctions = map[string]bool{"id": true, "kotlin": true}

// callExpr matches a single Kotlin-DSL function-call statement: a bare word
// followed by a parenthesized argument list, e.g. implementation("a:b:c")
// or id("java-library").
var callExpr = regexp.MustCompile(`(?s)^([A-Za-z][A-Za-z0-9]*)\s*\((.*)\)\s*$`)

// Parse reads a build.gradle.kts file and extracts its dependencies { } and
// plugins { } block contents.
//
// Unlike a line-scanner that toggles an "in block" flag on the literal
// substrings "dependencies {" / "plugins {" and clears it on a bare "}"
// (which mis-parses as soon as a nested brace appears inside the block, e.g.
// an exclude { } on a dependency), this locates each top-level block by
// brace-depth counting over the whole file and then parses its body as a
// sequence of call-expression statements.
func Parse(buildFilePath string) (*BuildInfo, error) {
	data, err := os.ReadFile(buildFilePath)
	if err != nil {
		return nil, err
	}
	content := stripLineComments(string(data))

	info := &BuildInfo{ProjectDir: filepath.Dir(buildFilePath)}

	if body, ok := extractBlock(content, "dependencies"); ok {
		for _, stmt := range splitStatements(body) {
			if dep, ok := parseDependencyStatement(stmt); ok {
				info.Dependencies = append(info.Dependencies, dep)
			}
		}
	}
	if body, ok := extractBlock(content, "plugins"); ok {
		for _, stmt := range splitStatements(body) {
			if id, ok := parsePluginStatement(stmt); ok {
				info.Plugins = append(info.Plugins, id)
			}
		}
	}
	return info, nil
}

// stripLineComments blanks out "// ..." line comments so a commented-out
// block marker or call can't be mistaken for real content.
func stripLineComments(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

// extractBlock returns the body between the braces of the first top-level
// "<name> {" block in content, tracking brace depth so a nested brace inside
// the block doesn't terminate it early.
func extractBlock(content, name string) (string, bool) {
	marker := name + " {"
	start := -1
	for i := 0; i+len(marker) <= len(content); i++ {
		if content[i:i+len(marker)] != marker {
			continue
		}
		if i == 0 || content[i-1] == '\n' || content[i-1] == ' ' || content[i-1] == '\t' {
			start = i + len(marker)
			break
		}
	}
	if start < 0 {
		return "", false
	}
	depth := 1
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start:i], true
			}
		}
	}
	return "", false
}

// splitStatements breaks a block body into its non-empty statement lines.
// Each logical call is expected on one physical line, matching this
// adapter's filesystem-convention scope.
func splitStatements(body string) []string {
	var stmts []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			stmts = append(stmts, line)
		}
	}
	return stmts
}

func parseDependencyStatement(stmt string) (Dependency, bool) {
	m := callExpr.FindStringSubmatch(stmt)
	if m == nil || !dependencyConfigurations[m[1]] {
		return Dependency{}, false
	}
	dep := Dependency{Configuration: m[1], Raw: m[2]}
	args := strings.TrimSpace(m[2])

	switch {
	case strings.HasPrefix(args, "project("):
		if path, ok := firstQuoted(args); ok {
			dep.IsProject = true
			dep.Name = path
		}
	case strings.HasPrefix(args, "libs."):
		dep.VersionCatalogRef = strings.TrimPrefix(args, "libs.")
	default:
		if coordinate, ok := firstQuoted(args); ok {
			parts := strings.SplitN(coordinate, ":", 3)
			if len(parts) >= 2 {
				dep.Group = parts[0]
				dep.Name = parts[1]
			}
			if len(parts) == 3 {
				dep.Version = parts[2]
			}
		}
	}
	return dep, true
}

func parsePluginStatement(stmt string) (string, bool) {
	m := callExpr.FindStringSubmatch(stmt)
	if m == nil || !pluginFunctions[m[1]] {
		return "", false
	}
	return firstQuoted(m[2])
}

// firstQuoted returns the contents of the first double- or single-quote
// delimited string literal in s.
func firstQuoted(s string) (string, bool) {
	for _, quote := range []byte{'"', '\''} {
		start := strings.IndexByte(s, quote)
		if start < 0 {
			continue
		}
		end := strings.IndexByte(s[start+1:], quote)
		if end < 0 {
			continue
		}
		return s[start+1 : start+1+end], true
	}
	return "", false
}

// ExternalDependencies returns only non-project dependencies.
func (b *BuildInfo) ExternalDependencies() []Dependency {
	var result []Dependency
	for _, dep := range b.Dependencies {
		if !dep.IsProject {
			result = append(result, dep)
		}
	}
	return result
}

// ProjectDependencies returns only project(":...") dependencies.
func (b *BuildInfo) ProjectDependencies() []Dependency {
	var result []Dependency
	for _, dep := range b.Dependencies {
		if dep.IsProject {
			result = append(result, dep)
		}
	}
	return result
}

// HasPlugin reports whether the given plugin ID is applied.
func (b *BuildInfo) HasPlugin(pluginID string) bool {
	for _, p := range b.Plugins {
		if p == pluginID {
			return true
		}
	}
	return false
}
