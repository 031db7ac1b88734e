package model

// Tag values a BuildTarget may carry, per spec.md §3.
const (
	TagLibrary     = "library"
	TagTest        = "test"
	TagApplication = "application"
)

// Language IDs a BuildTarget may report, per spec.md §3.
const (
	LanguageJava   = "java"
	LanguageScala  = "scala"
	LanguageKotlin = "kotlin"
	LanguageGroovy = "groovy"
)

// Capabilities describes what BSP operations a build target supports.
type Capabilities struct {
	CanCompile bool `json:"canCompile"`
	CanTest    bool `json:"canTest"`
	CanRun     bool `json:"canRun"`
}

// JvmBuildTargetData is the extended JVM payload carried in a BuildTarget's
// data field: the standard javaHome/javaVersion plus fbsp's Gradle-specific
// superset (gradleVersion, source/targetCompatibility).
type JvmBuildTargetData struct {
	JavaHome            string `json:"javaHome"`
	JavaVersion         string `json:"javaVersion"`
	GradleVersion       string `json:"gradleVersion"`
	SourceCompatibility string `json:"sourceCompatibility"`
	TargetCompatibility string `json:"targetCompatibility"`
}

// BuildTarget is the BSP-facing record derived from a SourceSetModel.
type BuildTarget struct {
	ID            string              `json:"id"`
	DisplayName   string              `json:"displayName"`
	BaseDirectory string              `json:"baseDirectory"`
	Tags          []string            `json:"tags"`
	LanguageIDs   []string            `json:"languageIds"`
	Dependencies  []string            `json:"dependencies"`
	Capabilities  Capabilities        `json:"capabilities"`
	DataKind      string              `json:"dataKind,omitempty"`
	Data          *JvmBuildTargetData `json:"data,omitempty"`
}

// HasTag reports whether the target carries the given tag.
func (t *BuildTarget) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// GradleBuildTarget pairs a BuildTarget with the SourceSetModel it was
// derived from, as stored by TargetGraph (spec.md §4.4).
type GradleBuildTarget struct {
	Target *BuildTarget
	Model  *SourceSetModel
}
