// Package config loads fbsp's merged configuration from a directory
// hierarchy, generalizing the teacher's pkg/config fbs.conf.json merge rules
// to fbsp.conf.json and to BSP-specific preference keys (Gradle JVM args,
// wrapper/explicit-version selection, repository list for artifact
// resolution).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the merged configuration from all fbsp.conf.json files found
// walking up from a starting directory.
type Config struct {
	Discoverers map[string]json.RawMessage `json:"discoverers"`
	Gradle      GradlePreferences          `json:"gradle"`
}

// GradlePreferences holds the Gradle selection preferences merged from
// fbsp.conf.json files. GradleDriver.Connect reads only Version; Wrapper,
// Installation and JvmArgs are merged and stored but are not read by
// GradleDriver or BuildInvoker.
type GradlePreferences struct {
	// Wrapper selects the project's own gradlew wrapper. It is false unless
	// a config file sets it.
	Wrapper bool `json:"wrapper"`
	// Version pins an explicit Gradle version; when set it takes precedence
	// over the wrapper properties file.
	Version string `json:"version"`
	// Installation names an explicit GRADLE_HOME-style installation path.
	Installation string `json:"installation"`
	// JvmArgs lists JVM arguments for the Gradle daemon.
	JvmArgs []string `json:"jvmArgs"`
}

// ArtifactDownloadConfig configures the repositories module dependency
// resolution consults, carried over from the teacher's identically named
// type.
type ArtifactDownloadConfig struct {
	Repositories []string `json:"repositories"`
}

func (c *ArtifactDownloadConfig) GetDiscovererID() string { return "artifact-download" }

// Load discovers every fbsp.conf.json from the filesystem root down to
// startDir and layers them in that order, so a leaf config overrides an
// ancestor's.
func Load(startDir string) (*Config, error) {
	cfg := &Config{Discoverers: make(map[string]json.RawMessage)}
	if err := layerAncestors(startDir, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// layerAncestors recurses up the directory tree to the filesystem root
// before applying anything, then layers each directory's config on the way
// back down, so a leaf's fbsp.conf.json always has the last word over its
// ancestors without needing to collect and reverse a path list first.
func layerAncestors(dir string, cfg *Config) error {
	if parent := filepath.Dir(dir); parent != dir {
		if err := layerAncestors(parent, cfg); err != nil {
			return err
		}
	}
	return layerIfPresent(dir, cfg)
}

func layerIfPresent(dir string, cfg *Config) error {
	path := filepath.Join(dir, "fbsp.conf.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var layer Config
	if err := json.Unmarshal(data, &layer); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.applyLayer(layer)
	return nil
}

// applyLayer overlays a parsed config file onto c, keeping whatever c
// already holds wherever the new layer is silent about a field.
func (c *Config) applyLayer(layer Config) {
	for id, raw := range layer.Discoverers {
		c.Discoverers[id] = raw
	}
	c.Gradle = c.Gradle.overriddenBy(layer.Gradle)
}

// overriddenBy returns p layered with next's explicitly-set fields: a leaf
// fbsp.conf.json only overrides the preferences it actually declares, so an
// ancestor's wrapper=true or jvmArgs survive past a leaf that only pins a
// version.
func (p GradlePreferences) overriddenBy(next GradlePreferences) GradlePreferences {
	merged := p
	if next.Wrapper {
		merged.Wrapper = true
	}
	if next.Version != "" {
		merged.Version = next.Version
	}
	if next.Installation != "" {
		merged.Installation = next.Installation
	}
	if len(next.JvmArgs) > 0 {
		merged.JvmArgs = next.JvmArgs
	}
	return merged
}

// GetDiscovererConfig unmarshals the named discoverer's configuration into
// result.
func (c *Config) GetDiscovererConfig(discovererID string, result interface{}) error {
	raw, exists := c.Discoverers[discovererID]
	if !exists {
		return fmt.Errorf("no configuration found for discoverer %s", discovererID)
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to unmarshal config for discoverer %s: %w", discovererID, err)
	}
	return nil
}

// ConnectionFile is the `.bsp/fbsp.json` descriptor editors discover to
// launch the server, per the BSP discovery convention.
type ConnectionFile struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	BspVersion string   `json:"bspVersion"`
	Argv       []string `json:"argv"`
	Languages  []string `json:"languages"`
}

// WriteConnectionFile writes the `.bsp/fbsp.json` descriptor into
// projectRoot so BSP clients can discover fbsp, overwriting any existing
// file.
func WriteConnectionFile(projectRoot, fbspBinaryPath, fbspVersion string) error {
	bspDir := filepath.Join(projectRoot, ".bsp")
	if err := os.MkdirAll(bspDir, 0o755); err != nil {
		return fmt.Errorf("failed to create .bsp directory: %w", err)
	}
	conn := ConnectionFile{
		Name:       "fbsp",
		Version:    fbspVersion,
		BspVersion: "2.1.0",
		Argv:       []string{fbspBinaryPath, "serve"},
		Languages:  []string{"java", "kotlin", "scala"},
	}
	data, err := json.MarshalIndent(conn, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal connection file: %w", err)
	}
	return os.WriteFile(filepath.Join(bspDir, "fbsp.json"), data, 0o644)
}
