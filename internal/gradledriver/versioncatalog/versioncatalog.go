// Package versioncatalog parses a Gradle version catalog
// (gradle/libs.versions.toml), adapted from the teacher's
// pkg/gradle/context.go line-oriented TOML reader.
package versioncatalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Library is a resolved library coordinate from the catalog.
type Library struct {
	Group   string
	Name    string
	Version string
	Module  string
}

// Plugin is a resolved plugin coordinate from the catalog.
type Plugin struct {
	ID      string
	Version string
}

// Catalog holds the parsed [versions]/[libraries]/[plugins] sections.
type Catalog struct {
	Versions  map[string]string
	Libraries map[string]Library
	Plugins   map[string]Plugin
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		Versions:  map[string]string{},
		Libraries: map[string]Library{},
		Plugins:   map[string]Plugin{},
	}
}

// GetLibrary resolves a libs.xyz style reference name.
func (c *Catalog) GetLibrary(ref string) (Library, bool) {
	lib, ok := c.Libraries[ref]
	return lib, ok
}

// Parse reads and parses a libs.versions.toml file.
func Parse(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read version catalog: %w", err)
	}
	catalog := New()
	section := ""
	for _, rawLine := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.Trim(line, "[]")
			continue
		}
		if !strings.Contains(line, "=") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"")

		switch section {
		case "versions":
			catalog.Versions[key] = value
		case "libraries":
			if lib := parseLibrary(value); lib != nil {
				catalog.Libraries[key] = *lib
			}
		case "plugins":
			if plugin := parsePlugin(value); plugin != nil {
				catalog.Plugins[key] = *plugin
			}
		}
	}
	resolveVersionRefs(catalog)
	return catalog, nil
}

func parseLibrary(value string) *Library {
	if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
		lib := &Library{}
		for _, field := range splitObjectFields(value) {
			switch field.key {
			case "module":
				lib.Module = field.val
				if parts := strings.SplitN(field.val, ":", 2); len(parts) == 2 {
					lib.Group, lib.Name = parts[0], parts[1]
				}
			case "version":
				lib.Version = field.val
			case "version.ref":
				lib.Version = "$" + field.val
			case "group":
				lib.Group = field.val
			case "name":
				lib.Name = field.val
			}
		}
		return lib
	}
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return nil
	}
	lib := &Library{Group: parts[0], Name: parts[1], Module: parts[0] + ":" + parts[1]}
	if len(parts) >= 3 {
		lib.Version = parts[2]
	}
	return lib
}

func parsePlugin(value string) *Plugin {
	if !strings.HasPrefix(value, "{") || !strings.HasSuffix(value, "}") {
		return nil
	}
	plugin := &Plugin{}
	for _, field := range splitObjectFields(value) {
		switch field.key {
		case "id":
			plugin.ID = field.val
		case "version":
			plugin.Version = field.val
		case "version.ref":
			plugin.Version = "$" + field.val
		}
	}
	return plugin
}

type objectField struct{ key, val string }

// splitObjectFields parses `{ module = "a:b", version.ref = "c" }` style
// inline TOML tables.
func splitObjectFields(value string) []objectField {
	content := strings.Trim(value, "{}")
	var fields []objectField
	for _, part := range strings.Split(content, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, "=") {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), "\"")
		fields = append(fields, objectField{key, val})
	}
	return fields
}

func resolveVersionRefs(catalog *Catalog) {
	for key, lib := range catalog.Libraries {
		if strings.HasPrefix(lib.Version, "$") {
			if resolved, ok := catalog.Versions[strings.TrimPrefix(lib.Version, "$")]; ok {
				lib.Version = resolved
				catalog.Libraries[key] = lib
			}
		}
	}
	for key, plugin := range catalog.Plugins {
		if strings.HasPrefix(plugin.Version, "$") {
			if resolved, ok := catalog.Versions[strings.TrimPrefix(plugin.Version, "$")]; ok {
				plugin.Version = resolved
				catalog.Plugins[key] = plugin
			}
		}
	}
}

// FindNearby searches projectDir and its ancestors for gradle/libs.versions.toml.
func FindNearby(projectDir string) (*Catalog, error) {
	current := filepath.Clean(projectDir)
	for {
		path := filepath.Join(current, "gradle", "libs.versions.toml")
		if _, err := os.Stat(path); err == nil {
			return Parse(path)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return nil, nil
		}
		current = parent
	}
}
