// Package gradlecompat implements the Gradle-to-JDK compatibility helper
// specified in spec.md §6.1.
package gradlecompat

import (
	"strconv"
	"strings"
)

// entry pairs a minimum Gradle version with the latest JDK it supports.
type entry struct {
	minGradle string
	java      string
}

// table is ordered from newest to oldest; the first entry whose minGradle is
// <= the queried version wins.
var table = []entry{
	{"8.8", "22"},
	{"8.5", "21"},
	{"8.3", "20"},
	{"7.6", "19"},
	{"7.5", "18"},
	{"7.3", "17"},
	{"7.0", "16"},
	{"6.7", "15"},
	{"6.3", "14"},
	{"6.0", "13"},
	{"5.4", "12"},
	{"4.8", "11"},
	{"4.3", "10"},
	{"4.1", "9"},
	{"2.0", "1.8"},
}

// LatestCompatibleJavaVersion returns the highest JDK string supported by
// the given Gradle version, per the published compatibility matrix. Unknown
// or below-minimum versions return "".
func LatestCompatibleJavaVersion(gradleVersion string) string {
	for _, e := range table {
		if compareVersions(gradleVersion, e.minGradle) >= 0 {
			return e.java
		}
	}
	return ""
}

// OldestCompatibleJavaVersion returns the lowest JDK version fbsp targets
// for compilation across the supported Gradle range.
func OldestCompatibleJavaVersion() string {
	return "1.8"
}

// Compare numerically compares two dotted Gradle version strings,
// component by component; missing components compare as 0. It returns a
// negative, zero, or positive number the way strings.Compare does. Used to
// gate version-dependent behavior such as ModelProbe's --release handling.
func Compare(a, b string) int {
	return compareVersions(a, b)
}

// compareVersions numerically compares two dotted version strings,
// component by component; missing components compare as 0. It returns a
// negative, zero, or positive number the way strings.Compare does.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")
	n := len(aParts)
	if len(bParts) > n {
		n = len(bParts)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(aParts) {
			av, _ = strconv.Atoi(aParts[i])
		}
		if i < len(bParts) {
			bv, _ = strconv.Atoi(bParts[i])
		}
		if av != bv {
			return av - bv
		}
	}
	return 0
}
