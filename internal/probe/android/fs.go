package android

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func listDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func listFilesRecursive(dir string) []string {
	var files []string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// sdkPlatformJar locates android.jar for the highest-numbered installed
// platform under ANDROID_HOME or ANDROID_SDK_ROOT, the filesystem
// stand-in for androidComponents.sdkComponents.bootclasspathProvider.
func sdkPlatformJar() (string, bool) {
	root := os.Getenv("ANDROID_HOME")
	if root == "" {
		root = os.Getenv("ANDROID_SDK_ROOT")
	}
	if root == "" {
		return "", false
	}
	platforms := listDirs(filepath.Join(root, "platforms"))
	if len(platforms) == 0 {
		return "", false
	}
	sort.Strings(platforms)
	apiLevel := func(name string) int {
		n, _ := strconv.Atoi(strings.TrimPrefix(name, "android-"))
		return n
	}
	sort.SliceStable(platforms, func(i, j int) bool { return apiLevel(platforms[i]) < apiLevel(platforms[j]) })
	jar := filepath.Join(root, "platforms", platforms[len(platforms)-1], "android.jar")
	if !fileExists(jar) {
		return "", false
	}
	return jar, true
}
