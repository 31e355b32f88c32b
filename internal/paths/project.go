// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigFile is the project config file name inside a project directory.
const ConfigFile = "config.yaml"

// FindProjectDir walks up from start looking for a directory named dirName
// (e.g. ".tasktpl") and returns its path, or "" when no ancestor has one.
// An empty start means the working directory.
//
// A project directory may hold a "redirect" file naming another project
// directory, relative to itself. This lets git worktrees share the main
// checkout's configuration and index.
func FindProjectDir(start, dirName string) string {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return followRedirect(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// FindProjectConfig returns the config file of the nearest project directory
// when it exists, or "".
func FindProjectConfig(start, dirName string) string {
	dir := FindProjectDir(start, dirName)
	if dir == "" {
		return ""
	}
	file := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(file); err != nil {
		return ""
	}
	return file
}

func followRedirect(projectDir string) string {
	content, err := os.ReadFile(filepath.Join(projectDir, "redirect")) //nolint:gosec // redirect lives in the project dir
	if err != nil {
		return projectDir
	}
	target := strings.TrimSpace(string(content))
	if target == "" {
		return projectDir
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(projectDir, target))
}
