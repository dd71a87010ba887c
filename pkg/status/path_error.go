package status

import (
	"path/filepath"
	"sort"
	"strings"
)

// PathError defines a status error associated with one or more source paths
// in the repository under sync.
type PathError interface {
	Error
	RelativePaths() []string
}

func formatPaths(paths []string) string {
	pathStrs := make([]string, len(paths))
	for i, path := range paths {
		pathStrs[i] = "path: " + path
		if filepath.Ext(path) == "" {
			// Assume paths without extensions are directories.
			pathStrs[i] += "/"
		}
	}
	// Ensure deterministic path printing order.
	sort.Strings(pathStrs)
	return strings.Join(pathStrs, "\n")
}
