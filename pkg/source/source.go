// Package source provides read access to the Git repositories that hold
// declared state.
package source

import (
	"context"
	"regexp"
	"sort"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

// Repository is a read-only view of a Git repository. Implementations must be
// safe for concurrent use.
type Repository interface {
	// ResolveRevision resolves a symbolic revision (branch, tag, or commit
	// SHA; empty means the default branch head) to a full commit SHA.
	ResolveRevision(ctx context.Context, revision string) (string, status.Error)

	// ListFiles returns the paths of all files under dir at the given
	// commit. Paths are relative to the repository root and sorted. An empty
	// dir lists the whole repository.
	ListFiles(ctx context.Context, commit, dir string) ([]string, status.Error)

	// ReadFile returns the contents of the file at path (relative to the
	// repository root) at the given commit.
	ReadFile(ctx context.Context, commit, path string) ([]byte, status.Error)
}

// commitRegex matches a full 40-character hex Git commit SHA.
var commitRegex = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsCommitSHA returns true if s is a full Git commit SHA.
func IsCommitSHA(s string) bool {
	return commitRegex.MatchString(s)
}

// ReadTree reads every file under dir at the given commit into a map keyed by
// path relative to the repository root.
func ReadTree(ctx context.Context, repo Repository, commit, dir string) (map[string][]byte, status.Error) {
	paths, err := repo.ListFiles(ctx, commit, dir)
	if err != nil {
		return nil, err
	}

	tree := make(map[string][]byte, len(paths))
	for _, path := range paths {
		contents, err := repo.ReadFile(ctx, commit, path)
		if err != nil {
			return nil, err
		}
		tree[path] = contents
	}
	return tree, nil
}

// SortedPaths returns the sorted key set of a file tree.
func SortedPaths(tree map[string][]byte) []string {
	paths := make([]string, 0, len(tree))
	for path := range tree {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
