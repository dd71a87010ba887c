// Package sourcetest provides an in-memory Repository for tests.
package sourcetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/coxswain-dev/coxswain/pkg/source"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// FakeRepository is an in-memory source.Repository. Commits are added with
// AddCommit and symbolic revisions pointed at them with SetRevision.
type FakeRepository struct {
	mux       sync.Mutex
	revisions map[string]string
	trees     map[string]map[string][]byte
}

var _ source.Repository = (*FakeRepository)(nil)

// NewFakeRepository returns an empty FakeRepository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		revisions: make(map[string]string),
		trees:     make(map[string]map[string][]byte),
	}
}

// AddCommit registers a commit with the passed file tree and points HEAD at
// it. Paths are relative to the repository root.
func (r *FakeRepository) AddCommit(commit string, tree map[string][]byte) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.trees[commit] = tree
	r.revisions["HEAD"] = commit
}

// SetRevision points a symbolic revision at a commit.
func (r *FakeRepository) SetRevision(revision, commit string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.revisions[revision] = commit
}

// ResolveRevision implements source.Repository.
func (r *FakeRepository) ResolveRevision(_ context.Context, revision string) (string, status.Error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	if revision == "" {
		revision = "HEAD"
	}
	if source.IsCommitSHA(revision) {
		return revision, nil
	}
	commit, ok := r.revisions[revision]
	if !ok {
		return "", source.SourceError("unknown revision %q", revision)
	}
	return commit, nil
}

// ListFiles implements source.Repository.
func (r *FakeRepository) ListFiles(_ context.Context, commit, dir string) ([]string, status.Error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	tree, ok := r.trees[commit]
	if !ok {
		return nil, source.SourceError("unknown commit %q", commit)
	}

	var paths []string
	for path := range tree {
		if dir == "" || strings.HasPrefix(path, dir+"/") {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFile implements source.Repository.
func (r *FakeRepository) ReadFile(_ context.Context, commit, path string) ([]byte, status.Error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	tree, ok := r.trees[commit]
	if !ok {
		return nil, source.SourceError("unknown commit %q", commit)
	}
	contents, ok := tree[path]
	if !ok {
		return nil, source.SourceError("no file %q at commit %q", path, commit)
	}
	return contents, nil
}
