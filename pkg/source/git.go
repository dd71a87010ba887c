package source

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

const (
	// Git is the binary name of the installed Git client.
	Git = "git"

	// GitVersion is the minimum required version of the Git client.
	GitVersion = "2.20.0"

	// gitTimeout bounds every individual git invocation.
	gitTimeout = 1 * time.Minute
)

var semverRegex = regexp.MustCompile(semver.SemVerRegex)

// ValidateGitVersion returns an error if the installed git binary is missing
// or older than GitVersion.
func ValidateGitVersion(ctx context.Context) status.Error {
	out, err := exec.CommandContext(ctx, Git, "version").CombinedOutput()
	if err != nil {
		return SourceWrap(err, "unable to run %q; is the git client installed?", Git)
	}
	v := semverRegex.FindString(string(out))
	if v == "" {
		return SourceError("unable to parse git version from %q", strings.TrimSpace(string(out)))
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return SourceWrap(err, "unable to parse git version from %q", v)
	}
	if version.LessThan(semver.MustParse(GitVersion)) {
		return SourceError("git version is %s, but coxswain requires at least %s", v, GitVersion)
	}
	return nil
}

// gitRepository reads from a local mirror clone of a remote repository,
// refreshed on every revision resolution. All repository data is read with
// git plumbing commands against the mirror, so no working tree is kept.
type gitRepository struct {
	repoURL string
	root    string

	// mux serializes git invocations against the mirror. Concurrent fetches
	// into the same clone corrupt its ref state.
	mux sync.Mutex
}

var _ Repository = (*gitRepository)(nil)

// NewGitRepository returns a Repository backed by a mirror clone of repoURL
// under root. The mirror is created on first use.
func NewGitRepository(ctx context.Context, repoURL, root string) (Repository, status.Error) {
	g := &gitRepository{repoURL: repoURL, root: root}

	if _, err := os.Stat(filepath.Join(root, "HEAD")); err == nil {
		return g, nil
	}

	if err := os.MkdirAll(filepath.Dir(root), 0755); err != nil {
		return nil, status.OSWrapf(err, "unable to create clone parent directory for %s", repoURL)
	}
	klog.V(1).Infof("Cloning %s into %s", repoURL, root)
	if _, err := g.run(ctx, "", "clone", "--mirror", repoURL, root); err != nil {
		// Remove any partial clone so a later retry does not mistake it for
		// a valid mirror.
		if rmErr := os.RemoveAll(root); rmErr != nil {
			return nil, SourceWrap(multierr.Append(err.Cause(), rmErr), "unable to clone %s", repoURL)
		}
		return nil, err
	}
	return g, nil
}

// ResolveRevision implements Repository.
//
// The mirror is fetched first so symbolic revisions resolve against the
// remote's current state rather than a stale local copy.
func (g *gitRepository) ResolveRevision(ctx context.Context, revision string) (string, status.Error) {
	if revision == "" {
		revision = "HEAD"
	}
	// A full SHA needs no fetch or resolution.
	if IsCommitSHA(revision) {
		return revision, nil
	}

	if _, err := g.run(ctx, g.root, "fetch", "--prune", "origin"); err != nil {
		return "", err
	}
	out, err := g.run(ctx, g.root, "rev-parse", revision+"^{commit}")
	if err != nil {
		return "", err
	}
	sha := strings.TrimSpace(string(out))
	if !IsCommitSHA(sha) {
		return "", SourceError("revision %q of %s resolved to invalid commit %q", revision, g.repoURL, sha)
	}
	return sha, nil
}

// ListFiles implements Repository.
func (g *gitRepository) ListFiles(ctx context.Context, commit, dir string) ([]string, status.Error) {
	args := []string{"ls-tree", "-r", "--name-only", "-z", commit}
	if dir != "" {
		args = append(args, "--", dir)
	}
	out, err := g.run(ctx, g.root, args...)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, path := range strings.Split(string(out), "\x00") {
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// ReadFile implements Repository.
func (g *gitRepository) ReadFile(ctx context.Context, commit, path string) ([]byte, status.Error) {
	return g.run(ctx, g.root, "cat-file", "blob", commit+":"+path)
}

// run invokes git with the passed arguments, returning its stdout. dir is the
// git directory to operate on; empty runs outside any repository.
func (g *gitRepository) run(ctx context.Context, dir string, args ...string) ([]byte, status.Error) {
	g.mux.Lock()
	defer g.mux.Unlock()

	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	subcommand := args[0]
	if dir != "" {
		args = append([]string{"--git-dir", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, Git, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, SourceWrap(err, "git %s against %s failed: %s",
			subcommand, g.repoURL, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
