// Package testutil provides helpers for creating temporary git repositories
// for tests that commit and push.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gogitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestRepo is a builder for creating temporary git repositories with
// controlled commits, branches and remotes.
type TestRepo struct {
	t    testing.TB
	path string
	repo *gogit.Repository
	time time.Time
}

// NewTestRepo creates and initializes a new git repository in a temporary
// directory with one initial commit.
func NewTestRepo(t testing.TB) *TestRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	r := &TestRepo{
		t:    t,
		path: dir,
		repo: repo,
		time: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	r.WriteFile("README.md", "# test\n")
	r.AddCommit("initial commit", "README.md")
	return r
}

// Path returns the repository root directory.
func (r *TestRepo) Path() string {
	return r.path
}

// Repository returns the underlying go-git repository.
func (r *TestRepo) Repository() *gogit.Repository {
	return r.repo
}

// WriteFile writes content to name relative to the repository root,
// creating parent directories.
func (r *TestRepo) WriteFile(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("writing file %s: %v", name, err)
	}
}

// RemoveFile deletes name from the working tree.
func (r *TestRepo) RemoveFile(name string) {
	r.t.Helper()
	if err := os.Remove(filepath.Join(r.path, name)); err != nil {
		r.t.Fatalf("removing file %s: %v", name, err)
	}
}

// AddCommit stages files and commits them with message. Returns the
// commit SHA.
func (r *TestRepo) AddCommit(message string, files ...string) string {
	r.t.Helper()
	r.time = r.time.Add(time.Minute)

	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatalf("getting worktree: %v", err)
	}

	for _, f := range files {
		if _, err := wt.Add(f); err != nil {
			r.t.Fatalf("staging file %s: %v", f, err)
		}
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  r.time,
		},
	})
	if err != nil {
		r.t.Fatalf("committing: %v", err)
	}

	return hash.String()
}

// CreateBranch creates a new branch pointing at HEAD and checks it out.
func (r *TestRepo) CreateBranch(name string) {
	r.t.Helper()

	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatalf("getting worktree: %v", err)
	}
	err = wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	if err != nil {
		r.t.Fatalf("creating branch %s: %v", name, err)
	}
}

// DetachHead checks out the HEAD commit directly, as CI runners do.
func (r *TestRepo) DetachHead() {
	r.t.Helper()
	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatalf("getting worktree: %v", err)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: plumbing.NewHash(r.HeadSha())}); err != nil {
		r.t.Fatalf("detaching HEAD: %v", err)
	}
}

// SetOrigin configures the origin remote with url.
func (r *TestRepo) SetOrigin(url string) {
	r.t.Helper()
	_ = r.repo.DeleteRemote("origin")
	_, err := r.repo.CreateRemote(&gogitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	if err != nil {
		r.t.Fatalf("creating remote origin: %v", err)
	}
}

// HeadSha returns the current HEAD commit SHA.
func (r *TestRepo) HeadSha() string {
	r.t.Helper()
	head, err := r.repo.Head()
	if err != nil {
		r.t.Fatalf("getting HEAD: %v", err)
	}
	return head.Hash().String()
}

// HeadMessage returns the message of the HEAD commit.
func (r *TestRepo) HeadMessage() string {
	r.t.Helper()
	c, err := r.repo.CommitObject(plumbing.NewHash(r.HeadSha()))
	if err != nil {
		r.t.Fatalf("loading HEAD commit: %v", err)
	}
	return c.Message
}

// NewBareRemote creates an empty bare repository and returns its path.
func NewBareRemote(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := gogit.PlainInit(dir, true); err != nil {
		t.Fatalf("failed to init bare repo: %v", err)
	}
	return dir
}
