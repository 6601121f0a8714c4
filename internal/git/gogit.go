package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

// Compile-time check that GoGitRepository implements Repository.
var _ Repository = (*GoGitRepository)(nil)

// ErrNoOrigin is returned when the repository has no origin remote URL.
var ErrNoOrigin = errors.New("remote origin has no url")

// GoGitRepository implements Repository using go-git.
type GoGitRepository struct {
	log  *zap.SugaredLogger
	repo *gogit.Repository
	now  func() time.Time
}

// Open opens the git repository containing path.
func Open(log *zap.SugaredLogger, path string) (*GoGitRepository, error) {
	r, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", path, err)
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	log.Debugf("Using git repository at %s", wt.Filesystem.Root())

	return &GoGitRepository{
		log:  log,
		repo: r,
		now:  time.Now,
	}, nil
}

func (r *GoGitRepository) Status() (Status, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return Status{}, fmt.Errorf("getting worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return Status{}, fmt.Errorf("getting worktree status: %w", err)
	}

	var s Status
	for path, fs := range st {
		switch {
		case fs.Worktree == gogit.Untracked:
			s.Untracked = append(s.Untracked, path)
		case fs.Worktree == gogit.Deleted:
			s.Deleted = append(s.Deleted, path)
		case fs.Worktree != gogit.Unmodified:
			s.Modified = append(s.Modified, path)
		}
	}
	sort.Strings(s.Untracked)
	sort.Strings(s.Modified)
	sort.Strings(s.Deleted)
	return s, nil
}

func (r *GoGitRepository) logStatus() (Status, error) {
	s, err := r.Status()
	if err != nil {
		return s, err
	}
	r.log.Info("----------------------")
	r.log.Info("Git status")
	for _, f := range s.Untracked {
		r.log.Infof("%s is untracked", f)
	}
	for _, f := range s.Modified {
		r.log.Infof("%s is modified", f)
	}
	for _, f := range s.Deleted {
		r.log.Infof("%s is deleted", f)
	}
	r.log.Info("----------------------")
	return s, nil
}

func (r *GoGitRepository) Commit(opts CommitOptions) (bool, error) {
	s, err := r.logStatus()
	if err != nil {
		return false, err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	if opts.Add {
		for _, f := range s.Untracked {
			if isIgnored(f) {
				r.log.Warnf("Skipping untracked file: %s check your .gitignore!", f)
				continue
			}
			if _, err := wt.Add(f); err != nil {
				return false, fmt.Errorf("staging %s: %w", f, err)
			}
			r.log.Infof("%s added to stage", f)
		}
	} else {
		r.log.Info("add=false, skipping adding untracked files")
	}
	for _, f := range s.Modified {
		if _, err := wt.Add(f); err != nil {
			return false, fmt.Errorf("staging %s: %w", f, err)
		}
	}
	for _, f := range s.Deleted {
		if _, err := wt.Remove(f); err != nil {
			return false, fmt.Errorf("staging removal of %s: %w", f, err)
		}
	}

	staged, err := hasStagedChanges(wt)
	if err != nil {
		return false, err
	}
	if !staged {
		r.log.Warn("There is noting to commit!")
		return false, nil
	}

	if err := r.setUser(opts.Username, opts.Email); err != nil {
		return false, err
	}

	msg := opts.Message + SkipMarker
	hash, err := wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  opts.Username,
			Email: opts.Email,
			When:  r.now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	r.log.Infof("Committed %s: %s", hash.String()[:7], msg)

	if _, err := r.logStatus(); err != nil {
		return false, err
	}
	return true, nil
}

func hasStagedChanges(wt *gogit.Worktree) (bool, error) {
	st, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting worktree status: %w", err)
	}
	for _, fs := range st {
		if fs.Staging != gogit.Unmodified && fs.Staging != gogit.Untracked {
			return true, nil
		}
	}
	return false, nil
}

func (r *GoGitRepository) setUser(name, email string) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("reading git config: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := r.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("saving git config: %w", err)
	}
	return nil
}

func (r *GoGitRepository) Push(branch, token string) error {
	origin, err := r.originURL()
	if err != nil {
		return err
	}
	pushURL := PushURL(origin, token)
	r.log.Infof("Pushing %s to %s", branch, pushURL)

	if isLocal(pushURL) {
		return r.push(pushURL, branch, nil)
	}
	return r.push(pushURL, branch, &http.BasicAuth{Username: BotUsername, Password: token})
}

func (r *GoGitRepository) push(url, branch string, auth transport.AuthMethod) error {
	ref, err := r.branchRef(branch)
	if err != nil {
		return err
	}

	spec := config.RefSpec(fmt.Sprintf("%s:%s%s", ref, localBranchPrefix, branch))
	err = r.repo.Push(&gogit.PushOptions{
		RemoteName: "origin",
		RemoteURL:  url,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       auth,
	})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		r.log.Info("Everything up-to-date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pushing %s: %w", branch, err)
	}
	return nil
}

// branchRef returns the local reference to push. CI jobs often run on a
// detached HEAD, in that case the branch is pointed at HEAD first.
func (r *GoGitRepository) branchRef(branch string) (plumbing.ReferenceName, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	name := plumbing.NewBranchReferenceName(branch)
	if head.Name() == name {
		return name, nil
	}
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(name, head.Hash())); err != nil {
		return "", fmt.Errorf("pointing %s at HEAD: %w", branch, err)
	}
	return name, nil
}

func (r *GoGitRepository) originURL() (string, error) {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("getting remote origin: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", ErrNoOrigin
	}
	return urls[0], nil
}

// PushURL rewrites origin into an https URL authenticated as BotUsername
// with token. Existing credentials in origin are dropped; scp-like
// addresses (git@host:group/repo.git) are converted. Local repositories
// (absolute paths and file:// URLs) are returned unchanged.
func PushURL(origin, token string) string {
	if isLocal(origin) {
		return origin
	}

	rest := origin
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	} else if i := strings.Index(rest, ":"); i >= 0 && !strings.Contains(rest[:i], "/") {
		rest = rest[:i] + "/" + rest[i+1:]
	}

	host := rest
	if i := strings.Index(rest, "/"); i >= 0 {
		host = rest[:i]
	}
	if at := strings.LastIndex(host, "@"); at >= 0 {
		rest = rest[at+1:]
	}

	return fmt.Sprintf("https://%s:%s@%s", BotUsername, token, rest)
}

func isLocal(url string) bool {
	return strings.HasPrefix(url, "file://") || filepath.IsAbs(url)
}
