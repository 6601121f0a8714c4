// Package githost detects the CI git host and declares what valhalla
// needs from it.
package githost

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/version"
)

// Kind identifies a supported git host.
type Kind string

const (
	GitHub Kind = "github"
	GitLab Kind = "gitlab"
)

// ErrNoProvider is returned when neither GitHub nor GitLab CI markers are
// present in the environment.
var ErrNoProvider = errors.New("Could not detect git host! Valhalla supports GitHub Actions " +
	"(GITHUB_ACTIONS or GITHUB_REPOSITORY) and GitLab CI (GITLAB_CI or CI_SERVER_HOST)")

// Detect returns the git host the process runs under. GitHub markers are
// checked first.
func Detect(getenv func(string) string) (Kind, error) {
	if getenv("GITHUB_ACTIONS") != "" || getenv("GITHUB_REPOSITORY") != "" {
		return GitHub, nil
	}
	if getenv("GITLAB_CI") != "" || getenv("CI_SERVER_HOST") != "" {
		return GitLab, nil
	}
	return "", ErrNoProvider
}

// Releaser creates releases on the git host.
type Releaser interface {
	CreateRelease(ctx context.Context, req ReleaseRequest) error
}

// Provider is the uniform surface over GitHub and GitLab.
type Provider interface {
	Releaser

	Kind() Kind
	// CurrentBranch is the branch the CI job runs for.
	CurrentBranch() string
	// Author is the user that triggered the job.
	Author() string
	// Branches lists every branch of the project, following pagination.
	Branches(ctx context.Context) ([]string, error)
	// CreateMergeRequest opens a merge request from CurrentBranch.
	CreateMergeRequest(ctx context.Context, req MergeRequestRequest) (*MergeRequestHook, error)
}

// ReleaseRequest is a fully resolved release.
type ReleaseRequest struct {
	Name        string
	TagName     string
	Description string
	Milestones  []string
	Links       []AssetLink
	Files       []string
}

// AssetLink is a link attached to a release.
type AssetLink struct {
	Name     string
	URL      string
	LinkType string
}

// MergeRequestRequest is a fully resolved merge request. An empty
// TargetBranch means the host's default branch.
type MergeRequestRequest struct {
	TargetBranch string
	Title        string
	Description  string
	Reviewers    []string
}

// NotReleaseBranchError is returned when the current branch does not start
// with version.BasePrefix.
type NotReleaseBranchError struct {
	Branch string
}

func (e *NotReleaseBranchError) Error() string {
	return fmt.Sprintf("branch %q is not a release branch, it must start with %s", e.Branch, version.BasePrefix)
}

// VersionToRelease matches the provider's current branch against kinds.
func VersionToRelease(log *zap.SugaredLogger, p Provider, kinds []version.ReleaseKind) (*version.VersionToRelease, error) {
	branch := p.CurrentBranch()
	log.Infof("Current branch: %s", branch)
	if !strings.HasPrefix(branch, version.BasePrefix) {
		return nil, &NotReleaseBranchError{Branch: branch}
	}
	return version.ResolveFromString(log, branch, kinds)
}

// OtherReleasesInProgress returns the release branches other than current.
func OtherReleasesInProgress(branches []string, current string) []string {
	var others []string
	for _, b := range branches {
		if b != current && strings.HasPrefix(b, version.BasePrefix) {
			others = append(others, b)
		}
	}
	return others
}
