package github

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/githost"
)

// Compile-time check that Provider implements githost.Provider.
var _ githost.Provider = (*Provider)(nil)

const defaultBranchFallback = "main"

// Provider talks to the repository named by GITHUB_REPOSITORY.
type Provider struct {
	log           *zap.SugaredLogger
	client        *gh.Client
	owner         string
	repo          string
	branch        string
	author        string
	defaultBranch string
}

// New creates a Provider from the GitHub Actions environment read through
// getenv.
func New(log *zap.SugaredLogger, client *gh.Client, getenv func(string) string) (*Provider, error) {
	slug := getenv("GITHUB_REPOSITORY")
	log.Infof("GitHub repository: %s", slug)
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("GITHUB_REPOSITORY must be owner/repo, got %q", slug)
	}

	branch := getenv("GITHUB_REF_NAME")
	if branch == "" {
		log.Error("GITHUB_REF_NAME environment variable is not set. Are you using GitHub Actions? " +
			"If not change your valhalla configuration!")
	}

	defaultBranch := getenv("GITHUB_DEFAULT_BRANCH")
	if defaultBranch == "" {
		defaultBranch = defaultBranchFallback
	}

	return &Provider{
		log:           log,
		client:        client,
		owner:         owner,
		repo:          repo,
		branch:        branch,
		author:        getenv("GITHUB_ACTOR"),
		defaultBranch: defaultBranch,
	}, nil
}

// NewFromEnv creates the API client from GITHUB_API_URL and token, then
// the Provider.
func NewFromEnv(log *zap.SugaredLogger, token string, getenv func(string) string) (*Provider, error) {
	client, err := NewClient(token, getenv("GITHUB_API_URL"))
	if err != nil {
		return nil, err
	}
	return New(log, client, getenv)
}

func (p *Provider) Kind() githost.Kind {
	return githost.GitHub
}

func (p *Provider) CurrentBranch() string {
	return p.branch
}

func (p *Provider) Author() string {
	p.log.Infof("Author: %s", p.author)
	return p.author
}

func (p *Provider) Branches(ctx context.Context) ([]string, error) {
	opts := &gh.BranchListOptions{ListOptions: gh.ListOptions{PerPage: 100}}

	var names []string
	for {
		branches, resp, err := p.client.Repositories.ListBranches(ctx, p.owner, p.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing branches of %s/%s: %w", p.owner, p.repo, err)
		}
		for _, b := range branches {
			names = append(names, b.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

func (p *Provider) CreateMergeRequest(ctx context.Context, req githost.MergeRequestRequest) (*githost.MergeRequestHook, error) {
	target := req.TargetBranch
	if target == "" {
		p.log.Infof("target_branch not set, using default instead: %s", p.defaultBranch)
		target = p.defaultBranch
	}
	p.log.Infof("Creating pull request from %s to %s", p.branch, target)

	pr, _, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, &gh.NewPullRequest{
		Title: gh.Ptr(req.Title),
		Head:  gh.Ptr(p.branch),
		Base:  gh.Ptr(target),
		Body:  gh.Ptr(req.Description),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}
	p.log.Infof("Created pull request: %s", pr.GetHTMLURL())

	number := pr.GetNumber()
	if len(req.Reviewers) > 0 {
		p.requestReviewers(ctx, number, req.Reviewers)
	}

	return githost.NewMergeRequestHook(p.log, strconv.Itoa(number), func(text string) error {
		return p.comment(ctx, number, text)
	}), nil
}

func (p *Provider) requestReviewers(ctx context.Context, number int, reviewers []string) {
	_, _, err := p.client.PullRequests.RequestReviewers(ctx, p.owner, p.repo, number, gh.ReviewersRequest{
		Reviewers: reviewers,
	})
	if IsNotFoundError(err) {
		p.log.Warnf("Could not add reviewers, one of %s was not found: %v", strings.Join(reviewers, ", "), err)
		return
	}
	if err != nil {
		p.log.Warnf("Could not add reviewers: %v", err)
		return
	}
	p.log.Infof("Requested reviewers: %s", strings.Join(reviewers, ", "))
}

func (p *Provider) comment(ctx context.Context, number int, text string) error {
	_, _, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, number, &gh.IssueComment{Body: gh.Ptr(text)})
	if err != nil {
		return fmt.Errorf("commenting on pull request #%d: %w", number, err)
	}
	return nil
}

func (p *Provider) CreateRelease(ctx context.Context, req githost.ReleaseRequest) error {
	p.log.Infof("Creating release from branch: %s", p.branch)
	if len(req.Milestones) > 0 {
		p.log.Infof("Milestones are not supported on GitHub releases, ignoring: %s", strings.Join(req.Milestones, ", "))
	}
	for _, l := range req.Links {
		p.log.Infof("Asset links are not supported on GitHub releases, ignoring: %s %s", l.Name, l.URL)
	}

	release, _, err := p.client.Repositories.CreateRelease(ctx, p.owner, p.repo, &gh.RepositoryRelease{
		TagName:         gh.Ptr(req.TagName),
		Name:            gh.Ptr(req.Name),
		Body:            gh.Ptr(req.Description),
		TargetCommitish: gh.Ptr(p.branch),
		MakeLatest:      gh.Ptr("true"),
	})
	if err != nil {
		return fmt.Errorf("creating release: %w", err)
	}
	p.log.Infof("Created release: %s", release.GetHTMLURL())

	if len(req.Files) == 0 {
		p.log.Info("No files to upload")
		return nil
	}

	// The release exists at this point, so upload failures are only warnings.
	for _, path := range req.Files {
		if err := p.upload(ctx, release.GetID(), path); err != nil {
			p.log.Warnf("Could not upload %s: %v", path, err)
		}
	}
	return nil
}

func (p *Provider) upload(ctx context.Context, releaseID int64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening asset: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	asset, _, err := p.client.Repositories.UploadReleaseAsset(ctx, p.owner, p.repo, releaseID, &gh.UploadOptions{
		Name:      name,
		MediaType: contentType(name),
	}, f)
	if err != nil {
		return fmt.Errorf("uploading asset %s: %w", name, err)
	}
	p.log.Infof("Uploaded asset: %s", asset.GetBrowserDownloadURL())
	return nil
}

func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
