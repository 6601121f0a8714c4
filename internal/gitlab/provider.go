package gitlab

import (
	"context"
	"fmt"
	"strconv"

	gl "github.com/xanzy/go-gitlab"
	"go.uber.org/zap"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/githost"
)

// Compile-time check that Provider implements githost.Provider.
var _ githost.Provider = (*Provider)(nil)

// Provider talks to the project named by CI_PROJECT_ID.
type Provider struct {
	log           *zap.SugaredLogger
	client        *gl.Client
	projectID     string
	branch        string
	author        string
	defaultBranch string
}

// New creates a Provider from the GitLab CI environment read through
// getenv.
func New(log *zap.SugaredLogger, client *gl.Client, getenv func(string) string) (*Provider, error) {
	projectID := getenv("CI_PROJECT_ID")
	if projectID == "" {
		return nil, fmt.Errorf("CI_PROJECT_ID environment variable is not set")
	}
	log.Infof("GitLab project id: %s", projectID)

	branch := getenv("CI_COMMIT_BRANCH")
	if branch == "" {
		log.Error("CI_COMMIT_BRANCH environment variable is not set. Are you using GitLab CI? " +
			"If not change your valhalla configuration!")
	}

	return &Provider{
		log:           log,
		client:        client,
		projectID:     projectID,
		branch:        branch,
		author:        getenv("GITLAB_USER_LOGIN"),
		defaultBranch: getenv("CI_DEFAULT_BRANCH"),
	}, nil
}

// NewFromEnv creates the API client from the CI_SERVER_* variables and
// token, then the Provider.
func NewFromEnv(log *zap.SugaredLogger, token string, getenv func(string) string) (*Provider, error) {
	url := ServerURL(getenv)
	log.Infof("GitLab URL: %s", url)
	client, err := NewClient(token, url)
	if err != nil {
		return nil, err
	}
	return New(log, client, getenv)
}

func (p *Provider) Kind() githost.Kind {
	return githost.GitLab
}

func (p *Provider) CurrentBranch() string {
	return p.branch
}

func (p *Provider) Author() string {
	p.log.Infof("Author: %s", p.author)
	return p.author
}

func (p *Provider) Branches(ctx context.Context) ([]string, error) {
	opts := &gl.ListBranchesOptions{ListOptions: gl.ListOptions{PerPage: 100}}

	var names []string
	for {
		branches, resp, err := p.client.Branches.ListBranches(p.projectID, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing branches of project %s: %w", p.projectID, err)
		}
		for _, b := range branches {
			names = append(names, b.Name)
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
	p.log.Infof("Creating merge request from %s to %s", p.branch, target)

	reviewerIDs := p.reviewerIDs(ctx, req.Reviewers)
	mr, _, err := p.client.MergeRequests.CreateMergeRequest(p.projectID, &gl.CreateMergeRequestOptions{
		Title:              gl.Ptr(req.Title),
		Description:        gl.Ptr(req.Description),
		SourceBranch:       gl.Ptr(p.branch),
		TargetBranch:       gl.Ptr(target),
		RemoveSourceBranch: gl.Ptr(true),
		ReviewerIDs:        &reviewerIDs,
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("creating merge request: %w", err)
	}
	p.log.Infof("Created merge request: %s", mr.WebURL)

	iid := mr.IID
	return githost.NewMergeRequestHook(p.log, strconv.Itoa(iid), func(text string) error {
		return p.comment(ctx, iid, text)
	}), nil
}

func (p *Provider) reviewerIDs(ctx context.Context, usernames []string) []int {
	ids := []int{}
	for _, name := range usernames {
		users, _, err := p.client.Users.ListUsers(&gl.ListUsersOptions{Username: gl.Ptr(name)}, gl.WithContext(ctx))
		if err != nil {
			p.log.Warnf("Could not look up username %s: %v", name, err)
			continue
		}
		if len(users) == 0 {
			p.log.Warnf("Could not find username: %s", name)
			continue
		}
		p.log.Infof("Adding reviewer: %s with id %d", name, users[0].ID)
		ids = append(ids, users[0].ID)
	}
	return ids
}

func (p *Provider) comment(ctx context.Context, iid int, text string) error {
	_, _, err := p.client.Notes.CreateMergeRequestNote(p.projectID, iid, &gl.CreateMergeRequestNoteOptions{
		Body: gl.Ptr(text),
	}, gl.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("commenting on merge request !%d: %w", iid, err)
	}
	return nil
}

func (p *Provider) CreateRelease(ctx context.Context, req githost.ReleaseRequest) error {
	p.log.Infof("Creating release from branch: %s", p.branch)
	for _, f := range req.Files {
		p.log.Infof("Asset files are not supported on GitLab releases, ignoring: %s", f)
	}

	opts := &gl.CreateReleaseOptions{
		Name:        gl.Ptr(req.Name),
		TagName:     gl.Ptr(req.TagName),
		Description: gl.Ptr(req.Description),
		Ref:         gl.Ptr(p.branch),
	}
	if len(req.Milestones) > 0 {
		milestones := append([]string(nil), req.Milestones...)
		opts.Milestones = &milestones
	}
	if len(req.Links) > 0 {
		links := make([]*gl.ReleaseAssetLinkOptions, 0, len(req.Links))
		for _, l := range req.Links {
			links = append(links, &gl.ReleaseAssetLinkOptions{
				Name:     gl.Ptr(l.Name),
				URL:      gl.Ptr(l.URL),
				LinkType: gl.Ptr(gl.LinkTypeValue(l.LinkType)),
			})
		}
		opts.Assets = &gl.ReleaseAssetsOptions{Links: links}
	}

	release, _, err := p.client.Releases.CreateRelease(p.projectID, opts, gl.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("creating release: %w", err)
	}
	p.log.Infof("Created release: %s", release.Name)
	return nil
}
