// Package pipeline runs a valhalla release from start to finish: it finds
// the release kind and version, loads valhalla.yml, opens the merge
// request, runs the commit phases and creates the release.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/config"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/executor"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/git"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/githost"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/logger"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/release"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/resolver"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/settings"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/version"
)

const (
	InProgressComment = "Valhalla is releasing version {VERSION}, please wait..."
	SuccessComment    = "Version {VERSION} released successfully!"
)

// Pipeline holds the collaborators of one release run.
type Pipeline struct {
	log      *logger.Logger
	settings *settings.Settings

	getenv      func(string) string
	runner      executor.Runner
	repo        git.Repository
	newProvider ProviderFactory
	httpClient  *http.Client
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGetenv replaces os.Getenv for provider detection and lookups.
func WithGetenv(fn func(string) string) Option {
	return func(p *Pipeline) { p.getenv = fn }
}

// WithRunner replaces the bash executor.
func WithRunner(r executor.Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithRepository sets the git repository used for the commit phases.
// By default the repository containing settings.Root is opened on first use.
func WithRepository(r git.Repository) Option {
	return func(p *Pipeline) { p.repo = r }
}

// WithProviderFactory replaces NewProvider.
func WithProviderFactory(f ProviderFactory) Option {
	return func(p *Pipeline) { p.newProvider = f }
}

// WithHTTPClient sets the client used to fetch extends documents.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.httpClient = c }
}

// New creates a Pipeline.
func New(log *logger.Logger, s *settings.Settings, opts ...Option) *Pipeline {
	runner := executor.New(log.SugaredLogger)
	runner.Dir = s.Root
	p := &Pipeline{
		log:         log,
		settings:    s,
		getenv:      os.Getenv,
		runner:      runner,
		newProvider: NewProvider,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run is the state of a single Run call.
type run struct {
	*Pipeline
	provider githost.Provider
	resolver *resolver.Resolver
	hook     *githost.MergeRequestHook
}

// Run executes the release. The returned error is an *ExitError whose
// code is the exit status the process should end with.
func (p *Pipeline) Run(ctx context.Context) error {
	r := &run{Pipeline: p, resolver: resolver.New(p.log.SugaredLogger)}
	defer p.log.SetCommenter(nil)
	err := r.execute(ctx)
	if err != nil {
		p.log.Error(err.Error())
	}
	return exitError(err)
}

func (r *run) execute(ctx context.Context) error {
	log := r.log.SugaredLogger
	log.Info("Valhalla is starting...")

	if err := r.settings.Validate(); err != nil {
		return err
	}
	r.log.SetToken(r.settings.Token)
	log.Infof("Variable VALHALLA_TOKEN is set to: %s", r.settings.Token)

	kinds, err := version.ReleaseKinds(log, r.settings.Root)
	if err != nil {
		return err
	}

	kind, err := githost.Detect(r.getenv)
	if err != nil {
		return err
	}
	r.provider, err = r.newProvider(log, kind, r.settings.Token, r.getenv)
	if err != nil {
		return fmt.Errorf("creating %s provider: %w", kind, err)
	}
	r.resolver.Init(r.settings.Token, r.provider.Author())

	toRelease, err := r.versionToRelease(kinds)
	if err != nil {
		return err
	}

	loader := config.NewLoader(log, config.WithResolve(r.resolver.Resolve), config.WithHTTPClient(r.httpClient))
	cfg, err := loader.Load(ctx, toRelease.ConfigFilePath())
	if err != nil {
		return err
	}
	r.resolver.SetCustomVariables(cfg.Variables)

	if toRelease.IsVersionEmpty() {
		if err := toRelease.FromConfig(ctx, log, r.runner, cfg.Version.FromCommand); err != nil {
			return err
		}
		if toRelease.IsVersionEmpty() {
			return ErrEmptyVersion
		}
	}
	r.resolver.SetVersion(toRelease.Number)

	r.hook = r.createMergeRequest(ctx, cfg.MergeRequest)
	r.log.SetCommenter(r.hook)

	if err := r.checkOtherReleases(ctx); err != nil {
		return err
	}

	r.comment(InProgressComment)

	if err := r.commit(ctx, "commit_before_release", cfg.CommitBefore); err != nil {
		return err
	}

	if err := r.createRelease(ctx, toRelease.Number, cfg); err != nil {
		return err
	}

	if err := r.commit(ctx, "commit_after_release", cfg.CommitAfter); err != nil {
		return err
	}

	r.comment(SuccessComment)
	log.Infof("Version %s released!", toRelease.Number)
	return nil
}

// versionToRelease prefers VALHALLA_RELEASE_CMD over the current branch.
func (r *run) versionToRelease(kinds []version.ReleaseKind) (*version.VersionToRelease, error) {
	log := r.log.SugaredLogger
	v, err := version.FromReleaseCommand(log, r.settings.ReleaseCmd, kinds)
	if err != nil || v != nil {
		return v, err
	}
	return githost.VersionToRelease(log, r.provider, kinds)
}

func (r *run) createMergeRequest(ctx context.Context, mr config.MergeRequestConfig) *githost.MergeRequestHook {
	log := r.log.SugaredLogger
	if !mr.Enabled {
		log.Info("merge_request.enabled is false, skipping")
		return githost.Skip(log)
	}

	req, err := r.mergeRequestRequest(mr)
	if err != nil {
		log.Warnf("Could not prepare merge request: %v", err)
		return githost.Skip(log)
	}

	hook, err := r.provider.CreateMergeRequest(ctx, req)
	if err != nil {
		log.Warnf("Could not create merge request: %v", err)
		return githost.Skip(log)
	}
	return hook
}

func (r *run) mergeRequestRequest(mr config.MergeRequestConfig) (githost.MergeRequestRequest, error) {
	var req githost.MergeRequestRequest
	var err error
	if req.TargetBranch, err = r.resolver.Resolve(mr.TargetBranch); err != nil {
		return req, err
	}
	if req.Title, err = r.resolver.Resolve(mr.Title); err != nil {
		return req, err
	}
	if req.Description, err = r.resolver.Resolve(mr.Description); err != nil {
		return req, err
	}
	req.Reviewers = mr.Reviewers
	return req, nil
}

func (r *run) checkOtherReleases(ctx context.Context) error {
	branches, err := r.provider.Branches(ctx)
	if err != nil {
		return fmt.Errorf("listing branches: %w", err)
	}
	if others := githost.OtherReleasesInProgress(branches, r.provider.CurrentBranch()); len(others) > 0 {
		return &ConcurrentReleaseError{Branches: others}
	}
	return nil
}

// comment posts a status comment. Failures are warnings.
func (r *run) comment(text string) {
	resolved, err := r.resolver.Resolve(text)
	if err != nil {
		r.log.Warnf("Could not resolve comment %q: %v", text, err)
		return
	}
	if err := r.hook.AddComment(resolved); err != nil {
		r.log.Warnf("Could not add comment to merge request: %v", err)
	}
}

// commit runs one commit phase: the configured commands in order, then a
// commit of the resulting changes and a push when something was committed.
func (r *run) commit(ctx context.Context, name string, cc config.CommitConfig) error {
	log := r.log.SugaredLogger
	if !cc.Enabled {
		log.Infof("%s.enabled is false, skipping", name)
		return nil
	}

	log.Infof("Running %s", name)
	for _, c := range cc.Before {
		command, err := r.resolver.Resolve(c)
		if err != nil {
			return err
		}
		res, err := r.runner.Run(ctx, command)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return &CommandError{Command: command, ExitCode: res.ExitCode}
		}
	}

	username := cc.Username
	if username == "" {
		username = config.DefaultGitUsername
		log.Infof("%s.username not set, using: %s", name, username)
	}
	email := cc.Email
	if email == "" {
		email = config.DefaultGitEmail
		log.Infof("%s.email not set, using: %s", name, email)
	}
	msg, err := r.resolver.Resolve(cc.Msg)
	if err != nil {
		return err
	}

	repo, err := r.repository()
	if err != nil {
		return err
	}
	committed, err := repo.Commit(git.CommitOptions{Message: msg, Username: username, Email: email, Add: true})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !committed {
		return nil
	}

	branch := r.provider.CurrentBranch()
	if err := repo.Push(branch, r.settings.Token); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Infof("Pushed %s changes to %s", name, branch)
	return nil
}

func (r *run) repository() (git.Repository, error) {
	if r.repo != nil {
		return r.repo, nil
	}
	repo, err := git.Open(r.log.SugaredLogger, r.settings.Root)
	if err != nil {
		return nil, err
	}
	r.repo = repo
	return repo, nil
}

// createRelease assembles and creates the release. Only resolving the
// configuration is fatal, a failure on the git host is a warning.
func (r *run) createRelease(ctx context.Context, v string, cfg *config.Config) error {
	assembler := release.NewAssembler(r.log.SugaredLogger, r.resolver, r.runner)
	req, err := assembler.Build(ctx, v, cfg.Release, cfg.Tag)
	if err != nil {
		return err
	}

	r.log.Infof("Creating release %s with tag %s", req.Name, req.TagName)
	if err := r.provider.CreateRelease(ctx, req); err != nil {
		r.log.Warnf("Could not create release: %v", err)
		return nil
	}
	r.log.Infof("Release %s created", req.Name)
	return nil
}
