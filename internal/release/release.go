// Package release assembles the release request sent to the git host from
// the release and tag configuration.
package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/config"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/executor"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/githost"
)

// DescriptionError is used as the description when the description command
// could not be run.
const DescriptionError = "error, check valhalla release logs"

// Resolver expands placeholders.
type Resolver interface {
	Resolve(s string) (string, error)
}

// Assembler builds release requests.
type Assembler struct {
	log      *zap.SugaredLogger
	resolver Resolver
	runner   executor.Runner
}

// NewAssembler creates an Assembler.
func NewAssembler(log *zap.SugaredLogger, resolver Resolver, runner executor.Runner) *Assembler {
	return &Assembler{log: log, resolver: resolver, runner: runner}
}

// Build resolves every configured value. Name and tag fall back to
// version when unset.
func (a *Assembler) Build(ctx context.Context, version string, rc config.ReleaseConfig, tag config.TagConfig) (githost.ReleaseRequest, error) {
	var req githost.ReleaseRequest
	var err error

	if req.Name, err = a.orVersion("release.name", rc.Name, version); err != nil {
		return req, err
	}
	if req.TagName, err = a.orVersion("tag.name", tag.Name, version); err != nil {
		return req, err
	}
	for _, m := range rc.Milestones {
		resolved, err := a.resolver.Resolve(m)
		if err != nil {
			return req, err
		}
		req.Milestones = append(req.Milestones, resolved)
	}
	if req.Description, err = a.description(ctx, rc.DescriptionFromCommand, version); err != nil {
		return req, err
	}
	if req.Links, err = a.links(rc.Links); err != nil {
		return req, err
	}
	if req.Files, err = a.files(rc.Files); err != nil {
		return req, err
	}
	return req, nil
}

func (a *Assembler) orVersion(key, value, version string) (string, error) {
	if strings.TrimSpace(value) == "" {
		a.log.Infof("%s not set, using version: %s", key, version)
		return version, nil
	}
	return a.resolver.Resolve(value)
}

func (a *Assembler) description(ctx context.Context, fromCommand, version string) (string, error) {
	if strings.TrimSpace(fromCommand) == "" {
		a.log.Infof("release.description.from_command not set, using version: %s", version)
		return version, nil
	}

	a.log.Info("Getting release description from command")
	command, err := a.resolver.Resolve(fromCommand)
	if err != nil {
		return "", err
	}
	res, err := a.runner.Run(ctx, command)
	if err != nil {
		a.log.Warnf("Could not get release description: %v", err)
		return DescriptionError, nil
	}
	if res.ExitCode != 0 {
		a.log.Warnf("Release description command '%s' finished with code: %d", command, res.ExitCode)
		return DescriptionError, nil
	}
	return res.Stdout, nil
}

func (a *Assembler) links(links []config.LinkConfig) ([]githost.AssetLink, error) {
	var out []githost.AssetLink
	for _, l := range links {
		name, err := a.resolver.Resolve(l.Name)
		if err != nil {
			return nil, err
		}
		url, err := a.resolver.Resolve(l.URL)
		if err != nil {
			return nil, err
		}
		out = append(out, githost.AssetLink{Name: name, URL: url, LinkType: l.LinkType})
	}
	return out, nil
}

// files expands each pattern in order, keeping regular files only.
func (a *Assembler) files(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		pattern, err := a.resolver.Resolve(p)
		if err != nil {
			return nil, err
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			a.log.Warnf("Invalid release.assets.files pattern %q: %v", pattern, err)
			continue
		}
		if len(matches) == 0 {
			a.log.Infof("No files match pattern: %s", pattern)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("checking asset %s: %w", m, err)
			}
			if info.Mode().IsRegular() {
				out = append(out, m)
			}
		}
	}
	return out, nil
}
