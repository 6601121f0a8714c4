// Package valhalla provides a public Go API for running a valhalla release
// from CI tooling written in Go. It runs the same pipeline as the valhalla
// command.
//
// Basic usage:
//
//	err := valhalla.Release(ctx, valhalla.Options{
//	    Token: os.Getenv("VALHALLA_TOKEN"),
//	})
//	os.Exit(valhalla.ExitCode(err))
package valhalla

import (
	"context"
	"io"
	"os"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/logger"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/pipeline"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/settings"
)

// Options configures a release.
type Options struct {
	// Root is searched for valhalla*.yml files and is the working directory
	// of configured commands. Defaults to ".".
	Root string

	// Token authenticates against the git host API and is used to push.
	// Required.
	Token string

	// ReleaseCmd overrides the current branch, e.g. "release-hotfix-1.2.3".
	ReleaseCmd string

	// LogLevel is one of debug, info, warn and error. Defaults to "info".
	LogLevel string

	// Output receives the log. Defaults to os.Stdout.
	Output io.Writer

	// Getenv looks up the CI variables of GitHub Actions or GitLab CI.
	// Defaults to os.Getenv.
	Getenv func(string) string
}

// Release runs the release described by the valhalla*.yml file matching
// the current branch or ReleaseCmd. Exceeding the merge request comment
// limit terminates the process.
func Release(ctx context.Context, opts Options) error {
	s := &settings.Settings{
		Token:      opts.Token,
		ReleaseCmd: opts.ReleaseCmd,
		LogLevel:   opts.LogLevel,
		Root:       opts.Root,
	}
	if s.Root == "" {
		s.Root = "."
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	log, err := logger.New(out, s.LogLevel, logger.WithToken(s.Token))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var popts []pipeline.Option
	if opts.Getenv != nil {
		popts = append(popts, pipeline.WithGetenv(opts.Getenv))
	}
	return pipeline.New(log, s, popts...).Run(ctx)
}

// ExitCode returns the process exit status for an error returned by
// Release: 0 for nil, 255 when the release could not be resolved, the exit
// code of a failed configured command, and 1 otherwise.
func ExitCode(err error) int {
	return pipeline.ExitCode(err)
}
