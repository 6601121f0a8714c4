package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/githost"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/resolver"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/settings"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/version"
)

// ResolutionExitCode is the exit status of errors that stop valhalla
// before it knows what to release.
const ResolutionExitCode = 255

// ErrEmptyVersion is returned when neither the branch, the release command
// nor version.from_command yields a version.
var ErrEmptyVersion = errors.New("version to release is empty! Use a branch like release-1.2.3, " +
	"set VALHALLA_RELEASE_CMD=release-1.2.3 or configure version.from_command in valhalla.yml")

// ConcurrentReleaseError is returned when other release branches exist.
type ConcurrentReleaseError struct {
	Branches []string
}

func (e *ConcurrentReleaseError) Error() string {
	return fmt.Sprintf("Valhalla detected another release in progress: %s. Only one release can be "+
		"in progress at a time! Finish or delete the other release branches and try again",
		strings.Join(e.Branches, ", "))
}

// CommandError is returned when a configured command exits with a
// non-zero status.
type CommandError struct {
	Command  string
	ExitCode int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command '%s' failed with exit code %d! Fix the problem, delete the release branch "+
		"and tag if they were created and try again", e.Command, e.ExitCode)
}

// ExitError carries the process exit status for an error returned by Run.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps err to the process exit status: 0 for nil, the command's
// code for a CommandError, ResolutionExitCode for resolution errors and 1
// otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}

	if isResolutionError(err) {
		return ResolutionExitCode
	}
	return 1
}

func isResolutionError(err error) bool {
	var (
		prefixErr     *version.PrefixError
		noMatchErr    *version.NoMatchError
		notReleaseErr *githost.NotReleaseBranchError
	)
	switch {
	case errors.Is(err, githost.ErrNoProvider),
		errors.Is(err, settings.ErrMissingToken),
		errors.Is(err, version.ErrNoReleaseKinds),
		errors.Is(err, resolver.ErrNotInitialized),
		errors.Is(err, ErrEmptyVersion),
		errors.As(err, &prefixErr),
		errors.As(err, &noMatchErr),
		errors.As(err, &notReleaseErr):
		return true
	}
	return false
}

func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: ExitCode(err), Err: err}
}
