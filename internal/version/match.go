package version

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/executor"
	"go.uber.org/zap"
)

// BasePrefix starts every release branch name and release command.
const BasePrefix = "release-"

const separator = "-"

// VersionToRelease is the resolved release target.
type VersionToRelease struct {
	// Number is the version to release; empty means it must come from
	// the configuration.
	Number string
	Kind   ReleaseKind
}

// ConfigFilePath returns the configuration file of the matched kind.
func (v *VersionToRelease) ConfigFilePath() string {
	return v.Kind.ConfigFilePath()
}

// IsVersionEmpty reports whether the version is still unknown.
func (v *VersionToRelease) IsVersionEmpty() bool {
	return strings.TrimSpace(v.Number) == ""
}

// FromConfig sets the version from the trimmed standard output of
// command, the configured version.from_command. A blank command is a
// no-op; callers must treat a still-empty version as fatal.
func (v *VersionToRelease) FromConfig(ctx context.Context, log *zap.SugaredLogger, runner executor.Runner, command string) error {
	if strings.TrimSpace(command) == "" {
		log.Info("version.from_command is not set, version to release stays empty")
		return nil
	}

	log.Infof("Getting version to release from command: %s", command)
	res, err := runner.Run(ctx, command)
	if err != nil {
		return fmt.Errorf("getting version from command: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("version.from_command %q finished with code %d", command, res.ExitCode)
	}

	v.Number = strings.TrimSpace(res.Stdout)
	log.Infof("Project version that is going to be released: %s", v.Number)
	return nil
}

// BranchPrefix returns the prefix a branch or command must start with to
// target kind.
func BranchPrefix(kind ReleaseKind) string {
	if kind.IsDefault() {
		return BasePrefix
	}
	prefix := BasePrefix + kind.Suffix
	for strings.Contains(prefix, separator+separator) {
		prefix = strings.ReplaceAll(prefix, separator+separator, separator)
	}
	return strings.TrimRight(prefix, separator) + separator
}

// NoMatchError is returned when a value matches none of the release kinds.
type NoMatchError struct {
	Value string
	Kinds []ReleaseKind
}

func (e *NoMatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q does not match any release kind, available kinds:", e.Value)
	for _, k := range e.Kinds {
		fmt.Fprintf(&b, "\n  %s requires prefix %s", k.Filename, BranchPrefix(k))
	}
	return b.String()
}

// ResolveFromString matches value against kinds. Kinds with a suffix are
// checked first, the longest prefix winning; the main kind is the fallback.
// The matched prefix is stripped to obtain the version.
func ResolveFromString(log *zap.SugaredLogger, value string, kinds []ReleaseKind) (*VersionToRelease, error) {
	var specific, general []ReleaseKind
	for _, k := range kinds {
		if k.IsDefault() {
			general = append(general, k)
		} else {
			specific = append(specific, k)
		}
	}
	sort.SliceStable(specific, func(i, j int) bool {
		return len(BranchPrefix(specific[i])) > len(BranchPrefix(specific[j]))
	})

	for _, group := range [][]ReleaseKind{specific, general} {
		for _, k := range group {
			prefix := BranchPrefix(k)
			if !strings.HasPrefix(value, prefix) {
				continue
			}
			v := &VersionToRelease{Number: strings.TrimPrefix(value, prefix), Kind: k}
			log.Infof("%s matches release kind %s, version to release: %s", value, k.Filename, v.Number)
			return v, nil
		}
	}

	return nil, &NoMatchError{Value: value, Kinds: kinds}
}

// PrefixError is returned when the release command does not start with
// BasePrefix.
type PrefixError struct {
	Value string
}

func (e *PrefixError) Error() string {
	return fmt.Sprintf("VALHALLA_RELEASE_CMD %q must start with %s", e.Value, BasePrefix)
}

// FromReleaseCommand resolves the release command override. It returns
// nil without an error when command is empty so the caller falls back to
// the current branch.
func FromReleaseCommand(log *zap.SugaredLogger, command string, kinds []ReleaseKind) (*VersionToRelease, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, nil
	}

	log.Infof("VALHALLA_RELEASE_CMD is set to: %s", command)
	if !strings.HasPrefix(command, BasePrefix) {
		return nil, &PrefixError{Value: command}
	}
	return ResolveFromString(log, command, kinds)
}
