// Package git stages, commits and pushes release changes with go-git.
package git

import "strings"

const (
	localBranchPrefix = "refs/heads/"

	// BotUsername authenticates pushes made with the valhalla token.
	BotUsername = "valhalla-bot"

	// SkipMarker is appended to every commit message so CI pipelines can
	// ignore valhalla's own commits.
	SkipMarker = " [VALHALLA SKIP]"

	// ignoredDir holds maven caches that must never be committed.
	ignoredDir = ".m2/"
)

// Status lists changed paths of the working tree, each sorted.
type Status struct {
	Untracked []string
	Modified  []string
	Deleted   []string
}

// IsClean reports whether nothing changed.
func (s Status) IsClean() bool {
	return len(s.Untracked) == 0 && len(s.Modified) == 0 && len(s.Deleted) == 0
}

// CommitOptions describes one commit.
type CommitOptions struct {
	// Message is the resolved commit message, SkipMarker is appended.
	Message  string
	Username string
	Email    string
	// Add stages untracked files too.
	Add bool
}

func isIgnored(path string) bool {
	return strings.HasPrefix(path, ignoredDir) || strings.Contains(path, "/"+ignoredDir)
}
