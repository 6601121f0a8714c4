// Package config loads valhalla.yml release configuration, including the
// remote parent named by extends, and applies defaults.
package config

// Config is the final release configuration of one release kind.
type Config struct {
	Extends      []string
	GitHost      string
	Variables    map[string]string
	Version      VersionConfig
	CommitBefore CommitConfig
	CommitAfter  CommitConfig
	Release      ReleaseConfig
	Tag          TagConfig
	MergeRequest MergeRequestConfig
}

// VersionConfig describes how to obtain the version when the branch name
// carries none.
type VersionConfig struct {
	FromCommand string
}

// CommitConfig is one of commit_before_release and commit_after_release.
type CommitConfig struct {
	Enabled  bool
	Username string
	Email    string
	Msg      string
	Before   []string
}

// ReleaseConfig describes the release created on the git host.
type ReleaseConfig struct {
	Name                   string
	Milestones             []string
	DescriptionFromCommand string
	Links                  []LinkConfig
	Files                  []string
}

// LinkConfig is one entry of release.assets.links.
type LinkConfig struct {
	Name     string
	URL      string
	LinkType string
}

// TagConfig describes the tag created with the release.
type TagConfig struct {
	Name string
}

// MergeRequestConfig describes the merge request opened after releasing.
type MergeRequestConfig struct {
	Enabled bool
	// TargetBranch empty means the provider's default branch.
	TargetBranch string
	Title        string
	Description  string
	Reviewers    []string
}
