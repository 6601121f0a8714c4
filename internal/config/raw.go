package config

// Raw documents mirror valhalla.yml. Pointer fields distinguish an absent
// key from a zero value.

type rawConfig struct {
	Extends      []string          `yaml:"extends"`
	GitHost      *string           `yaml:"git_host"`
	Variables    map[string]string `yaml:"variables"`
	Version      *rawVersion       `yaml:"version"`
	CommitBefore *rawCommit        `yaml:"commit_before_release"`
	CommitAfter  *rawCommit        `yaml:"commit_after_release"`
	Release      *rawRelease       `yaml:"release"`
	Tag          *rawTag           `yaml:"tag"`
	MergeRequest *rawMergeRequest  `yaml:"merge_request"`
}

type rawVersion struct {
	FromCommand *string `yaml:"from_command"`
}

type rawCommit struct {
	Enabled  *Bool    `yaml:"enabled"`
	Username *string  `yaml:"username"`
	Email    *string  `yaml:"email"`
	Msg      *string  `yaml:"msg"`
	Before   []string `yaml:"before"`
}

type rawRelease struct {
	Name        *string         `yaml:"name"`
	Milestones  []string        `yaml:"milestones"`
	Description *rawDescription `yaml:"description"`
	Assets      *rawAssets      `yaml:"assets"`
}

type rawDescription struct {
	FromCommand *string `yaml:"from_command"`
}

type rawAssets struct {
	Links []rawLink `yaml:"links"`
	Files []string  `yaml:"files"`
}

type rawLink struct {
	Name     *string `yaml:"name"`
	URL      *string `yaml:"url"`
	LinkType *string `yaml:"link_type"`
}

type rawTag struct {
	Name *string `yaml:"name"`
}

type rawMergeRequest struct {
	Enabled      *Bool    `yaml:"enabled"`
	TargetBranch *string  `yaml:"target_branch"`
	Title        *string  `yaml:"title"`
	Description  *string  `yaml:"description"`
	Reviewers    []string `yaml:"reviewers"`
}
