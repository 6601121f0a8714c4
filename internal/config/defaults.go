package config

const (
	DefaultGitUsername = "valhalla-bot"
	DefaultGitEmail    = "valhalla-bot@logchange.dev"

	DefaultCommitBeforeMsg = "Releasing version {VERSION}"
	DefaultCommitAfterMsg  = "Preparation for next development cycle"

	DefaultMergeRequestTitle       = "Release version {VERSION}"
	DefaultMergeRequestDescription = "Created by Valhalla! Visit https://github.com/logchange/valhalla and leave a star!"

	DefaultLinkType = "other"
)
