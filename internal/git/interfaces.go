package git

// Repository is the git working copy valhalla commits to.
type Repository interface {
	// Commit stages changes and commits them. It returns false when there
	// was nothing to commit.
	Commit(opts CommitOptions) (bool, error)

	// Push pushes the local branch to origin using token.
	Push(branch, token string) error
}
