package git

// Compile-time check that MockRepository implements Repository.
var _ Repository = (*MockRepository)(nil)

// MockRepository is a configurable mock implementation of Repository for testing.
// Each method is backed by a function field. If the function field is nil,
// the method returns sensible zero values. Calls are recorded.
type MockRepository struct {
	CommitFunc func(CommitOptions) (bool, error)
	PushFunc   func(branch, token string) error

	Commits []CommitOptions
	Pushes  []string
}

func (m *MockRepository) Commit(opts CommitOptions) (bool, error) {
	m.Commits = append(m.Commits, opts)
	if m.CommitFunc != nil {
		return m.CommitFunc(opts)
	}
	return true, nil
}

func (m *MockRepository) Push(branch, token string) error {
	m.Pushes = append(m.Pushes, branch)
	if m.PushFunc != nil {
		return m.PushFunc(branch, token)
	}
	return nil
}
