package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/githost"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/github"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/gitlab"
)

// ProviderFactory builds the provider for a detected git host.
type ProviderFactory func(log *zap.SugaredLogger, kind githost.Kind, token string, getenv func(string) string) (githost.Provider, error)

// NewProvider builds the GitHub or GitLab provider from the CI environment.
func NewProvider(log *zap.SugaredLogger, kind githost.Kind, token string, getenv func(string) string) (githost.Provider, error) {
	switch kind {
	case githost.GitHub:
		log.Info("Detected GitHub Actions")
		p, err := github.NewFromEnv(log, token, getenv)
		if err != nil {
			return nil, err
		}
		return p, nil
	case githost.GitLab:
		log.Info("Detected GitLab CI")
		p, err := gitlab.NewFromEnv(log, token, getenv)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported git host %q: %w", kind, githost.ErrNoProvider)
	}
}
