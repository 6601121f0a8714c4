// Package gitlab implements the git host provider for GitLab CI.
package gitlab

import (
	"errors"
	"fmt"

	gl "github.com/xanzy/go-gitlab"
)

// ServerURL builds the GitLab URL from CI_SERVER_PROTOCOL, CI_SERVER_HOST
// and CI_SERVER_PORT.
func ServerURL(getenv func(string) string) string {
	protocol := getenv("CI_SERVER_PROTOCOL")
	if protocol == "" {
		protocol = "https"
	}
	url := protocol + "://" + getenv("CI_SERVER_HOST")
	if port := getenv("CI_SERVER_PORT"); port != "" {
		url += ":" + port
	}
	return url
}

// NewClient creates a GitLab API client for baseURL authenticated with an
// OAuth or personal access token. CI_JOB_TOKEN cannot push, open merge
// requests or look up users, so it is not accepted here.
func NewClient(token, baseURL string) (*gl.Client, error) {
	if token == "" {
		return nil, errors.New("no GitLab authentication provided: set VALHALLA_TOKEN")
	}
	client, err := gl.NewOAuthClient(token, gl.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client for %s: %w", baseURL, err)
	}
	return client, nil
}
