// Package github implements the git host provider for GitHub Actions.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// DefaultAPIURL is the public GitHub API.
const DefaultAPIURL = "https://api.github.com"

// NewClient creates a GitHub API client authenticated with token. An empty
// baseURL or DefaultAPIURL targets github.com, anything else is treated as
// a GitHub Enterprise API URL.
func NewClient(token, baseURL string) (*gh.Client, error) {
	if token == "" {
		return nil, errors.New("no GitHub authentication provided: set VALHALLA_TOKEN")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)

	if baseURL == "" || strings.TrimRight(baseURL, "/") == DefaultAPIURL {
		return gh.NewClient(httpClient), nil
	}
	uploadURL := strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/api/v3") + "/"
	client, err := gh.NewClient(httpClient).WithEnterpriseURLs(baseURL, uploadURL)
	if err != nil {
		return nil, fmt.Errorf("setting enterprise URL: %w", err)
	}
	return client, nil
}

// IsNotFoundError returns true if the error represents an HTTP 404 response
// from the GitHub API.
func IsNotFoundError(err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
