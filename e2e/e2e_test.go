// Package e2e contains end-to-end tests that run the full release pipeline
// against real (temporary) git repositories and mock git host APIs.
//
// Each test builds a repository with valhalla*.yml files, starts an
// httptest server speaking the GitHub or GitLab API and runs the pipeline
// with the real executor, config loader, resolver and go-git adapter.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/logger"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/pipeline"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/settings"
)

const testToken = "e2e-secret-token"

// writeJSON encodes v as JSON to the response writer. Panics on error (test only).
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(err)
	}
}

func decodeBody(r *http.Request) map[string]interface{} {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		panic(err)
	}
	return body
}

// runPipeline runs a release rooted at root with env as the CI environment.
// It returns the log output and the pipeline error.
func runPipeline(t *testing.T, root string, env map[string]string, releaseCmd string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	log, err := logger.New(&out, "debug", logger.WithToken(testToken), logger.WithExit(func(code int) {
		t.Errorf("logger requested exit with code %d", code)
	}))
	require.NoError(t, err)

	s := &settings.Settings{Token: testToken, ReleaseCmd: releaseCmd, LogLevel: "debug", Root: root}
	p := pipeline.New(log, s, pipeline.WithGetenv(func(k string) string { return env[k] }))
	err = p.Run(context.Background())
	return out.String(), err
}
