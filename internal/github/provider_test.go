package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	gh "github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/githost"
)

// writeJSON encodes v as JSON to the response writer. Panics on error (test only).
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
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

var testEnv = map[string]string{
	"GITHUB_REPOSITORY": "testowner/testrepo",
	"GITHUB_REF_NAME":   "release-1.0.0",
	"GITHUB_ACTOR":      "octocat",
}

func getenv(overrides map[string]string) func(string) string {
	return func(k string) string {
		if v, ok := overrides[k]; ok {
			return v
		}
		return testEnv[k]
	}
}

// newTestProvider creates a Provider backed by a test server.
func newTestProvider(t *testing.T, mux *http.ServeMux, log *zap.SugaredLogger, env map[string]string) *Provider {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client, err := gh.NewClient(nil).WithEnterpriseURLs(server.URL+"/", server.URL+"/")
	require.NoError(t, err)
	p, err := New(log, client, getenv(env))
	require.NoError(t, err)
	return p
}

func TestNew_Environment(t *testing.T) {
	p, err := New(zap.NewNop().Sugar(), nil, getenv(nil))
	require.NoError(t, err)
	require.Equal(t, githost.GitHub, p.Kind())
	require.Equal(t, "release-1.0.0", p.CurrentBranch())
	require.Equal(t, "octocat", p.Author())
	require.Equal(t, "main", p.defaultBranch)

	p, err = New(zap.NewNop().Sugar(), nil, getenv(map[string]string{"GITHUB_DEFAULT_BRANCH": "trunk"}))
	require.NoError(t, err)
	require.Equal(t, "trunk", p.defaultBranch)
}

func TestNew_InvalidRepository(t *testing.T) {
	for _, slug := range []string{"", "noslash", "/repo", "owner/"} {
		_, err := New(zap.NewNop().Sugar(), nil, getenv(map[string]string{"GITHUB_REPOSITORY": slug}))
		require.Error(t, err, slug)
	}
}

func TestBranches_Paginates(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/branches", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, []map[string]interface{}{{"name": "release-1.0.0"}})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v3/repos/testowner/testrepo/branches?page=2>; rel="next"`, serverURL))
		writeJSON(w, []map[string]interface{}{{"name": "main"}, {"name": "develop"}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	client, err := gh.NewClient(nil).WithEnterpriseURLs(server.URL+"/", server.URL+"/")
	require.NoError(t, err)
	p, err := New(zap.NewNop().Sugar(), client, getenv(nil))
	require.NoError(t, err)

	branches, err := p.Branches(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"main", "develop", "release-1.0.0"}, branches)
}

func TestBranches_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/branches", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	})
	p := newTestProvider(t, mux, zap.NewNop().Sugar(), nil)

	_, err := p.Branches(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "listing branches")
	require.Contains(t, err.Error(), "401")
}

func TestCreateMergeRequest(t *testing.T) {
	mux := http.NewServeMux()
	var prBody, reviewersBody, commentBody map[string]interface{}
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		prBody = decodeBody(r)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"number": 7, "html_url": "https://github.com/testowner/testrepo/pull/7"})
	})
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/pulls/7/requested_reviewers", func(w http.ResponseWriter, r *http.Request) {
		reviewersBody = decodeBody(r)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"number": 7})
	})
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		commentBody = decodeBody(r)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": 1})
	})
	p := newTestProvider(t, mux, zap.NewNop().Sugar(), nil)

	hook, err := p.CreateMergeRequest(context.Background(), githost.MergeRequestRequest{
		Title:       "Release version 1.0.0",
		Description: "desc",
		Reviewers:   []string{"alice", "bob"},
	})
	require.NoError(t, err)
	require.True(t, hook.Created())
	require.Equal(t, "7", hook.ID)

	require.Equal(t, "Release version 1.0.0", prBody["title"])
	require.Equal(t, "release-1.0.0", prBody["head"])
	require.Equal(t, "main", prBody["base"])
	require.Equal(t, "desc", prBody["body"])
	require.Equal(t, []interface{}{"alice", "bob"}, reviewersBody["reviewers"])

	require.NoError(t, hook.AddComment("Version 1.0.0 released successfully!"))
	require.Equal(t, "Version 1.0.0 released successfully!", commentBody["body"])
}

func TestCreateMergeRequest_TargetBranch(t *testing.T) {
	mux := http.NewServeMux()
	var prBody map[string]interface{}
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		prBody = decodeBody(r)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"number": 3})
	})
	p := newTestProvider(t, mux, zap.NewNop().Sugar(), nil)

	_, err := p.CreateMergeRequest(context.Background(), githost.MergeRequestRequest{TargetBranch: "develop"})
	require.NoError(t, err)
	require.Equal(t, "develop", prBody["base"])
}

func TestCreateMergeRequest_ReviewersFailureIsWarning(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"number": 9})
	})
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/pulls/9/requested_reviewers", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Reviews may only be requested from collaborators"}`, http.StatusUnprocessableEntity)
	})
	core, logs := observer.New(zapcore.WarnLevel)
	p := newTestProvider(t, mux, zap.New(core).Sugar(), nil)

	hook, err := p.CreateMergeRequest(context.Background(), githost.MergeRequestRequest{Reviewers: []string{"stranger"}})
	require.NoError(t, err)
	require.Equal(t, "9", hook.ID)
	require.Equal(t, 1, logs.Len())
	require.Contains(t, logs.All()[0].Message, "Could not add reviewers")
	require.NotContains(t, logs.All()[0].Message, "was not found")
}

func TestCreateMergeRequest_ReviewerNotFoundIsWarning(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"number": 9})
	})
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/pulls/9/requested_reviewers", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	core, logs := observer.New(zapcore.WarnLevel)
	p := newTestProvider(t, mux, zap.New(core).Sugar(), nil)

	hook, err := p.CreateMergeRequest(context.Background(), githost.MergeRequestRequest{Reviewers: []string{"ghost", "kot"}})
	require.NoError(t, err)
	require.Equal(t, "9", hook.ID)
	require.Equal(t, 1, logs.Len())
	require.Contains(t, logs.All()[0].Message, "Could not add reviewers, one of ghost, kot was not found")
}

func TestCreateMergeRequest_Failure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Validation Failed"}`, http.StatusUnprocessableEntity)
	})
	p := newTestProvider(t, mux, zap.NewNop().Sugar(), nil)

	hook, err := p.CreateMergeRequest(context.Background(), githost.MergeRequestRequest{})
	require.Error(t, err)
	require.Nil(t, hook)
}

func TestCreateRelease_WithAssets(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "app.jar")
	require.NoError(t, os.WriteFile(jar, []byte("jar-bytes"), 0o644))
	notes := filepath.Join(dir, "notes.json")
	require.NoError(t, os.WriteFile(notes, []byte("{}"), 0o644))

	mux := http.NewServeMux()
	var releaseBody map[string]interface{}
	uploads := map[string]string{}
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/releases", func(w http.ResponseWriter, r *http.Request) {
		releaseBody = decodeBody(r)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": 11, "html_url": "https://github.com/testowner/testrepo/releases/1.0.0"})
	})
	mux.HandleFunc("/api/uploads/repos/testowner/testrepo/releases/11/assets", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		uploads[r.URL.Query().Get("name")] = r.Header.Get("Content-Type") + "|" + string(data)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": 1})
	})
	p := newTestProvider(t, mux, zap.NewNop().Sugar(), nil)

	err := p.CreateRelease(context.Background(), githost.ReleaseRequest{
		Name:        "Release 1.0.0",
		TagName:     "1.0.0",
		Description: "changelog",
		Files:       []string{jar, notes},
	})
	require.NoError(t, err)

	require.Equal(t, "1.0.0", releaseBody["tag_name"])
	require.Equal(t, "Release 1.0.0", releaseBody["name"])
	require.Equal(t, "changelog", releaseBody["body"])
	require.Equal(t, "release-1.0.0", releaseBody["target_commitish"])
	require.Equal(t, "true", releaseBody["make_latest"])

	require.Equal(t, contentType("app.jar")+"|jar-bytes", uploads["app.jar"])
	require.Equal(t, "application/json|{}", uploads["notes.json"])
}

func TestCreateRelease_NoFiles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/releases", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": 12})
	})
	core, logs := observer.New(zapcore.InfoLevel)
	p := newTestProvider(t, mux, zap.New(core).Sugar(), nil)

	require.NoError(t, p.CreateRelease(context.Background(), githost.ReleaseRequest{TagName: "1.0.0"}))
	require.Equal(t, 1, logs.FilterMessage("No files to upload").Len())
}

func TestCreateRelease_Failure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/releases", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"already_exists"}`, http.StatusUnprocessableEntity)
	})
	p := newTestProvider(t, mux, zap.NewNop().Sugar(), nil)

	err := p.CreateRelease(context.Background(), githost.ReleaseRequest{TagName: "1.0.0"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "creating release")
}

func TestCreateRelease_MissingAsset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/testowner/testrepo/releases", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": 13})
	})
	core, logs := observer.New(zapcore.WarnLevel)
	p := newTestProvider(t, mux, zap.New(core).Sugar(), nil)

	err := p.CreateRelease(context.Background(), githost.ReleaseRequest{
		TagName: "1.0.0",
		Files:   []string{filepath.Join(t.TempDir(), "missing.zip")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	require.Contains(t, logs.All()[0].Message, "Could not upload")
	require.Contains(t, logs.All()[0].Message, "opening asset")
}

func TestContentType(t *testing.T) {
	require.Equal(t, "application/pdf", contentType("manual.pdf"))
	require.Equal(t, "application/octet-stream", contentType("binary"))
	require.Equal(t, "application/octet-stream", contentType("file.valhalla-unknown-ext"))
}
