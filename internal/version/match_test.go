package version

import (
	"context"
	"errors"
	"testing"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/executor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	mainKind   = ReleaseKind{Filename: "valhalla.yml", Suffix: "", Path: "."}
	hotfixKind = ReleaseKind{Filename: "valhalla-hotfix.yml", Suffix: "-hotfix", Path: "."}
)

type fakeRunner struct {
	RunFunc func(ctx context.Context, command string) (executor.Result, error)
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, command string) (executor.Result, error) {
	f.calls = append(f.calls, command)
	return f.RunFunc(ctx, command)
}

func TestBranchPrefix(t *testing.T) {
	tests := []struct {
		suffix string
		want   string
	}{
		{"", "release-"},
		{"-hotfix", "release-hotfix-"},
		{"hotfix", "release-hotfix-"},
		{"-hotfix-", "release-hotfix-"},
		{"---rc", "release-rc-"},
	}
	for _, tt := range tests {
		t.Run(tt.suffix, func(t *testing.T) {
			require.Equal(t, tt.want, BranchPrefix(ReleaseKind{Suffix: tt.suffix}))
		})
	}
}

func TestResolveFromString_DefaultKind(t *testing.T) {
	v, err := ResolveFromString(zap.NewNop().Sugar(), "release-1.0.0", []ReleaseKind{mainKind})
	require.NoError(t, err)
	require.Equal(t, "1.0.0", v.Number)
	require.Equal(t, "valhalla.yml", v.Kind.Filename)
}

func TestResolveFromString_SpecificKindWins(t *testing.T) {
	for _, kinds := range [][]ReleaseKind{
		{mainKind, hotfixKind},
		{hotfixKind, mainKind},
	} {
		v, err := ResolveFromString(zap.NewNop().Sugar(), "release-hotfix-1.2.3", kinds)
		require.NoError(t, err)
		require.Equal(t, "1.2.3", v.Number)
		require.Equal(t, "valhalla-hotfix.yml", v.Kind.Filename)
	}
}

func TestResolveFromString_LongestSpecificPrefixWins(t *testing.T) {
	short := ReleaseKind{Filename: "valhalla-hotfix.yml", Suffix: "-hotfix"}
	long := ReleaseKind{Filename: "valhalla-hotfix-lts.yml", Suffix: "-hotfix-lts"}

	v, err := ResolveFromString(zap.NewNop().Sugar(), "release-hotfix-lts-2.0.1", []ReleaseKind{short, long, mainKind})
	require.NoError(t, err)
	require.Equal(t, "2.0.1", v.Number)
	require.Equal(t, "valhalla-hotfix-lts.yml", v.Kind.Filename)
}

func TestResolveFromString_NoMatch(t *testing.T) {
	_, err := ResolveFromString(zap.NewNop().Sugar(), "release-1.2.3", []ReleaseKind{hotfixKind})
	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	require.Contains(t, err.Error(), "valhalla-hotfix.yml requires prefix release-hotfix-")
}

func TestResolveFromString_EmptyVersion(t *testing.T) {
	v, err := ResolveFromString(zap.NewNop().Sugar(), "release-", []ReleaseKind{mainKind})
	require.NoError(t, err)
	require.True(t, v.IsVersionEmpty())
	require.Equal(t, "valhalla.yml", v.ConfigFilePath())
}

func TestFromReleaseCommand(t *testing.T) {
	log := zap.NewNop().Sugar()

	v, err := FromReleaseCommand(log, "", []ReleaseKind{mainKind})
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = FromReleaseCommand(log, "release-hotfix-3.0.0", []ReleaseKind{mainKind, hotfixKind})
	require.NoError(t, err)
	require.Equal(t, "3.0.0", v.Number)

	_, err = FromReleaseCommand(log, "deploy-1.0.0", []ReleaseKind{mainKind})
	var prefixErr *PrefixError
	require.ErrorAs(t, err, &prefixErr)
}

func TestFromConfig(t *testing.T) {
	runner := &fakeRunner{RunFunc: func(_ context.Context, _ string) (executor.Result, error) {
		return executor.Result{Stdout: "  4.5.6\n"}, nil
	}}
	v := &VersionToRelease{Kind: mainKind}

	require.NoError(t, v.FromConfig(context.Background(), zap.NewNop().Sugar(), runner, "cat VERSION"))
	require.Equal(t, "4.5.6", v.Number)
	require.Equal(t, []string{"cat VERSION"}, runner.calls)
}

func TestFromConfig_BlankCommand(t *testing.T) {
	runner := &fakeRunner{}
	v := &VersionToRelease{Kind: mainKind}

	require.NoError(t, v.FromConfig(context.Background(), zap.NewNop().Sugar(), runner, "   "))
	require.True(t, v.IsVersionEmpty())
	require.Empty(t, runner.calls)
}

func TestFromConfig_Failure(t *testing.T) {
	v := &VersionToRelease{Kind: mainKind}

	failing := &fakeRunner{RunFunc: func(_ context.Context, _ string) (executor.Result, error) {
		return executor.Result{}, errors.New("boom")
	}}
	require.Error(t, v.FromConfig(context.Background(), zap.NewNop().Sugar(), failing, "x"))

	nonZero := &fakeRunner{RunFunc: func(_ context.Context, _ string) (executor.Result, error) {
		return executor.Result{ExitCode: 2}, nil
	}}
	require.Error(t, v.FromConfig(context.Background(), zap.NewNop().Sugar(), nonZero, "x"))
	require.True(t, v.IsVersionEmpty())
}
