package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/pipeline"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// exit terminates the process. The logger's comment circuit breaker uses
// it too.
var exit = os.Exit

const helpText = `valhalla is a toolkit designed to streamline the release of new versions of software.

Usage:
  valhalla              run the release, same as valhalla start
  valhalla start        run the release of the current release branch
  valhalla -h, --help   print this help
  valhalla --version    print the valhalla version

Docs: https://logchange.dev/tools/valhalla/
`

// newRootCmd builds the valhalla command tree. Running it without a
// subcommand starts the release.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "valhalla",
		Short:         "Release new versions of software from CI",
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rootRunE,
	}
	root.SetHelpFunc(func(c *cobra.Command, _ []string) {
		fmt.Fprint(c.OutOrStdout(), helpText)
	})
	root.AddCommand(newStartCmd())
	return root
}

func rootRunE(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Unknown command: %s\n", args[0])
		_ = cmd.Help()
		return &pipeline.ExitError{Code: 1, Err: fmt.Errorf("unknown command %q", args[0])}
	}
	return runRelease(cmd, args)
}

// Execute runs the root command and exits with the status of the release.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		// Errors of the release itself are already logged by the pipeline.
		var exitErr *pipeline.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		exit(pipeline.ExitCode(err))
	}
}
