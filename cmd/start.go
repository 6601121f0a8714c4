package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-valhalla/internal/logger"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/pipeline"
	"github.com/MyCarrier-DevOps/go-valhalla/internal/settings"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the release of the current release branch",
		Args:  cobra.NoArgs,
		RunE:  runRelease,
	}
}

func runRelease(cmd *cobra.Command, _ []string) error {
	// A missing token is reported by the pipeline once logging is set up.
	s, err := settings.Load(settings.EnvFile)
	if s == nil {
		return err
	}

	log, err := logger.New(cmd.OutOrStdout(), s.LogLevel, logger.WithToken(s.Token), logger.WithExit(exit))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	return pipeline.New(log, s).Run(cmd.Context())
}
