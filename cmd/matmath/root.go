package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/born-ml/matmath/internal/gpu"
)

func newRootCmd() *cobra.Command {
	cfg := &config{}
	root := &cobra.Command{
		Use:          "matmath",
		Short:        "Matrix kernels on the CPU and on compute devices",
		SilenceUsage: true,
	}
	cfg.bindFlags(root.PersistentFlags())

	root.AddCommand(
		newVersionCmd(),
		newDevicesCmd(cfg),
		newSelftestCmd(cfg),
		newBenchCmd(cfg),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("matmath %s\n", version)
		},
	}
}

// session opens the configured device for a command.
func session(cmd *cobra.Command, cfg *config) (*gpu.Context, zerolog.Logger, error) {
	logger, err := cfg.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, logger, err
	}
	c, err := openDevice(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return nil, logger, err
	}
	return c, logger, nil
}

// closeDevice closes c and logs a failure.
func closeDevice(c *gpu.Context, logger zerolog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error().Err(err).Msg("close device")
	}
}
