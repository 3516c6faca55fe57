package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/joho/godotenv/autoload"

	"github.com/euler-vision/eulerbox"
	"github.com/euler-vision/eulerbox/cli"
	eulerotel "github.com/euler-vision/eulerbox/otel"
	"github.com/euler-vision/eulerbox/registry"
	"github.com/euler-vision/eulerbox/tools"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	rootCmd, err := newRootCmd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "eulerbox: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func newRootCmd() (*cobra.Command, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger, err := cli.NewLogger(level)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	if err := tools.RegisterAll(reg, tools.Defaults(logger), logger); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	// The global providers are no-ops unless an SDK is installed; the
	// observer stays cheap either way.
	observer, err := eulerotel.NewToolObserver(
		otel.Meter("eulerbox"),
		otel.Tracer("eulerbox"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating observer: %w", err)
	}

	rootCmd := &cobra.Command{
		Use:   "eulerbox",
		Short: "Euler dataset-processing toolbox",
		Long:  "eulerbox — a CLI toolbox for sampling, splitting, and fog-simulating multi-modal datasets.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if readme, _ := cmd.Flags().GetBool("readme"); readme {
				fmt.Fprint(cmd.OutOrStdout(), eulerbox.README)
				return nil
			}
			return cmd.Help()
		},
	}
	rootCmd.Flags().Bool("readme", false, "Print the README and exit.")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("eulerbox version %s\n", version))

	rootCmd.AddCommand(cli.NewRunCmd(reg, logger, level, observer))
	rootCmd.AddCommand(cli.NewSchemaCmd(reg))
	rootCmd.AddCommand(cli.NewListCmd(reg))

	return rootCmd, nil
}
