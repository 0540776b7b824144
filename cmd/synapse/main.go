// Package main implements the synapse CLI - the ambient entry point around
// the pipeline engine.
//
// # File Index
//
//   - main.go       - entry point, rootCmd, global flags, init()
//   - cmd_run.go    - runCmd, buildDependencies(), defaultFacetFallback()
//   - cmd_validate.go - validateCmd
//   - cmd_version.go  - versionCmd
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"synapse/internal/logging"
)

var (
	// Global flags.
	verbose    bool
	configPath string
	timeout    time.Duration

	// logger is the operator-facing console logger, distinct from the
	// categorized file logger in internal/logging.
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "synapse builds a semantic graph of related search queries from a seed phrase",
	Long: `synapse runs the graph-expansion pipeline against a seed search phrase:
candidate generation, intent extraction, synapse classification, selection,
clustering, and artifact emission.

Run "synapse run <seed>" to execute a pipeline run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws, _ := os.Getwd()
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "synapse.yaml", "path to config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "override the configured run deadline")

	runCmd.Flags().StringVar(&runLanguage, "language", "en", "seed phrase language code")
	runCmd.Flags().StringVar(&runMarket, "market", "us", "seed phrase market code")
	runCmd.Flags().StringVar(&runOutput, "output", "", "write artifacts to this directory instead of stdout")
	runCmd.Flags().BoolVar(&runPretty, "pretty", true, "pretty-print JSON output")

	rootCmd.AddCommand(runCmd, validateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
