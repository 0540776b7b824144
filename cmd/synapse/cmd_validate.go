package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"synapse/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file without running the pipeline",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	fmt.Printf("config %s is valid (target_count=%d pool_max=%d llm_provider=%s)\n",
		configPath, cfg.TargetCount, cfg.CandidatePoolMax, cfg.LLM.Provider)
	return nil
}
