package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"synapse/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the engine version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(config.DefaultConfig().Version)
		return nil
	},
}
