package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stencil",
	Short: "Stencil drives batch image generation against a ComfyUI backend",
	Long: `Stencil compiles visual graph templates into backend jobs, injects
per-combination prompts and reference images, and runs every combination to
completion with resumable skipping.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("workspace", ".", "Workspace directory with the conventional data/outputs layout")
	rootCmd.PersistentFlags().String("config", "", "Path to a stencil.yaml overriding the workspace defaults")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
