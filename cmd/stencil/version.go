package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stencil"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stencil version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stencil version %s\n", stencil.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
