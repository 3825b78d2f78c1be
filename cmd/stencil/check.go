package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stencil/internal/cli"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and backend reachability",
	Long: `Check verifies the configured paths exist and probes the backend
liveness endpoint without submitting any work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, _, err := cli.NewGenerator(cmd)
		if err != nil {
			return err
		}

		issues := gen.Check(cmd.Context())
		if len(issues) == 0 {
			fmt.Println("ok")
			return nil
		}
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
		return fmt.Errorf("%d issue(s) found", len(issues))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
