package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stencil/internal/cli"
)

var runOneCmd = &cobra.Command{
	Use:   "run-one <key>",
	Short: "Generate a single combination",
	Long: `Run-one drives exactly one combination key (e.g. "1_3") through the
pipeline. The key's artifact is regenerated only if it does not exist yet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, _, err := cli.NewGenerator(cmd)
		if err != nil {
			return err
		}

		ok, err := gen.RunOne(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("combination %s failed", args[0])
		}
		fmt.Printf("combination %s generated\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runOneCmd)
}
