package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stencil"
	"github.com/aretw0/stencil/internal/cli"
	"github.com/aretw0/stencil/pkg/adapters/httpapi"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full generation batch",
	Long: `Run iterates over every combination key the prompt source knows,
skipping combinations whose artifact already exists, and drives the rest
through submit, poll and download. Safe to interrupt and re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		template, _ := cmd.Flags().GetString("template")
		limit, _ := cmd.Flags().GetInt("limit")
		from, _ := cmd.Flags().GetString("from")
		keysFlag, _ := cmd.Flags().GetString("keys")

		cfg, logger, err := cli.Setup(cmd)
		if err != nil {
			return err
		}

		metrics := httpapi.NewMetrics()
		gen, err := stencil.New(cfg, stencil.WithLogger(logger), stencil.WithMetrics(metrics))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if cfg.Progress.Addr != "" {
			srv := httpapi.NewServer(gen.Journal(), metrics, logger)
			go func() {
				if err := srv.Serve(ctx, cfg.Progress.Addr); err != nil {
					logger.Warn("progress server stopped", "err", err)
				}
			}()
		}

		results, err := gen.Run(ctx, stencil.RunOptions{
			Template:  template,
			Keys:      stencil.SplitKeys(keysFlag),
			Limit:     limit,
			StartFrom: from,
		})
		if err != nil {
			return err
		}

		cli.PrintResults(os.Stdout, results)
		for _, ok := range results {
			if !ok {
				return fmt.Errorf("some combinations failed")
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("template", "", "Template name to compile (default from config)")
	runCmd.Flags().Int("limit", 0, "Cap the number of combinations attempted (0 = all)")
	runCmd.Flags().String("from", "", "Resume from the first key containing this substring")
	runCmd.Flags().String("keys", "", "Comma-separated combination keys (default: all known)")
	rootCmd.AddCommand(runCmd)
}
