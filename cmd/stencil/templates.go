package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stencil/internal/cli"
	"github.com/aretw0/stencil/pkg/adapters/file"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available graph templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := cli.Setup(cmd)
		if err != nil {
			return err
		}

		names, err := file.NewTemplateLoader(cfg.Paths.Templates).List()
		if err != nil {
			return err
		}
		for _, name := range names {
			marker := " "
			if name == cfg.Batch.Template {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
