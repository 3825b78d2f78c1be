// Package cli holds the shared wiring between the cobra commands and the
// stencil library: flag resolution, logger construction and result output.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aretw0/stencil"
	"github.com/aretw0/stencil/internal/logging"
	"github.com/aretw0/stencil/pkg/config"
)

// Setup resolves the persistent flags into a Config and a logger.
func Setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	workspace, _ := cmd.Flags().GetString("workspace")
	configPath, _ := cmd.Flags().GetString("config")
	levelName, _ := cmd.Flags().GetString("log-level")

	logger := logging.New(ParseLevel(levelName))

	cfg := config.Default(workspace)
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, logger, err
		}
		cfg = loaded
	}
	return cfg, logger, nil
}

// NewGenerator builds a Generator from resolved flags, treating any failure
// as a configuration error (non-zero exit at the command layer).
func NewGenerator(cmd *cobra.Command) (*stencil.Generator, *slog.Logger, error) {
	cfg, logger, err := Setup(cmd)
	if err != nil {
		return nil, logger, err
	}
	gen, err := stencil.New(cfg, stencil.WithLogger(logger))
	if err != nil {
		return nil, logger, err
	}
	return gen, logger, nil
}

// ParseLevel maps a flag value to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PrintResults writes the per-key outcome table and a summary line.
func PrintResults(w io.Writer, results map[string]bool) {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	succeeded := 0
	for _, k := range keys {
		mark := "FAIL"
		if results[k] {
			mark = "ok"
			succeeded++
		}
		fmt.Fprintf(w, "  %-24s %s\n", k, mark)
	}
	fmt.Fprintf(w, "generated %d/%d combinations\n", succeeded, len(results))
}
