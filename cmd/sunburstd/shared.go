package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/io7m-com/sunburst/internal/config"
)

// resolveBaseDir returns the --base-dir flag's value if set, else falls
// back to config.Load()'s SUNBURST_BASE_DIR-driven resolution: flag
// overrides environment overrides default.
func resolveBaseDir(cmd *cobra.Command) (string, error) {
	explicit, err := cmd.Flags().GetString("base-dir")
	if err != nil {
		return "", err
	}
	if explicit != "" {
		return explicit, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.BaseDir, nil
}

func logger() *slog.Logger {
	return slog.Default()
}
