package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/io7m-com/sunburst/internal/gc"
	"github.com/io7m-com/sunburst/internal/inventory"
)

func newGCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove blobs no package references",
	}
	cmd.AddCommand(newGCRunCmd())
	return cmd
}

func newGCRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a single sweep for unreferenced blobs and remove them",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := resolveBaseDir(cmd)
			if err != nil {
				return err
			}
			inv, err := inventory.OpenReadWrite(baseDir, logger())
			if err != nil {
				return err
			}
			defer inv.Close()

			sweeper := gc.New(inv, gc.Config{Logger: logger()})
			result, err := sweeper.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, removed %d\n", result.Scanned, result.Removed)
			return nil
		},
	}
}
