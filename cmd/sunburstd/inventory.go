package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/io7m-com/sunburst/internal/inventory"
	"github.com/io7m-com/sunburst/internal/runtime"
)

func newInventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Open, initialize, and inspect an inventory",
	}
	cmd.AddCommand(newInventoryInitCmd())
	cmd.AddCommand(newInventoryStatusCmd())
	return cmd
}

func newInventoryInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade an inventory's on-disk layout and schema",
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
			fmt.Fprintf(cmd.OutOrStdout(), "inventory initialized at %s\n", baseDir)
			return nil
		},
	}
}

func newInventoryStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Load the runtime context and print its problem summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := resolveBaseDir(cmd)
			if err != nil {
				return err
			}
			inv, err := inventory.OpenReadOnly(baseDir, logger())
			if err != nil {
				return err
			}
			defer inv.Close()

			rc, err := runtime.Open(cmd.Context(), inv, runtime.StaticLoader{}, logger())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rc.Status().String())
			if rc.Status().IsFailed() {
				return fmt.Errorf("runtime context has unresolved problems")
			}
			return nil
		},
	}
}
