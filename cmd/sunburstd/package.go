package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/io7m-com/sunburst/internal/inventory"
)

func newPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Inspect packages in the catalog",
	}
	cmd.AddCommand(newPackageListCmd())
	return cmd
}

func newPackageListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every package identifier in the catalog",
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

			tx, err := inv.BeginReadOnly(cmd.Context())
			if err != nil {
				return err
			}
			defer tx.Close()
			rows, err := tx.Packages(cmd.Context())
			if err != nil {
				return err
			}
			for _, row := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", row.Identifier.String(), row.Updated.Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}
}
