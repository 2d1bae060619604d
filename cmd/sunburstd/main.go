// Command sunburstd is the ambient CLI entry point wiring the
// inventory core together. It opens an Inventory, loads a
// runtime.Context, and exposes a handful of subcommands for operating
// on them; it is not a build-tool plug-in front-end, which would
// consume this core as a library.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sunburstd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sunburstd",
		Short: "Operate a Sunburst asset inventory",
	}
	root.PersistentFlags().String("base-dir", "", "inventory base directory (overrides SUNBURST_BASE_DIR)")
	root.AddCommand(newInventoryCmd())
	root.AddCommand(newBlobCmd())
	root.AddCommand(newPackageCmd())
	root.AddCommand(newGCCmd())
	return root
}
