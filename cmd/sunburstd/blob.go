package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/inventory"
)

func newBlobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Add and inspect content-addressed blobs",
	}
	cmd.AddCommand(newBlobAddCmd())
	cmd.AddCommand(newBlobListCmd())
	return cmd
}

func newBlobAddCmd() *cobra.Command {
	var contentType string
	var algorithm string
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Hash and store a file's content, printing the resulting ALGO:HEX hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := resolveBaseDir(cmd)
			if err != nil {
				return err
			}
			algo, err := identity.ParseHashAlgorithm(algorithm)
			if err != nil {
				return err
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			digest := algo.New()
			if _, err := io.Copy(digest, f); err != nil {
				return err
			}
			hash, err := identity.NewHash(algo, digest.Sum(nil))
			if err != nil {
				return err
			}
			blob, err := identity.NewBlob(uint64(info.Size()), contentType, hash)
			if err != nil {
				return err
			}

			if _, err := f.Seek(0, 0); err != nil {
				return err
			}
			inv, err := inventory.OpenReadWrite(baseDir, logger())
			if err != nil {
				return err
			}
			defer inv.Close()

			tx, err := inv.BeginReadWrite(cmd.Context())
			if err != nil {
				return err
			}
			defer tx.Close()
			if err := tx.AddBlob(cmd.Context(), blob, f); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "application/octet-stream", "MIME content type to record for the blob")
	cmd.Flags().StringVar(&algorithm, "algorithm", identity.SHA2_256.Text, "hash algorithm to use")
	return cmd
}

func newBlobListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every blob in the catalog",
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
			rows, err := tx.BlobList(cmd.Context())
			if err != nil {
				return err
			}
			for _, row := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", row.Blob.Hash.String(), row.Blob.Size, row.Blob.ContentType)
			}
			return nil
		},
	}
}
