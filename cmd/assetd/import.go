package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"asset-tracker-backend/internal/importer"
	"asset-tracker-backend/internal/sheet"
)

func newImportCmd(open func(*cobra.Command) (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import equipment rows from a workbook in one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := sheet.ReadRows(f)
			if err != nil {
				return err
			}

			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			count, err := importer.NewPipeline(a.store, a.logger).ImportAll(cmd.Context(), rows)
			if err != nil {
				return fmt.Errorf("import of %s failed, nothing was written: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d equipment rows from %s\n", count, args[0])
			return nil
		},
	}
}
