package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/sheet"
	"asset-tracker-backend/internal/store"
)

func newExportCmd(open func(*cobra.Command) (*app, error)) *cobra.Command {
	var departmentID int64

	cmd := &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Write all equipment to a workbook in import layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			var items []model.Equipment
			filter := store.EquipmentFilter{DepartmentID: departmentID, Limit: 500}
			for {
				page, total, err := a.store.ListEquipment(cmd.Context(), filter)
				if err != nil {
					return err
				}
				items = append(items, page...)
				filter.Offset += len(page)
				if len(page) == 0 || int64(filter.Offset) >= total {
					break
				}
			}

			buf, err := sheet.WriteEquipment(items)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d equipment rows to %s\n", len(items), args[0])
			return nil
		},
	}

	cmd.Flags().Int64Var(&departmentID, "department", 0, "Only export equipment of this department ID")
	return cmd
}
