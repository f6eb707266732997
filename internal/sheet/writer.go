package sheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/status"
)

const sheetName = "设备"

// Header matches the column layout the importer reads, so an export can be imported again.
var Header = []any{"序号", "部门名称", "设备名称", "设备型号", "设备编码", "状态", "购买日期", "备注"}

// dateNumFmt is the built-in "yyyy-mm-dd"-style short date format.
const dateNumFmt = 14

// ImportTemplate returns an empty workbook holding only the header row.
func ImportTemplate() (*bytes.Buffer, error) {
	return WriteEquipment(nil)
}

// WriteEquipment renders equipment rows in import layout. Equipment must have
// its Department loaded; a status outside 0..3 aborts the export.
func WriteEquipment(items []model.Equipment) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "H", 16); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: dateNumFmt})
	if err != nil {
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}

	for i, eq := range items {
		label, err := status.Translate(eq.Status)
		if err != nil {
			return nil, fmt.Errorf("equipment %d: %w", eq.ID, err)
		}

		var purchased any
		if eq.Date != nil {
			purchased = *eq.Date
		}
		var remark string
		if eq.Remark != nil {
			remark = *eq.Remark
		}

		row := []any{eq.ID, eq.Department.Name, eq.Name, eq.Model, eq.Code, label, purchased, remark}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}

		if eq.Date != nil {
			dateCell, err := excelize.CoordinatesToCellName(7, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(sheetName, dateCell, dateCell, dateStyle); err != nil {
				return nil, fmt.Errorf("failed to style date cell %s: %w", dateCell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
