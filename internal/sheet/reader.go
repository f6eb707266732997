// Package sheet reads and writes the equipment workbook format.
package sheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"asset-tracker-backend/internal/parse"
)

// ErrNoSheet is returned for a workbook without any worksheet.
var ErrNoSheet = errors.New("workbook has no sheets")

// ReadRows returns every row of the first worksheet, header included.
// Cell values are raw so date cells come back as their numeric serial.
func ReadRows(r io.Reader) ([]parse.Row, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheet
	}

	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", sheetName, err)
	}

	rows := make([]parse.Row, len(raw))
	for i, cells := range raw {
		rows[i] = parse.Row(cells)
	}
	return rows, nil
}
