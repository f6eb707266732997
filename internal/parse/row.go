package parse

import "time"

// Column positions in the import sheet. Column 0 is a sequence number and
// column 5 carries a status that the import deliberately ignores.
const (
	ColDepartment = 1
	ColName       = 2
	ColModel      = 3
	ColCode       = 4
	ColStatus     = 5
	ColDate       = 6
)

// Row is one raw sheet row as returned by the spreadsheet reader.
type Row []string

// ImportRow holds the typed fields extracted from one sheet row.
type ImportRow struct {
	DepartmentName string
	Name           string
	Model          string
	Code           string
	Date           *time.Time // nil when the date cell was empty or unparsable
}

// Cell returns the value at index i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// ParseRow extracts an ImportRow. It never rejects a row: missing cells
// become empty strings and a bad date cell becomes an absent date.
func ParseRow(r Row) ImportRow {
	row := ImportRow{
		DepartmentName: NormalizeName(r.Cell(ColDepartment)),
		Name:           r.Cell(ColName),
		Model:          r.Cell(ColModel),
		Code:           r.Cell(ColCode),
	}
	if d, err := ParseDate(r.Cell(ColDate)); err == nil {
		row.Date = &d
	}
	return row
}
