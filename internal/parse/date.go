package parse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrDateUnparsable is returned when a cell is not a usable spreadsheet date serial.
var ErrDateUnparsable = errors.New("date cell is not a valid spreadsheet date serial")

// maxDateSerial is 9999-12-31 in the 1900 date system; larger serials have no calendar date.
const maxDateSerial = 2958465

// ParseDate converts a spreadsheet date serial (1900 date system) to a UTC calendar date.
// Any time-of-day fraction is dropped.
func ParseDate(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty cell", ErrDateUnparsable)
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateUnparsable, cell)
	}
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial >= maxDateSerial+1 {
		return time.Time{}, fmt.Errorf("%w: %q out of range", ErrDateUnparsable, cell)
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrDateUnparsable, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
