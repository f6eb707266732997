// Package status maps equipment status codes to their display labels.
//
// The four codes and labels are part of the audit payload format and of the
// admin API; they must not change between releases.
package status

import (
	"errors"
	"fmt"
)

const (
	New         = 0
	InUse       = 1
	UnderRepair = 2
	Retired     = 3
)

// ErrUnknownStatus means a status code outside 0..3 reached a translation.
var ErrUnknownStatus = errors.New("unknown equipment status")

var labels = [...]string{
	New:         "新增",
	InUse:       "使用中",
	UnderRepair: "维修中",
	Retired:     "报废",
}

// Entry is one code/label pair.
type Entry struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// Translate returns the display label for code.
func Translate(code int) (string, error) {
	if !Valid(code) {
		return "", fmt.Errorf("%w: %d", ErrUnknownStatus, code)
	}
	return labels[code], nil
}

// Valid reports whether code is one of the four known statuses.
func Valid(code int) bool {
	return code >= 0 && code < len(labels)
}

// All lists every status in code order.
func All() []Entry {
	entries := make([]Entry, 0, len(labels))
	for code, label := range labels {
		entries = append(entries, Entry{Code: code, Label: label})
	}
	return entries
}
