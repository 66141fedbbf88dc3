package site

import (
	"fmt"
	"strings"
)

// ColumnLength is the number of values one column produced.
type ColumnLength struct {
	Column Column
	Len    int
}

// ExtractionError reports a page whose columns cannot form records: their
// lengths differ, or a row lacks a case name.
type ExtractionError struct {
	CourtID string
	Lengths []ColumnLength
	Reason  string
}

func (e *ExtractionError) Error() string {
	parts := make([]string, len(e.Lengths))
	for i, l := range e.Lengths {
		parts[i] = fmt.Sprintf("%s=%d", l.Column, l.Len)
	}
	return fmt.Sprintf("site %s: %s (%s)", e.CourtID, e.Reason, strings.Join(parts, ", "))
}
