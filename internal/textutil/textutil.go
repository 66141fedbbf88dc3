package textutil

import "strings"

// CollapseSpace trims s and folds every run of whitespace into one space.
// Whitespace is Unicode whitespace, so non-breaking spaces from &nbsp; fold
// too.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripSpace removes all whitespace from s.
func StripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
