// Package utils holds small helpers with no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// valid integer. Handlers use it for page and page_size query params:
//
//	page := utils.AtoiDefault(c.DefaultQuery("page", "1"), 1)
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
