// Package utils holds small query and paging helpers shared by the HTTP
// handlers and the services behind them.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// valid integer. No trimming is applied.
//
//	utils.AtoiDefault("42", 0) // 42
//	utils.AtoiDefault("", 10)  // 10
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampLimit normalizes a page size: non-positive n becomes def and
// anything above upper is capped.
func ClampLimit(n, def, upper int) int {
	if n <= 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}

// PageSize parses a ?limit= value and clamps it in one step.
func PageSize(raw string, def, upper int) int {
	return ClampLimit(AtoiDefault(raw, 0), def, upper)
}
