// Package utils provides shared utilities for text, math, and logging.
package utils

// Truncate returns s shortened to at most maxLen runes, with "..." appended
// when anything was cut. maxLen <= 0 returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
