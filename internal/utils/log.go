package utils

import "strings"

// TruncateForLog flattens s onto one line and shortens it to limit runes, appending an
// ellipsis when truncated. Prompts and model answers span many lines; a log entry should not.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(strings.Join(strings.Fields(s), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
