package utils

import "strings"

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Preview returns the first limit runes of s followed by "..." unconditionally.
func Preview(s string, limit int) string {
	runes := []rune(s)
	if limit >= 0 && len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}
