package utils

import (
	"strings"
)

// Truncate returns a truncated string with "..." if it exceeds maxLen.
// This function is Unicode-safe, counting runes instead of bytes.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FirstRunes returns at most n runes of s.
func FirstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// BulletList renders items as a markdown bullet list.
func BulletList(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}
	return sb.String()
}
