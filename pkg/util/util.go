package util

import "strings"

// DefaultIfBlank trims value and returns fallback if nothing remains.
func DefaultIfBlank(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
