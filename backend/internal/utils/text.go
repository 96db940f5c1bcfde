package utils

import (
	"strings"
	"time"
	"unicode/utf8"
)

// memoryDateLayouts are the ISO 8601 shapes accepted for a memory date, most
// specific first. The web client sends plain dates from a date input; older
// clients sent full timestamps.
var memoryDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseMemoryDate parses an ISO 8601 date or datetime string
func ParseMemoryDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range memoryDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Truncate shortens s to at most limit runes, appending "..." when anything was cut
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// UniqueStrings returns the non-empty values of in, trimmed, keeping the
// first occurrence of each
func UniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
