// Package utils provides common utility functions.
package utils

import "strings"

// TrimPrefixFold removes prefix from s, ignoring ASCII and Unicode case.
func TrimPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):]
	}

	return s
}

// CutSuffixFold removes suffix from s, ignoring case, and reports whether it was present.
func CutSuffixFold(s, suffix string) (string, bool) {
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)], true
	}

	return s, false
}

// TrimSuffixFold removes suffix from s, ignoring case.
func TrimSuffixFold(s, suffix string) string {
	trimmed, _ := CutSuffixFold(s, suffix)

	return trimmed
}

// ContainsAll reports whether s contains every one of substrs.
func ContainsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}

	return true
}

// NormalizeWhitespace replaces runs of whitespace with a single space.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}
