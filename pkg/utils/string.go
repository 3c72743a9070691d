// Package utils provides common text helpers shared by the lead pipeline.
package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fold returns s in composed Unicode form, trimmed and lowercased, so that
// "Válido" typed on different keyboards compares equal.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// ContainsFold reports whether s contains substr, ignoring case and Unicode
// composition. An empty substr never matches.
func ContainsFold(s, substr string) bool {
	needle := Fold(substr)
	if needle == "" {
		return false
	}

	return strings.Contains(strings.ToLower(norm.NFC.String(s)), needle)
}

// ContainsAnyFold reports whether s contains any of the markers.
func ContainsAnyFold(s string, markers []string) bool {
	for _, m := range markers {
		if ContainsFold(s, m) {
			return true
		}
	}

	return false
}

// TruncateString truncates str to maxRunes runes.
func TruncateString(str string, maxRunes int) string {
	runes := []rune(str)
	if len(runes) <= maxRunes {
		return str
	}

	return string(runes[:maxRunes]) + "..."
}
