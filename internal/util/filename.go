// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
)

var (
	// Matches characters that are unsafe in file or folder names on common filesystems.
	unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Matches runs of whitespace.
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SafeFilename turns a display title into a single path component.
//
// Normalization rules:
//  1. Replace path separators and reserved characters with spaces
//  2. Collapse whitespace
//  3. Trim leading/trailing spaces and dots
//  4. Fall back to "untitled" when nothing is left
//
// Examples:
//
//	"Saga"                 → "Saga"
//	"AC/DC: Live"          → "AC DC Live"
//	"What If...?"          → "What If"
//	"  ../..  "            → "untitled"
func SafeFilename(input string) string {
	s := unsafeFilenameRe.ReplaceAllString(input, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")
	if s == "" {
		return "untitled"
	}
	return s
}
