// Package normalize provides canonical forms for issue numbers, titles and descriptions.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// IssueNumber returns the canonical form of an issue number so that both
// catalogs compare equal: "1", "01" and " 1 " all become "1".
//
// Leading zeros of the integer part are dropped ("0" stays "0"), trailing
// zeros of a decimal part are dropped ("1.50" -> "1.5", "2.0" -> "2"), and
// any non-numeric suffix is kept lowercased ("1AU" -> "1au"). Values with no
// leading digits are returned trimmed and lowercased.
func IssueNumber(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[:i]
	rest := s[i:]

	var frac string
	if len(rest) > 1 && rest[0] == '.' && isDigit(rest[1]) {
		j := 1
		for j < len(rest) && isDigit(rest[j]) {
			j++
		}
		frac = strings.TrimRight(rest[1:j], "0")
		rest = rest[j:]
	}

	if intPart == "" && frac == "" {
		return strings.ToLower(s)
	}

	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}

	out := intPart
	if frac != "" {
		out += "." + frac
	}
	return out + strings.ToLower(strings.TrimSpace(rest))
}

// PadIssue left-pads an issue number with zeros to three characters,
// so "1" becomes "001" and "1.5" stays "1.5".
func PadIssue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 {
		return s
	}
	return strings.Repeat("0", 3-len(s)) + s
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Title returns a case-folded, NFKC-normalized title with collapsed
// whitespace, suitable for case-insensitive exact comparison.
func Title(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

// SameTitle reports whether two titles are equal ignoring case and spacing.
func SameTitle(a, b string) bool {
	return Title(a) == Title(b)
}

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// Description converts an HTML series description to Markdown.
// Plain text is returned unchanged; so is the input if conversion fails.
func Description(s string) string {
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}

	return strings.TrimSpace(markdown)
}
