package util

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var markupTags = regexp.MustCompile(`<[^>]*>`)

// SanitizeParam strips markup and invisible characters from a path parameter
// and HTML-escapes what is left.
func SanitizeParam(raw string) string {
	builder := strings.Builder{}
	builder.Grow(len(raw))

	for _, char := range raw {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	stripped := markupTags.ReplaceAllString(builder.String(), "")
	return html.EscapeString(strings.TrimSpace(stripped))
}

func SanitizeParams(raw []string) []string {
	out := make([]string, len(raw))
	for i, value := range raw {
		out[i] = SanitizeParam(value)
	}
	return out
}

func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF': // Zero-Width No-Break Space / BOM
		return true
	}
	return false
}
