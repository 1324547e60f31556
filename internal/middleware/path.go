package middleware

import (
	"regexp"
	"strings"
)

var repeatedSlashes = regexp.MustCompile(`/{2,}`)

// NormalizePath reduces a request path to the form routes are matched on:
// no query or fragment, no repeated slashes, no leading or trailing slash.
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = repeatedSlashes.ReplaceAllString(strings.TrimSpace(path), "/")
	return strings.Trim(path, "/")
}
