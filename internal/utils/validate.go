package utils

import (
    "regexp"
    "strings"
)

// usernamePattern allows 3–20 characters: ASCII letters, digits, underscore,
// hyphen and the Swedish letters åäöÅÄÖ.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_åäöÅÄÖ-]{3,20}$`)

// blankLines matches runs of two or more consecutive newlines.
var blankLines = regexp.MustCompile(`\n\n+`)

const (
    maxContentLength = 500
    maxContentLines  = 7
)

// ValidUsername reports whether a username satisfies the format policy.
func ValidUsername(username string) bool {
    return usernamePattern.MatchString(username)
}

// SanitizeContent collapses blank-line runs into single newlines and
// trims surrounding whitespace.
func SanitizeContent(s string) string {
    return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n"))
}

// ValidateContent checks a sanitized content string against the
// content policy and returns one message per violated rule.  An empty
// slice means the content is acceptable.
func ValidateContent(s string) []string {
    var errs []string
    if strings.TrimSpace(s) == "" {
        errs = append(errs, "Content is required")
    }
    if len([]rune(s)) > maxContentLength {
        errs = append(errs, "Content is too long (max 500 characters)")
    }
    if strings.Count(s, "\n") > maxContentLines-1 {
        errs = append(errs, "Content cannot contain more than 7 new lines")
    }
    return errs
}
