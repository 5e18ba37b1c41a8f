// Package sanitize redacts sensitive substrings from text before it
// leaves the process boundary. The filter is deliberately conservative:
// over-redaction is acceptable, leaking is not.
package sanitize

import (
	"regexp"
	"unicode/utf8"
)

const maxContentLength = 8000

var (
	// key = value / key: "value" pairs whose key looks secret-like.
	secretAssignment = regexp.MustCompile(`(?i)(api_key|apikey|password|passwd|secret|token|access_key|private_key|key)\s*[:=]\s*["']?[^\s"',;]+["']?`)
	bearerToken      = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`)
	bareURL          = regexp.MustCompile(`https?://[^\s]+`)
	emailAddress     = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// Sanitize deterministically replaces secret-shaped spans with fixed
// placeholders and truncates overlong content. It never fails.
func Sanitize(content string) string {
	if content == "" {
		return ""
	}
	content = secretAssignment.ReplaceAllString(content, "$1: [REDACTED]")
	content = bearerToken.ReplaceAllString(content, "[REDACTED]")
	content = bareURL.ReplaceAllString(content, "[URL]")
	content = emailAddress.ReplaceAllString(content, "[EMAIL]")

	if len(content) > maxContentLength {
		cut := maxContentLength
		// Back off to a rune boundary so the cut never emits invalid UTF-8.
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut] + "... [truncated]"
	}
	return content
}
