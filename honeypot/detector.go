package honeypot

import (
	"regexp"
	"strings"
)

// Detection is the result of classifying a raw cache key.
type Detection struct {
	// IsHoneypot is true when the key exactly matches a decoy key.
	IsHoneypot bool

	// IsSuspicious is true for honeypot matches and pattern matches alike.
	IsSuspicious bool

	// MatchedPattern is the source of the first suspicious pattern that
	// matched, for diagnostics. Empty for honeypot-only matches.
	MatchedPattern string

	// Reason describes why the key was flagged.
	Reason string
}

// Severity tiers for a detection.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityLow      = "low"
)

// honeypotKeys are decoy keys no legitimate caller ever reads or writes.
// They mirror the targets scanners probe for: credentials, configuration,
// API secrets, system files, database dumps, and backups.
var honeypotKeys = map[string]struct{}{
	"admin:password":        {},
	"admin:credentials":     {},
	"admin:session":         {},
	"admin:token":           {},
	"root:password":         {},
	"config:secret":         {},
	"config:database":       {},
	"config:env":            {},
	"config:production":     {},
	"api:secret_key":        {},
	"api:private_key":       {},
	"api:master_key":        {},
	"jwt:secret":            {},
	"jwt:signing_key":       {},
	"auth:master_password":  {},
	"system:passwd":         {},
	"system:shadow":         {},
	"etc:passwd":            {},
	"etc:shadow":            {},
	"database:dump":         {},
	"database:credentials":  {},
	"db:root_password":      {},
	"backup:full":           {},
	"backup:database":       {},
	"backup:site":           {},
	"wp:admin_password":     {},
	"aws:secret_access_key": {},
	"ssh:private_key":       {},
	"session:master":        {},
}

// suspiciousPatterns are tested in order; the first match is reported.
var suspiciousPatterns = []*regexp.Regexp{
	// SQL injection tokens
	regexp.MustCompile(`(?i)\b(union\s+select|select\s+.*\bfrom\b|insert\s+into|drop\s+table|delete\s+from|update\s+.*\bset\b|exec(ute)?\s)`),
	regexp.MustCompile(`(?i)('\s*(or|and)\s+'?\d|--\s|;\s*--)`),
	// Path traversal, plain and percent-encoded
	regexp.MustCompile(`\.\.[\\/]`),
	regexp.MustCompile(`(?i)%2e%2e(%2f|%5c|[\\/])`),
	// Shell and command injection metacharacters
	regexp.MustCompile("(?i)[;&|`]\\s*(cat|ls|rm|wget|curl|bash|sh|nc|chmod|eval)\\b"),
	regexp.MustCompile(`\$\((.*)\)`),
	// XSS and script tags
	regexp.MustCompile(`(?i)<\s*script|javascript:|on(error|load|click)\s*=`),
	// Dangerous file extensions
	regexp.MustCompile(`(?i)\.(php[3-8]?|phtml|asp|aspx|jsp|jspx|cgi|exe|dll|bat|cmd)\b`),
	// Known web-shell filenames
	regexp.MustCompile(`(?i)\b(c99|r57|b374k|wso|webshell|backdoor|adminer|phpshell)\b`),
	// Percent-encoded script and null-byte sequences
	regexp.MustCompile(`(?i)%3c\s*script|%00|\x00`),
}

// IsHoneypotKey reports whether key exactly matches a decoy key.
// Matching is case-insensitive and ignores surrounding whitespace.
func IsHoneypotKey(key string) bool {
	_, ok := honeypotKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MatchSuspicious tests key against the suspicious pattern list and
// returns the first matching pattern's source.
func MatchSuspicious(key string) (bool, string) {
	for _, re := range suspiciousPatterns {
		if re.MatchString(key) {
			return true, re.String()
		}
	}
	return false, ""
}

// Detect classifies a raw key. A honeypot match takes priority over a
// pattern match and is always reported as suspicious too.
func Detect(key string) Detection {
	if IsHoneypotKey(key) {
		return Detection{
			IsHoneypot:   true,
			IsSuspicious: true,
			Reason:       "Honeypot key accessed",
		}
	}
	if matched, pattern := MatchSuspicious(key); matched {
		return Detection{
			IsSuspicious:   true,
			MatchedPattern: pattern,
			Reason:         "Suspicious pattern in key",
		}
	}
	return Detection{}
}

// Severity maps a detection to a severity tier: critical for honeypot
// hits, high for suspicious patterns, low otherwise.
func Severity(d Detection) string {
	switch {
	case d.IsHoneypot:
		return SeverityCritical
	case d.IsSuspicious:
		return SeverityHigh
	default:
		return SeverityLow
	}
}

// Keys returns the number of registered honeypot keys.
func Keys() int {
	return len(honeypotKeys)
}
