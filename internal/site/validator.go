// File: internal/site/validator.go
package site

import (
	"regexp"
	"strings"
)

// Domain validation is purely syntactic: no DNS resolution, no network I/O.
var (
	localhostPattern = regexp.MustCompile(`^localhost(:\d{1,5})?$`)
	hostnamePattern  = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}(?::\d{1,5})?$`)
)

// NormalizeDomain prepares a user-supplied domain for validation and storage.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// IsValidDomain reports whether a candidate domain string is acceptable.
// Rules are applied in order; the first violation rejects:
//  1. empty values are invalid
//  2. URL schemes and path separators are invalid (a domain, not a URL)
//  3. the first character must be a lowercase ASCII letter
//  4. localhost, with an optional port, is accepted as-is
//  5. anything else must be a dotted DNS hostname ending in an alphabetic
//     TLD of at least two letters, with an optional port
func IsValidDomain(domain string) bool {
	if domain == "" {
		return false
	}
	lowered := strings.ToLower(domain)
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") || strings.Contains(domain, "/") {
		return false
	}
	first := domain[0]
	if first < 'a' || first > 'z' {
		return false
	}
	if localhostPattern.MatchString(domain) {
		return true
	}
	return hostnamePattern.MatchString(domain)
}
