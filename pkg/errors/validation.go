package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePattern validates a user-supplied dependency selector.
func ValidatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return New(ErrCodeUsage, "dependency pattern cannot be empty")
	}

	if len(pattern) > 512 {
		return New(ErrCodeUsage, "dependency pattern too long (max 512 characters)")
	}

	for _, r := range pattern {
		if unicode.IsControl(r) {
			return New(ErrCodeUsage, "dependency pattern contains invalid control characters")
		}
	}

	return nil
}

// githubNameRegex matches valid GitHub owner and repository names.
var githubNameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateGitHubName validates an owner or repository name before it is
// interpolated into API paths and clone URLs.
func ValidateGitHubName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidDeclaration, "%s cannot be empty", kind)
	}

	if len(name) > 100 {
		return New(ErrCodeInvalidDeclaration, "%s too long (max 100 characters)", kind)
	}

	if name == "." || name == ".." || !githubNameRegex.MatchString(name) {
		return New(ErrCodeInvalidDeclaration, "invalid GitHub %s: %q", kind, name)
	}

	return nil
}

// ValidateScheme validates a URL scheme override.
func ValidateScheme(scheme string) error {
	if scheme != "http" && scheme != "https" {
		return New(ErrCodeInvalidDeclaration, "scheme must be http or https, got %q", scheme)
	}
	return nil
}

// ValidateHost validates a host[:port] override.
func ValidateHost(host string) error {
	if host == "" {
		return New(ErrCodeInvalidDeclaration, "host cannot be empty")
	}

	if strings.ContainsAny(host, "/\\?#@ ") {
		return New(ErrCodeInvalidDeclaration, "host contains invalid characters: %q", host)
	}

	for _, r := range host {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDeclaration, "host contains invalid control characters")
		}
	}

	return nil
}
