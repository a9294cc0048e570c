package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// Owner and repository names follow the forge's conventions: alphanumerics
// and hyphens for owners, plus dots and underscores for repository names.
var (
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)
	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// ValidateOwner validates a repository owner (user or organization) name.
func ValidateOwner(owner string) error {
	if owner == "" {
		return New(ErrCodeInvalidRepo, "owner cannot be empty")
	}
	if !ownerPattern.MatchString(owner) {
		return New(ErrCodeInvalidRepo, "invalid owner name: %q", owner)
	}
	return nil
}

// ValidateRepoName validates a repository name for safety and correctness.
// It rejects names that could be used for path traversal or injection when
// interpolated into endpoint URLs.
func ValidateRepoName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRepo, "repository name cannot be empty")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRepo, "repository name contains control characters")
		}
	}

	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00") {
		return New(ErrCodeInvalidRepo, "repository name contains invalid characters: %q", name)
	}

	if !repoPattern.MatchString(name) {
		return New(ErrCodeInvalidRepo, "invalid repository name: %q", name)
	}
	return nil
}
