package stats

import (
	"fmt"
	"strings"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
)

// RepositoryRef identifies one repository on the forge. It is immutable:
// created once per snapshot request and never mutated.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseRef parses "owner/name" into a validated RepositoryRef.
func ParseRef(s string) (RepositoryRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return RepositoryRef{}, ferrors.New(ferrors.ErrCodeInvalidRepo,
			"expected owner/name, got %q", s)
	}
	ref := RepositoryRef{Owner: owner, Name: name}
	if err := ref.Validate(); err != nil {
		return RepositoryRef{}, err
	}
	return ref, nil
}

// Validate checks both components against the forge's naming rules.
func (r RepositoryRef) Validate() error {
	if err := ferrors.ValidateOwner(r.Owner); err != nil {
		return err
	}
	return ferrors.ValidateRepoName(r.Name)
}

// String returns the canonical "owner/name" form.
func (r RepositoryRef) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}
