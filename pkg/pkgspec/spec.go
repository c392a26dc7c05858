// Package pkgspec parses package identifiers such as "name", "name@1.2.3"
// and "@scope/name@^2.0.0" into a name and an optional version constraint.
package pkgspec

import (
	"strings"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
)

// Spec identifies a package and, optionally, the version constraint it was
// requested with. An empty Constraint means "any version".
type Spec struct {
	Name       string `json:"name"`
	Constraint string `json:"versionConstraint,omitempty"`
}

// Parse splits identifier on the last unescaped "@" that is not the leading
// scope marker. A backslash-escaped "\@" is kept as a literal "@" in the name.
func Parse(identifier string) (Spec, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return Spec{}, errors.New(errors.ErrCodeInvalidInput, "package identifier cannot be empty")
	}

	sep := -1
	for i := len(id) - 1; i > 0; i-- {
		if id[i] == '@' && id[i-1] != '\\' {
			sep = i
			break
		}
	}

	name, constraint := id, ""
	if sep > 0 {
		name, constraint = id[:sep], strings.TrimSpace(id[sep+1:])
	}
	name = strings.ReplaceAll(name, `\@`, "@")
	constraint = strings.ReplaceAll(constraint, `\@`, "@")

	if name == "" || name == "@" || strings.HasSuffix(name, "/") {
		return Spec{}, errors.New(errors.ErrCodeInvalidInput, "invalid package identifier: %q", identifier)
	}
	if strings.HasPrefix(name, "@") && !strings.Contains(name, "/") {
		return Spec{}, errors.New(errors.ErrCodeInvalidInput, "scoped package identifier missing name: %q", identifier)
	}
	return Spec{Name: name, Constraint: constraint}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(identifier string) Spec {
	s, err := Parse(identifier)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseAll parses every identifier, failing on the first invalid one.
func ParseAll(identifiers []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(identifiers))
	for _, id := range identifiers {
		s, err := Parse(id)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// String renders the spec in installer argument form.
func (s Spec) String() string {
	if s.Constraint == "" {
		return s.Name
	}
	return s.Name + "@" + s.Constraint
}

// Names returns the package names of specs in order.
func Names(specs []Spec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// Strings renders every spec with String.
func Strings(specs []Spec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.String()
	}
	return out
}

// IsLocalPath reports whether s refers to a directory on disk rather than a
// registry package.
func IsLocalPath(s string) bool {
	for _, p := range []string{"./", "../", "/", "~/", "file:"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
