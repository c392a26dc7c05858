package errors

import (
	"errors"
	"fmt"
	"strings"
)

// CycleSeparator joins package names when rendering a dependency cycle.
const CycleSeparator = " → "

// DependencyError reports a cycle in the plugin dependency graph.
type DependencyError struct {
	Package string   // Package whose edge closed the cycle
	Cycle   []string // Cycle path; first and last element are equal
}

func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, CycleSeparator))
	if e.Package != "" {
		msg += fmt.Sprintf(" (introduced by %s)", e.Package)
	}
	return msg
}

// Code returns ErrCodeDependency.
func (e *DependencyError) Code() Code { return ErrCodeDependency }

// ResourceLimitError reports a hard ceiling being exceeded.
type ResourceLimitError struct {
	LimitType string
	Current   int
	Maximum   int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("resource limit exceeded: %s (%d > %d)", e.LimitType, e.Current, e.Maximum)
}

// Code returns ErrCodeResourceLimit.
func (e *ResourceLimitError) Code() Code { return ErrCodeResourceLimit }

// ValidationError reports a manifest value of the wrong shape.
type ValidationError struct {
	Field    string // Offending field, e.g. "dependencies[2]"
	Value    string // Offending value as rendered from the document
	Expected string // Expected shape
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: got %s, expected %s", e.Field, e.Value, e.Expected)
}

// Code returns ErrCodeValidation.
func (e *ValidationError) Code() Code { return ErrCodeValidation }

// Details holds the structured fields of a typed error, for callers that
// render errors as data rather than text.
type Details struct {
	Package   string   `json:"package,omitempty"`
	Cycle     []string `json:"cycle,omitempty"`
	LimitType string   `json:"limitType,omitempty"`
	Current   int      `json:"current,omitempty"`
	Maximum   int      `json:"maximum,omitempty"`
	Field     string   `json:"field,omitempty"`
	Expected  string   `json:"expected,omitempty"`
}

// ExposedDetails returns the fields of the typed error in err's chain, or
// nil when there is none or the error is not exposed to callers.
func ExposedDetails(err error) *Details {
	switch GetCode(err) {
	case ErrCodeDependency, ErrCodeResourceLimit, ErrCodeValidation:
	default:
		return nil
	}

	var d *DependencyError
	if errors.As(err, &d) {
		return &Details{Package: d.Package, Cycle: d.Cycle}
	}
	var r *ResourceLimitError
	if errors.As(err, &r) {
		return &Details{LimitType: r.LimitType, Current: r.Current, Maximum: r.Maximum}
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return &Details{Field: v.Field, Expected: v.Expected}
	}
	return nil
}
