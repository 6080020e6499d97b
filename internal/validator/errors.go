package validator

import (
	"errors"
	"fmt"
)

// Kind classifies why model output was rejected.
type Kind int

const (
	KindMalformedOutput Kind = iota + 1
	KindSchemaViolation
	KindSemanticViolation
	KindDanglingReference
)

func (k Kind) String() string {
	switch k {
	case KindMalformedOutput:
		return "MalformedOutput"
	case KindSchemaViolation:
		return "SchemaViolation"
	case KindSemanticViolation:
		return "SemanticViolation"
	case KindDanglingReference:
		return "DanglingReference"
	default:
		return "Unknown"
	}
}

// Error is the single failure type returned by the validator.
// Field is set for schema violations, ID for dangling references.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
	ID     string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMalformedOutput:
		if e.Err != nil {
			return fmt.Sprintf("malformed output: %s: %v", e.Reason, e.Err)
		}
		return "malformed output: " + e.Reason
	case KindSchemaViolation:
		return fmt.Sprintf("schema violation at %s: %s", e.Field, e.Reason)
	case KindSemanticViolation:
		return "semantic violation: " + e.Reason
	case KindDanglingReference:
		return fmt.Sprintf("dangling reference %q: %s", e.ID, e.Reason)
	default:
		return "validation failed: " + e.Reason
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a validator error of the given kind.
func IsKind(err error, kind Kind) bool {
	var verr *Error
	return errors.As(err, &verr) && verr.Kind == kind
}

func malformed(reason string, err error) *Error {
	return &Error{Kind: KindMalformedOutput, Reason: reason, Err: err}
}

func schemaViolation(field, reason string) *Error {
	return &Error{Kind: KindSchemaViolation, Field: field, Reason: reason}
}

func semanticViolation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindSemanticViolation, Reason: fmt.Sprintf(format, args...)}
}

func danglingReference(id string) *Error {
	return &Error{Kind: KindDanglingReference, ID: id, Reason: "no consideration with this id"}
}
