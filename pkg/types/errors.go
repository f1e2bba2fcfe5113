package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a configuration defect
type ErrorKind string

const (
	KindConflictingAliasFields     ErrorKind = "ConflictingAliasFields"
	KindMissingLocationSource      ErrorKind = "MissingLocationSource"
	KindIncompleteCertificate      ErrorKind = "IncompleteCertificate"
	KindUnknownRateLimitZone       ErrorKind = "UnknownRateLimitZone"
	KindConflictingRateLimitZone   ErrorKind = "ConflictingRateLimitZone"
	KindConflictingUpstreamOptions ErrorKind = "ConflictingUpstreamOptions"
	KindInvalidBackend             ErrorKind = "InvalidBackend"
	KindInvalidField               ErrorKind = "InvalidField"
)

// Sentinels for errors.Is, one per kind
var (
	ErrConflictingAliasFields     = errors.New("conflicting alias fields")
	ErrMissingLocationSource      = errors.New("missing location source")
	ErrIncompleteCertificate      = errors.New("incomplete certificate")
	ErrUnknownRateLimitZone       = errors.New("unknown rate limit zone")
	ErrConflictingRateLimitZone   = errors.New("conflicting rate limit zone")
	ErrConflictingUpstreamOptions = errors.New("conflicting upstream options")
	ErrInvalidBackend             = errors.New("invalid backend")
	ErrInvalidField               = errors.New("invalid field")
)

var kindSentinels = map[ErrorKind]error{
	KindConflictingAliasFields:     ErrConflictingAliasFields,
	KindMissingLocationSource:      ErrMissingLocationSource,
	KindIncompleteCertificate:      ErrIncompleteCertificate,
	KindUnknownRateLimitZone:       ErrUnknownRateLimitZone,
	KindConflictingRateLimitZone:   ErrConflictingRateLimitZone,
	KindConflictingUpstreamOptions: ErrConflictingUpstreamOptions,
	KindInvalidBackend:             ErrInvalidBackend,
	KindInvalidField:               ErrInvalidField,
}

// ValidationError reports a defect in the pillar. These are never
// transient; the operator has to fix the input.
type ValidationError struct {
	Kind     ErrorKind
	Site     string
	Location string   // Empty for site-level defects
	Fields   []string // Offending field or field pair
	Detail   string
}

// NewValidationError creates a validation error
func NewValidationError(kind ErrorKind, site, location string, fields ...string) *ValidationError {
	return &ValidationError{
		Kind:     kind,
		Site:     site,
		Location: location,
		Fields:   fields,
	}
}

// WithDetail attaches a human readable explanation
func (e *ValidationError) WithDetail(format string, args ...any) *ValidationError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Site != "" {
		fmt.Fprintf(&b, ": site %q", e.Site)
	}
	if e.Location != "" {
		fmt.Fprintf(&b, " location %q", e.Location)
	}
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " fields [%s]", strings.Join(e.Fields, ", "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Unwrap exposes the kind sentinel so callers can use errors.Is
func (e *ValidationError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// IsValidationError reports whether err is a configuration defect
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
