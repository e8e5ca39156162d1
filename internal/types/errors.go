package types

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline error by how the host should surface it.
type Kind string

const (
	// KindValidation covers missing required input, unsupported extensions and
	// empty batches. Recovered locally, no data loss.
	KindValidation Kind = "validation"

	// KindFormat covers files that are not the expected template. The host
	// should point the operator at the downloaded template and reset the
	// file input.
	KindFormat Kind = "format"

	// KindComputation is a single record's calculator failure. It never leaves
	// the orchestrator; it only appears in batch summaries.
	KindComputation Kind = "computation"

	// KindQuotaExceeded is raised before any computation starts.
	KindQuotaExceeded Kind = "quota_exceeded"

	// KindSerialization covers template and CSV generation failures.
	KindSerialization Kind = "serialization"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrHeaderNotFound       = errors.New("template header row not found")
	ErrSchemaMismatch       = errors.New("template schema version mismatch")
	ErrNoValidRecords       = errors.New("no valid employee data found")
	ErrParseFailed          = errors.New("file could not be parsed")
	ErrEmptyBatch           = errors.New("no eligible employees to calculate")
	ErrRecordNotFound       = errors.New("employee record not found")
	ErrUnknownField         = errors.New("unknown employee field")
	ErrNothingToExport      = errors.New("no calculated employees to export")
	ErrStaffLimitExceeded   = errors.New("staff limit exceeded")
	ErrMonthlyLimitExceeded = errors.New("monthly submission limit exceeded")
	ErrFeatureLocked        = errors.New("feature not available on this tier")
)

// Error is the user-facing error type of the pipeline.
type Error struct {
	Kind Kind

	// Message is shown to the operator.
	Message string

	// Remediation tells the operator what to do next. May be empty.
	Remediation string

	// Err is the underlying cause, usually one of the sentinel errors above.
	Err error
}

func (e *Error) Error() string {
	if e.Remediation != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Remediation)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, cause error, message, remediation string) *Error {
	return &Error{Kind: kind, Message: message, Remediation: remediation, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// did not originate in the pipeline.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
