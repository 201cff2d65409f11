// Package errors provides the unified error type and factory functions for
// ReactKin.  Every layer of the engine (domain, application, infrastructure,
// interfaces) uses AppError as the single carrier for structured error
// information, enabling consistent CLI output, logging, and monitoring.
package errors

import (
	"errors"
	"fmt"
)

// ─────────────────────────────────────────────────────────────────────────────
// AppError — the canonical engine error type
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout ReactKin.
// It satisfies the standard error interface and supports Go 1.13+ error wrapping
// so that errors.Is / errors.As / errors.Unwrap work transparently across all
// layers of the application.
//
// Usage:
//
//	return errors.New(errors.ErrCodeRecipeInvalidAction, "CHANGE_BOND on unbonded atoms *1 and *2")
//	return errors.Wrap(loadErr, errors.ErrCodeFamilyLoadFailed, "failed to load rate rules")
//	return errors.UndeterminableKinetics("no matching rule").
//	           WithDetail("template [C_rad/H2/Cs;O_sec_rad]")
type AppError struct {
	// Code is the typed error code that uniquely identifies the failure category.
	Code ErrorCode

	// Message is the primary human-readable description of the error, suitable
	// for surfacing to library callers and CLI users.
	Message string

	// Detail carries supplementary context (template labels, entry indices,
	// adjacency lists) that aids debugging without bloating the primary message.
	Detail string

	// Cause is the underlying error that triggered this AppError, enabling
	// errors.Is / errors.As traversal of the full error chain.
	Cause error

	// Stack contains the formatted call-stack captured at the point of error
	// creation.  It is populated by New and Wrap but omitted when the "nostack"
	// build tag is set.  Stack is intentionally not included in Error() output
	// to keep messages clean; callers that need it can inspect the field
	// directly (e.g., structured logger middleware).
	Stack string
}

// ─────────────────────────────────────────────────────────────────────────────
// error interface implementation
// ─────────────────────────────────────────────────────────────────────────────

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>"
// The detail segment is omitted when Detail is empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap returns the underlying cause error, enabling errors.Is and errors.As
// to traverse the full error chain without any additional boilerplate at call sites.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ─────────────────────────────────────────────────────────────────────────────
// Fluent builder methods
// ─────────────────────────────────────────────────────────────────────────────

// WithDetail returns a shallow copy of the receiver with Detail set to the
// supplied string.  It is safe to call on a nil pointer (returns nil).
// Example:
//
//	return errors.UndeterminableKinetics("no rule found").WithDetail("depth=" + strconv.Itoa(d))
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
// Use this when you want to attach a lower-level error to an already-constructed
// AppError without going through Wrap.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Primary factory functions
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
// A call-stack snapshot is captured automatically (unless compiled with -tags nostack).
//
// New is the preferred factory for errors that originate in the current layer
// without an underlying cause from a lower layer.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf constructs a fresh AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError that wraps an existing error.
// If err is nil, Wrap returns nil so it can be used inline:
//
//	return errors.Wrap(store.LoadTree(path), errors.ErrCodeFamilyLoadFailed, "parse failed")
//
// When err is already an *AppError and code is CodeUnknown the original code is
// preserved, preventing loss of the original domain classification during
// cross-layer propagation.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	// Preserve original code when the caller is just adding context.
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error-chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.  It is the idiomatic way to check domain-specific failure modes:
//
//	if errors.IsCode(err, errors.ErrCodeKineticsUndeterminable) { ... }
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsUndeterminable reports whether any error in err's chain indicates that no
// kinetics could be determined for a reaction, either because no rule matched
// or because every candidate had a zero rate.  Generation-time callers treat
// this as a soft failure and fall through to the next estimation source.
func IsUndeterminable(err error) bool {
	return IsCode(err, ErrCodeKineticsUndeterminable)
}

// IsNotFound reports whether any error in err's chain is an *AppError with
// ErrCodeNotFound, ErrCodeEntryNotFound, or ErrCodeFamilyNotFound.
func IsNotFound(err error) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) {
			switch ae.Code {
			case ErrCodeNotFound, ErrCodeEntryNotFound, ErrCodeFamilyNotFound:
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError found in err's chain.
// If no *AppError is present, CodeUnknown is returned.
//
// This is useful in logging layers that need a single code to emit as a metric
// label without coupling to specific domain errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factory functions for the most common error conditions
// ─────────────────────────────────────────────────────────────────────────────
// Each function keeps call sites reading naturally:
//
//   return errors.InvalidAction("FORM_BOND order must be 0 or 1")
//   return errors.UndeterminableKinetics("no rules for template [X;Y]")

// NotFound constructs an ErrCodeNotFound AppError.
// Prefer ErrCodeEntryNotFound / ErrCodeFamilyNotFound for domain-specific
// variants; this generic form is appropriate in generic store layers.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
		Stack:   captureStack(1),
	}
}

// InvalidParam constructs an ErrCodeBadRequest AppError.
func InvalidParam(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Stack:   captureStack(1),
	}
}

// InvalidState constructs an ErrCodeConflict AppError, used for domain state violations.
func InvalidState(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Internal constructs an ErrCodeInternal AppError.
// Use this for unexpected failures where no more specific code applies.
// Always log the underlying cause before or after calling Internal.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Stack:   captureStack(1),
	}
}

// InvalidAction constructs an ErrCodeRecipeInvalidAction AppError, raised when
// a recipe step cannot be applied to the labeled structure it targets.
func InvalidAction(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRecipeInvalidAction,
		Message: message,
		Stack:   captureStack(1),
	}
}

// ForbiddenStructure constructs an ErrCodeFamilyForbiddenStructure AppError,
// raised when a generated product matches a forbidden substructure pattern.
func ForbiddenStructure(message string) *AppError {
	return &AppError{
		Code:    ErrCodeFamilyForbiddenStructure,
		Message: message,
		Stack:   captureStack(1),
	}
}

// UndeterminableKinetics constructs an ErrCodeKineticsUndeterminable AppError,
// raised when neither the depository nor the rate rules yield usable kinetics
// for a reaction.
func UndeterminableKinetics(message string) *AppError {
	return &AppError{
		Code:    ErrCodeKineticsUndeterminable,
		Message: message,
		Stack:   captureStack(1),
	}
}

// DatabaseConsistency constructs an ErrCodeFamilyInconsistent AppError, raised
// when a tree or rule set violates a structural invariant (child not a
// subgraph of its parent, rule attached to a missing node, and so on).
func DatabaseConsistency(message string) *AppError {
	return &AppError{
		Code:    ErrCodeFamilyInconsistent,
		Message: message,
		Stack:   captureStack(1),
	}
}

// TemplateMismatch constructs an ErrCodeFamilyTemplateMismatch AppError,
// raised when a reactant set cannot be mapped onto a family template.
func TemplateMismatch(message string) *AppError {
	return &AppError{
		Code:    ErrCodeFamilyTemplateMismatch,
		Message: message,
		Stack:   captureStack(1),
	}
}
