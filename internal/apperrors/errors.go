// Package apperrors provides the closed error taxonomy shared by every
// component of the workflow engine.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories named by the engine's
// propagation policy. It is a closed set; do not add ad-hoc kinds.
type Kind string

const (
	KindAccessDenied    Kind = "ACCESS_DENIED"
	KindModelError      Kind = "MODEL_ERROR"
	KindProcessingError Kind = "PROCESSING_ERROR"
	KindPluginError     Kind = "PLUGIN_ERROR"
	KindRuleError       Kind = "RULE_ERROR"
	KindSchedulerError  Kind = "SCHEDULER_ERROR"
)

// Error is a structured (context, code, message, params) tuple suitable
// for localization at the REST boundary.
type Error struct {
	Kind    Kind
	Context string
	Code    string
	Message string
	Params  map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithParam attaches a detail parameter and returns the receiver for chaining.
func (e *Error) WithParam(key string, value any) *Error {
	if e.Params == nil {
		e.Params = make(map[string]any)
	}
	e.Params[key] = value
	return e
}

func newErr(kind Kind, context, code, message string, err error) *Error {
	return &Error{Kind: kind, Context: context, Code: code, Message: message, Err: err}
}

// AccessDenied reports that the caller lacks read/write access on the target.
func AccessDenied(context, message string) *Error {
	return newErr(KindAccessDenied, context, "ACCESS_DENIED", message, nil)
}

// ModelError reports a missing or inconsistent BPMN model element.
func ModelError(context, code, message string) *Error {
	return newErr(KindModelError, context, code, message, nil)
}

// ModelErrorf is ModelError with a formatted message.
func ModelErrorf(context, code, format string, args ...any) *Error {
	return newErr(KindModelError, context, code, fmt.Sprintf(format, args...), nil)
}

// ProcessingError reports a structurally invalid workitem or unexpected nil.
func ProcessingError(context, message string) *Error {
	return newErr(KindProcessingError, context, "PROCESSING_ERROR", message, nil)
}

// ProcessingErrorWrap wraps an underlying error as a ProcessingError.
func ProcessingErrorWrap(context, message string, err error) *Error {
	return newErr(KindProcessingError, context, "PROCESSING_ERROR", message, err)
}

// PluginError reports a plugin run failure; code is the plugin-specific sub-code.
func PluginError(context, code, message string, err error) *Error {
	return newErr(KindPluginError, context, code, message, err)
}

// RuleError is a sub-kind of PluginError for script compile/eval failures.
func RuleError(context, message string, err error) *Error {
	return newErr(KindPluginError, context, "RULE_ERROR", message, err)
}

// SchedulerError reports an invalid calendar expression, missing
// implementation, or storage failure in the scheduler.
func SchedulerError(context, code, message string, err error) *Error {
	return newErr(KindSchedulerError, context, code, message, err)
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// As extracts the *Error from err's chain, if present.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps a Kind to the conventional HTTP status the admin surface
// should return for it. Kept here so every caller shares one mapping table.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return 500
	}
	switch e.Kind {
	case KindAccessDenied:
		return 403
	case KindModelError:
		return 422
	case KindProcessingError:
		return 400
	case KindPluginError:
		return 502
	case KindRuleError:
		return 502
	case KindSchedulerError:
		return 500
	default:
		return 500
	}
}
