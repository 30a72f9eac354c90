package errors

import "fmt"

// Category represents the subsystem an error originates from.
type Category string

const (
	CategoryParse  Category = "parse"
	CategoryExpr   Category = "expr"
	CategoryRender Category = "render"
	CategoryStream Category = "stream"
	CategoryCache  Category = "cache"
	CategoryConfig Category = "config"
)

// Error is a structured engine error with a stable code, a category,
// and an optional fix suggestion.
type Error struct {
	// Code is a unique error identifier (e.g. "E101").
	Code string

	// Category is the originating subsystem.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// New creates a structured error.
func New(category Category, code, message string) *Error {
	return &Error{
		Code:     code,
		Category: category,
		Message:  message,
	}
}

// Errorf creates a structured error with a formatted message.
func Errorf(category Category, code, format string, args ...any) *Error {
	return New(category, code, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// IsCategory reports whether err is an *Error in the given category.
func IsCategory(err error, c Category) bool {
	e, ok := err.(*Error)
	return ok && e.Category == c
}
