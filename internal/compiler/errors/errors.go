// Package errors provides structured error handling for the glue compiler.
// It defines error codes, categories, and formatting for terminal output.
package errors

import (
	"fmt"

	"github.com/evtlang/evtc/internal/compiler/ast"
)

// Code is a unique error code in the glue compiler.
type Code string

// Category is the category of a compiler error.
type Category string

const (
	// CategorySyntax covers block reader, preprocessor, and declaration
	// parser errors (SYN001-099). Fatal to the current file.
	CategorySyntax Category = "syntax"
	// CategoryResolution covers event resolution, export verification, and
	// type projection errors (RES100-199).
	CategoryResolution Category = "resolution"
	// CategoryCodeGen covers code generation errors (GEN200-299).
	CategoryCodeGen Category = "codegen"
)

// Common error codes.
const (
	CodeEmptyBlock        Code = "SYN001"
	CodeUnexpectedEOF     Code = "SYN002"
	CodeUnexpectedToken   Code = "SYN003"
	CodeBadDirective      Code = "SYN004"
	CodeOpenDirective     Code = "SYN005"
	CodeBadPortSpec       Code = "SYN006"
	CodeUnknownUnit       Code = "RES100"
	CodeMissingUnit       Code = "RES101"
	CodeUnknownExport     Code = "RES102"
	CodeUnqualifiedExport Code = "RES103"
	CodeSelfRecursiveType Code = "RES104"
	CodeUnsupportedType   Code = "RES105"
	CodeBadExpression     Code = "GEN200"
	CodeBadReservedParam  Code = "GEN201"
)

// CompilerError is a structured compiler error carrying everything needed
// to produce a useful diagnostic.
type CompilerError struct {
	Code     Code
	Category Category
	Message  string
	Location ast.Location
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	msg := e.Message
	if e.Expected != "" {
		msg = fmt.Sprintf("%s (expected %s, got %s)", msg, e.Expected, e.Actual)
	}
	if e.Location.Line > 0 || e.Location.File != "" {
		return fmt.Sprintf("%s: %s [%s]", e.Location, msg, e.Code)
	}
	return fmt.Sprintf("%s [%s]", msg, e.Code)
}

// WithLocation sets the source location and returns the error.
func (e *CompilerError) WithLocation(loc ast.Location) *CompilerError {
	e.Location = loc
	return e
}

// WithExpected records what was expected versus actually found.
func (e *CompilerError) WithExpected(expected, actual string) *CompilerError {
	e.Expected = expected
	e.Actual = actual
	return e
}

// NewSyntax creates a syntax error.
func NewSyntax(code Code, format string, args ...any) *CompilerError {
	return &CompilerError{Code: code, Category: CategorySyntax, Message: fmt.Sprintf(format, args...)}
}

// NewResolution creates a resolution error.
func NewResolution(code Code, format string, args ...any) *CompilerError {
	return &CompilerError{Code: code, Category: CategoryResolution, Message: fmt.Sprintf(format, args...)}
}

// NewCodeGen creates a code generation error.
func NewCodeGen(code Code, format string, args ...any) *CompilerError {
	return &CompilerError{Code: code, Category: CategoryCodeGen, Message: fmt.Sprintf(format, args...)}
}

// List is a collection of compiler errors. Resolution errors for
// independent declarations accumulate here rather than aborting the pass.
type List []*CompilerError

// Error implements the error interface.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
	}
}

// Append adds err to the list if it is non-nil, coercing plain errors into
// untyped codegen failures.
func (l *List) Append(err error) {
	if err == nil {
		return
	}
	if ce, ok := err.(*CompilerError); ok {
		*l = append(*l, ce)
		return
	}
	*l = append(*l, &CompilerError{Category: CategoryCodeGen, Message: err.Error()})
}

// ErrOrNil returns the list as an error, or nil if it is empty.
func (l List) ErrOrNil() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
