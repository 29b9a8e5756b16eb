package noteforge

import (
	"fmt"
	"strings"
)

// TemplateNotFoundError reports a template name that resolved to no file.
type TemplateNotFoundError struct {
	Name string
	Dir  string
}

func (e *TemplateNotFoundError) Error() string {
	if e.Dir != "" {
		return fmt.Sprintf("template %q not found in %s", e.Name, e.Dir)
	}
	return fmt.Sprintf("template %q not found", e.Name)
}

// NewTemplateNotFoundError creates a template-not-found error.
func NewTemplateNotFoundError(name, dir string) error {
	return &TemplateNotFoundError{Name: name, Dir: dir}
}

// ParseError represents an error during template or expression parsing.
type ParseError struct {
	Message  string
	Token    string
	Position int
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse error at position %d near '%s': %s", e.Position, e.Token, e.Message)
	}
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

// NewParseError creates a new parse error.
func NewParseError(message, token string, position int) error {
	return &ParseError{Message: message, Token: token, Position: position}
}

// EvaluationError represents an error during expression evaluation.
type EvaluationError struct {
	Expression string
	Cause      error
}

func (e *EvaluationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evaluation error for expression '%s': %v", e.Expression, e.Cause)
	}
	return fmt.Sprintf("evaluation error for expression '%s'", e.Expression)
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// NewEvaluationError creates a new evaluation error.
func NewEvaluationError(expression string, cause error) error {
	return &EvaluationError{Expression: expression, Cause: cause}
}

// FunctionError represents an error in a template function or filter call.
type FunctionError struct {
	Function string
	Args     []string
	Message  string
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function error in '%s(%s)': %s", e.Function, strings.Join(e.Args, ", "), e.Message)
}

// NewFunctionError creates a new function error.
func NewFunctionError(function string, args []string, message string) error {
	return &FunctionError{Function: function, Args: args, Message: message}
}

// ValidationIssue represents a single validation problem.
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError represents multiple validation issues.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}
	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}
	var parts []string
	parts = append(parts, fmt.Sprintf("%d validation issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

// Messages returns the issue texts in order, for callers that surface
// validation output without the error wrapper.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Field + ": " + issue.Message
	}
	return msgs
}

// IsTemplateNotFound checks if an error is a template-not-found error.
func IsTemplateNotFound(err error) bool {
	_, ok := err.(*TemplateNotFoundError)
	return ok
}

// IsParseError checks if an error is a parse error.
func IsParseError(err error) bool {
	_, ok := err.(*ParseError)
	return ok
}

// IsEvaluationError checks if an error is an evaluation error.
func IsEvaluationError(err error) bool {
	_, ok := err.(*EvaluationError)
	return ok
}

// IsFunctionError checks if an error is a function error.
func IsFunctionError(err error) bool {
	_, ok := err.(*FunctionError)
	return ok
}
