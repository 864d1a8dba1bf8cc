// Package jserr implements the engine's uniform error surface (spec §7):
// every fallible API operation returns either a Value or a *JsError, never
// a bare Go error threaded through JS semantics. Modeled on the teacher's
// CLIError (internal/core/errorfmt.go) — a flat Code+Message+Detail
// payload with both human and JSON renderings — generalized to also carry
// the thrown JS value itself when the failure originated in script.
package jserr

import (
	"encoding/json"

	"github.com/oxhq/jsengine/internal/value"
)

// Code enumerates the error kinds the core can produce (spec §7).
type Code string

const (
	CodeSyntax    Code = "ERR_SYNTAX"
	CodeReference Code = "ERR_REFERENCE"
	CodeType      Code = "ERR_TYPE"
	CodeRange     Code = "ERR_RANGE"
	CodeURI       Code = "ERR_URI"
	CodeNative    Code = "ERR_NATIVE"
	CodeAggregate Code = "ERR_AGGREGATE"
	CodeIO        Code = "ERR_IO"
)

// Frame is one entry of a captured backtrace (spec §4.9 "Stack traces").
type Frame struct {
	FunctionName string `json:"functionName,omitempty"`
	Source       string `json:"source,omitempty"`
	Line         int    `json:"line,omitempty"`
	Column       int    `json:"column,omitempty"`
}

// JsError is the sum type spec §6/§7 describes: either an opaque thrown JS
// value (HasValue is true) or a native-error record with kind,
// message, and captured backtrace. A value-carrying JsError still fills in
// Code/Message as a best-effort summary so host code that only reads those
// two fields (logging, exit-code selection) never has to type-switch.
type JsError struct {
	Code      Code        `json:"code"`
	Message   string      `json:"message"`
	Detail    string      `json:"detail,omitempty"`
	Value     value.Value `json:"-"`
	HasValue  bool        `json:"-"`
	Backtrace []Frame     `json:"backtrace,omitempty"`
}

func (e *JsError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *JsError) String() string { return e.Error() }

// JSON renders the error as the host-facing JSON payload (spec §6 error
// surface), mirroring the teacher's CLIError.JSON.
func (e *JsError) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// FromValue wraps a thrown JS value as a JsError, summarizing it into
// Code/Message via best-effort property reads (name/message for an Error
// instance). When nameOf reports no name, Code stays CodeNative and
// Message is "uncaught exception".
func FromValue(v value.Value, nameOf, messageOf func(value.Value) (string, bool)) *JsError {
	e := &JsError{Value: v, HasValue: true, Code: CodeNative}
	if name, ok := nameOf(v); ok {
		e.Code = codeFromName(name)
		e.Message = name
		if msg, ok := messageOf(v); ok && msg != "" {
			e.Message = name + ": " + msg
		}
		return e
	}
	e.Message = "uncaught exception"
	return e
}

func codeFromName(name string) Code {
	switch name {
	case "SyntaxError":
		return CodeSyntax
	case "ReferenceError":
		return CodeReference
	case "TypeError":
		return CodeType
	case "RangeError":
		return CodeRange
	case "URIError":
		return CodeURI
	default:
		return CodeNative
	}
}

// Wrap builds a native JsError (no associated JS value), the counterpart
// to the teacher's core.Wrap helper.
func Wrap(code Code, msg string, inner error) *JsError {
	e := &JsError{Code: code, Message: msg}
	if inner != nil {
		e.Detail = inner.Error()
	}
	return e
}

// ExitCode maps a JsError (or nil, for success) to the reference host's
// process exit code (spec §6 "Exit codes (reference host)").
func ExitCode(err *JsError) int {
	if err == nil {
		return 0
	}
	switch err.Code {
	case CodeSyntax:
		return 2
	case CodeIO:
		return 3
	default:
		return 1
	}
}
