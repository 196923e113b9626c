// Package rterr defines the runtime's error taxonomy. The VM's per-opcode
// hot path never allocates an error value; it just sets a raw Code on the
// VM and returns to the run loop, which performs the handler search, since
// errors never cross a call boundary silently. This package exists for the
// boundary the host actually sees: Runtime construction, and the text of
// the synthesized ERROR value a handler frame receives.
package rterr

import "github.com/pkg/errors"

// Code is the VM's error kind: a closed set, so a raw int can be compared,
// logged, and mapped to text without an intermediate translation table
// living in two places.
type Code int32

const (
	OK Code = iota
	Overflow
	DivByZero
	ValueCast
	NotCallable
	AllocFail
	DeadVM
	NotEnoughParams
	TooManyParams
)

var codeText = map[Code]string{
	OK:              "ok",
	Overflow:        "integer overflow",
	DivByZero:       "division by zero",
	ValueCast:       "invalid value cast",
	NotCallable:     "value is not callable",
	AllocFail:       "allocation failed",
	DeadVM:          "vm is dead",
	NotEnoughParams: "not enough parameters",
	TooManyParams:   "too many parameters",
}

// Text returns the human-readable string for a Code, used both for
// diagnostics and as the payload interned into the StringPool when a Code
// is surfaced as an ERROR-tagged Value.
func Text(c Code) string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return "unknown error"
}

// RuntimeError is implemented by CodeError, the error type this runtime
// originates. An error returned through Wrap does not implement it itself;
// its cause (errors.Cause from github.com/pkg/errors) is the CodeError.
type RuntimeError interface {
	error
	RuntimeError() Code
}

// CodeError adapts a bare Code into a Go error for the Runtime's public,
// non-hot-path API (construction). The hot VM path keeps
// using raw Codes; only boundary-crossing calls pay for this wrapping.
type CodeError struct {
	Code Code
	msg  string
}

func NewCodeError(c Code) *CodeError {
	return &CodeError{Code: c, msg: Text(c)}
}

func (e *CodeError) Error() string        { return e.msg }
func (e *CodeError) RuntimeError() Code   { return e.Code }

// Wrap attaches diagnostic context to a construction-time failure (e.g.
// NewRuntime given a nil AllocFunc) the way moby-moby's daemon/config validation wraps errors
// with github.com/pkg/errors for a causal chain, rather than losing the
// original cause behind a generic message.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
