// Package errorutil contains the error kinds reported by catlog and the rich
// error type which carries them.
//
// Every failure surfaced by the compiler, resolver, builder or dispatcher is an
// *Error with a Kind. A Kind is itself an error, so callers classify failures
// with the standard library:
//
//	if errors.Is(err, errorutil.InvalidPattern) { ... }
//
// Errors follow these conventions:
//   - messages are lower case, single line, and never start with "error"
//   - the Action names what was being done e.g. `compiling pattern "%q"`
//   - the Cause is the underlying error (if any), kept for errors.Unwrap
package errorutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/ugorji/go-catlog/runtimeutil"
)

// Kind classifies an Error.
type Kind uint8

const (
	_ Kind = iota
	InvalidLevelSpec
	InvalidPattern
	InvalidSink
	IoError
	OutOfMemory
	RecordTooLong
	AlreadyInitialized
	NotInitialized
)

var kind2s = [...]string{
	0:                  "unknown error",
	InvalidLevelSpec:   "invalid level spec",
	InvalidPattern:     "invalid pattern",
	InvalidSink:        "invalid sink",
	IoError:            "io error",
	OutOfMemory:        "out of memory",
	RecordTooLong:      "record too long",
	AlreadyInitialized: "already initialized",
	NotInitialized:     "not initialized",
}

func (k Kind) String() string {
	if int(k) < len(kind2s) {
		return kind2s[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Context is time and location in code where an error occurred
type Context struct {
	Subsystem string
	File      string
	FuncName  string
	Line      int
	Time      time.Time
}

// String returns a string containing fields of the *Context (subsystem, file, line, etc)
// e.g. sink [sink.go:123 Resolve]
func (x *Context) String() string {
	if x == nil {
		return ""
	}
	if x.Time.IsZero() {
		return fmt.Sprintf("%v [%v:%v %v]", x.Subsystem, x.File, x.Line, x.FuncName)
	}
	return fmt.Sprintf("%v %v [%v:%v %v]", x.Time, x.Subsystem, x.File, x.Line, x.FuncName)
}

// Error is a rich error encapsulating a kind, the action being performed,
// an optional cause and the program context where it was created.
type Error struct {
	Kind Kind
	// Action is what was being performed e.g. `resolving sink "|"`
	Action string
	// Cause is the encapsulated error e.g. "permission denied"
	Cause error
	// Context is where in the code the error occurred
	Context *Context
}

func (e *Error) Error() string {
	return e.msg(false)
}

// Trace is like Error, but prefixed by the code location where e was created.
func (e *Error) Trace() string {
	return e.msg(true)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) msg(ctx bool) string {
	b := make([]byte, 0, 64)
	if ctx && e.Context != nil {
		b = append(b, e.Context.String()...)
		b = append(b, ' ')
	}
	b = append(b, e.Kind.String()...)
	if e.Action != "" {
		b = append(b, ": "...)
		b = append(b, e.Action...)
	}
	if e.Cause != nil {
		b = append(b, ": "...)
		b = append(b, e.Cause.Error()...)
	}
	return string(b)
}

func newError(kind Kind, action string, cause error, depth uint8) *Error {
	e := &Error{Kind: kind, Action: action, Cause: cause}
	var x Context
	x.Subsystem, x.FuncName, x.File, x.Line = runtimeutil.PkgFuncFileLine(depth)
	e.Context = &x
	return e
}

// New returns an *Error of the given kind, with the caller as its context.
func New(kind Kind, action string, cause error) *Error {
	return newError(kind, action, cause, 2)
}

// Newf returns an *Error without a cause, whose action is built from format and params.
func Newf(kind Kind, format string, params ...interface{}) *Error {
	if len(params) > 0 {
		format = fmt.Sprintf(format, params...)
	}
	return newError(kind, format, nil, 2)
}

// OnErrorf wraps a non-nil *err into an *Error of the given kind.
// If *err already carries a Kind, it is only given the extra action.
//
// Most callers use it from defer functions.
func OnErrorf(err *error, kind Kind, message string, params ...interface{}) {
	if *err == nil {
		return
	}
	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}
	if k := KindOf(*err); k != 0 {
		kind = k
	}
	*err = newError(kind, message, *err, 2)
}

// KindOf returns the Kind of the first *Error in err's chain, or 0 if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Is reports whether err, or any error it wraps, is of the given kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, kind)
}

// Base returns the underlying cause of an error.
// If an *Error, it returns the base of its cause.
// Else it returns the error passed.
func Base(err error) error {
	if e, ok := err.(*Error); ok && e.Cause != nil {
		return Base(e.Cause)
	}
	return err
}
