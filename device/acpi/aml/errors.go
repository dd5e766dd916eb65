package aml

import (
	"bytes"
	"fmt"

	"amlvm/device/acpi/aml/opcode"
)

// ErrorKind classifies the errors reported by the interpreter.
type ErrorKind uint8

// The list of supported error kinds.
const (
	// ErrMalformedStream is reported when the AML byte stream is
	// truncated or does not follow the grammar.
	ErrMalformedStream ErrorKind = iota + 1

	// ErrUnresolvedReference is reported when a name cannot be found in
	// the namespace.
	ErrUnresolvedReference

	// ErrTypeCoercion is reported when a value cannot be converted to
	// the type required by an operator.
	ErrTypeCoercion

	// ErrResourceExhaustion is reported when an allocation, call depth or
	// loop iteration limit is exceeded.
	ErrResourceExhaustion

	// ErrUnimplementedOpcode is reported when the stream contains a byte
	// that is neither a known opcode nor the start of a name.
	ErrUnimplementedOpcode

	// ErrFatal is reported when AML code executes the Fatal operator.
	ErrFatal

	// ErrUnsupported is reported for operators that the interpreter
	// recognizes but does not implement (Load, LoadTable, Unload).
	ErrUnsupported

	// ErrInvalidOperation is reported for operations that are well-formed
	// but cannot be carried out such as a division by zero, an out of
	// bounds index or a duplicate object definition.
	ErrInvalidOperation
)

var errorKindNames = [...]string{
	"",
	"malformed stream",
	"unresolved reference",
	"type coercion",
	"resource exhaustion",
	"unimplemented opcode",
	"fatal",
	"unsupported",
	"invalid operation",
}

// String implements fmt.Stringer for ErrorKind.
func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) && k != 0 {
		return errorKindNames[k]
	}
	return "unknown"
}

// frame contains information about the location within a method (the VM
// instruction pointer) and the actual AML opcode that the VM was processing
// when an error occurred. Entry also contains information about the method
// name and the ACPI table that defined it.
type frame struct {
	table  string
	method string
	IP     uint32
	instr  string
}

// Error describes errors that occur while executing AML code.
type Error struct {
	Kind    ErrorKind
	message string

	// Op is the opcode that was being executed when the error occurred
	// and Offset its location in the enclosing table or method body.
	Op     opcode.Opcode
	Offset uint32

	// Remaining is the number of unread bytes in the scope that contained
	// the failing opcode.
	Remaining uint32

	// base points to the package-level error this error was derived
	// from so that errors.Is keeps working on annotated copies.
	base *Error

	// located is set once Op and Offset have been filled in.
	located bool

	// trace contains a list of trace entries that correspond to the AML method
	// invocations up to the point where an error occurred. To construct the
	// correct execution tree from a Trace, its entries must be processed in
	// LIFO order.
	trace []*frame
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if !e.located {
		return e.message
	}
	return fmt.Sprintf("%s (opcode: %s, offset: 0x%x)", e.message, e.Op, e.Offset)
}

// Is allows errors.Is to match annotated copies of the package-level error
// values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.base != nil && e.base == t)
}

// StackTrace returns a formatted stack trace for this error.
func (e *Error) StackTrace() string {
	if len(e.trace) == 0 {
		return "No stack trace available"
	}

	var buf bytes.Buffer
	buf.WriteString("Stack trace:\n")

	// We need to process the trace list in LIFO order.
	for index, offset := 0, len(e.trace)-1; index < len(e.trace); index, offset = index+1, offset-1 {
		entry := e.trace[offset]
		fmt.Fprintf(&buf, "[%3x] [%s] [%s():0x%x] opcode: %s\n", index, entry.table, entry.method, entry.IP, entry.instr)
	}

	return buf.String()
}

// clone returns a copy of e that can be annotated without modifying a
// shared package-level error value.
func (e *Error) clone() *Error {
	c := *e
	if e.base == nil {
		c.base = e
	}
	c.trace = append([]*frame(nil), e.trace...)
	return &c
}

// asError converts any error returned while executing AML code into an
// *Error. Errors that are already *Error values are cloned.
func asError(err error) *Error {
	if amlErr, ok := err.(*Error); ok {
		return amlErr.clone()
	}
	return &Error{Kind: ErrInvalidOperation, message: err.Error()}
}

// locate records the opcode and location where err occurred unless an
// inner opcode has already done so.
func locate(err error, op opcode.Opcode, offset, remaining uint32) *Error {
	amlErr := asError(err)
	if !amlErr.located {
		amlErr.Op, amlErr.Offset, amlErr.Remaining = op, offset, remaining
		amlErr.located = true
	}
	return amlErr
}

// withFrame appends a trace frame to err.
func withFrame(err error, f *frame) *Error {
	amlErr := asError(err)
	amlErr.trace = append(amlErr.trace, f)
	return amlErr
}

// fillFrames sets the table and method name for frames that were recorded
// while executing a method body.
func fillFrames(err *Error, table, method string) {
	for _, f := range err.trace {
		if f.table == "" && f.method == "" {
			f.table, f.method = table, method
		}
	}
}
