package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // binary to program
	PhaseEncode  Phase = "encode"  // program to binary
	PhaseLoad    Phase = "load"    // file and module loading
	PhaseRuntime Phase = "runtime" // thread execution
	PhaseNative  Phase = "native"  // native module registration and dispatch
	PhaseConfig  Phase = "config"  // configuration parsing and validation
	PhaseDebug   Phase = "debug"   // debug sidecar parsing
)

// Kind categorizes the error
type Kind string

const (
	KindTruncated         Kind = "truncated"
	KindIllegalOpCode     Kind = "illegal_opcode"
	KindIllegalAddressing Kind = "illegal_addressing"
	KindMissingMain       Kind = "missing_main"
	KindTypeMismatch      Kind = "type_mismatch"
	KindInvalidData       Kind = "invalid_data"
	KindUnsupported       Kind = "unsupported"
	KindOverflow          Kind = "overflow"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindRegistration      Kind = "registration"
	KindInstantiation     Kind = "instantiation"
)

// Error is the structured error type used throughout the VM
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the Ellie type name involved
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// DecodeCode is the numeric class of a program decode failure.
type DecodeCode int

const (
	DecodeTruncated         DecodeCode = 0
	DecodeIllegalOpCode     DecodeCode = 1
	DecodeIllegalAddressing DecodeCode = 2
	DecodeMissingMain       DecodeCode = 3
)

func (c DecodeCode) kind() Kind {
	switch c {
	case DecodeTruncated:
		return KindTruncated
	case DecodeIllegalOpCode:
		return KindIllegalOpCode
	case DecodeIllegalAddressing:
		return KindIllegalAddressing
	case DecodeMissingMain:
		return KindMissingMain
	}
	return KindInvalidData
}

// Decode creates a program decode error at the given stream position.
func Decode(code DecodeCode, position int, detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   code.kind(),
		Path:   []string{"byte " + strconv.Itoa(position)},
		Detail: detail,
		Value:  code,
		Cause:  cause,
	}
}

// DecodeCodeOf extracts the decode code from err or any error it wraps.
func DecodeCodeOf(err error) (DecodeCode, bool) {
	var e *Error
	if !stderrors.As(err, &e) || e.Phase != PhaseDecode {
		return 0, false
	}
	code, ok := e.Value.(DecodeCode)
	return code, ok
}

// MainCode is the numeric class of a main discovery failure.
type MainCode int

const (
	MainWrongAddressing MainCode = 1
	MainWrongImmediate  MainCode = 2
	MainNotFound        MainCode = 3
)

// MainDiscovery creates an error for a failed main function lookup.
func MainDiscovery(code MainCode, hash uint64, detail string) *Error {
	kind := KindNotFound
	switch code {
	case MainWrongAddressing:
		kind = KindIllegalAddressing
	case MainWrongImmediate:
		kind = KindTypeMismatch
	}
	return &Error{
		Phase:  PhaseLoad,
		Kind:   kind,
		Path:   []string{"fn " + strconv.FormatUint(hash, 10)},
		Detail: detail,
		Value:  code,
	}
}

// MainCodeOf extracts the main discovery code from err or any error it wraps.
func MainCodeOf(err error) (MainCode, bool) {
	var e *Error
	if !stderrors.As(err, &e) {
		return 0, false
	}
	code, ok := e.Value.(MainCode)
	return code, ok
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Type:   got,
		Detail: fmt.Sprintf("expected %s", want),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Type:   targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a native registration error
func Registration(module, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseNative,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s::%s", module, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error for a hosted module
func Instantiation(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseNative,
		Kind:   KindInstantiation,
		Detail: fmt.Sprintf("instantiate module %q", module),
		Cause:  cause,
	}
}

// Load creates a loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
