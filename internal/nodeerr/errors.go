// Package nodeerr defines the error taxonomy shared by the compute core.
//
// Every failure is reported as an *Error whose Kind is one of the sentinel
// errors below, so callers match with errors.Is and never parse messages.
// Kinds fall into three groups:
//
//   - registration errors (UnknownPlug, DuplicateKey, InvalidDirection,
//     InvalidDeclaration, UnaffectedOutput, Sealed) abort node-type setup;
//   - request errors (MissingInput, EvaluationFailure) are recoverable by the
//     host and safe to retry, and InvalidValue rejects a host assignment;
//   - programming errors (StaleWriteWithoutCompute, ReentrantCompute) are
//     fatal and poison the node type for further use.
package nodeerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPlug              = errors.New("unknown plug")
	ErrDuplicateKey             = errors.New("duplicate plug key")
	ErrInvalidDirection         = errors.New("invalid plug direction")
	ErrInvalidDeclaration       = errors.New("invalid declaration")
	ErrUnaffectedOutput         = errors.New("output has no affecting input")
	ErrSealed                   = errors.New("node type is finalized")
	ErrInvalidValue             = errors.New("invalid plug value")
	ErrMissingInput             = errors.New("missing input")
	ErrStaleWriteWithoutCompute = errors.New("stale write without compute")
	ErrReentrantCompute         = errors.New("reentrant compute")
	ErrEvaluationFailure        = errors.New("evaluation failure")
	ErrUnknownNodeType          = errors.New("unknown node type")
	ErrUnknownInstance          = errors.New("unknown instance")
)

// ErrPartialResult is returned when a compute pass committed but did not
// produce the requested output. It is an evaluation failure, so a retry
// re-runs the evaluator.
var ErrPartialResult = fmt.Errorf("%w: requested output not produced", ErrEvaluationFailure)

// Error carries the failing node type and plug alongside the error kind.
type Error struct {
	Kind     error
	NodeType string
	Plug     string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.NodeType != "" || e.Plug != "" {
		sb.WriteString(" (")
		switch {
		case e.NodeType != "" && e.Plug != "":
			fmt.Fprintf(&sb, "%s.%s", e.NodeType, e.Plug)
		case e.NodeType != "":
			sb.WriteString(e.NodeType)
		default:
			sb.WriteString(e.Plug)
		}
		sb.WriteString(")")
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds an *Error of the given kind with a formatted message.
func New(kind error, nodeType, plug, format string, args ...any) *Error {
	return &Error{Kind: kind, NodeType: nodeType, Plug: plug, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around cause.
func Wrap(kind error, nodeType, plug string, cause error) *Error {
	return &Error{Kind: kind, NodeType: nodeType, Plug: plug, Err: cause}
}

// IsFatal reports whether err is a programming error in a node's evaluator.
// Only the outermost *Error counts: an evaluation failure caused by another
// node type's fatal error is not fatal itself.
func IsFatal(err error) bool {
	kind := err
	var ne *Error
	if errors.As(err, &ne) {
		kind = ne.Kind
	}
	return errors.Is(kind, ErrStaleWriteWithoutCompute) || errors.Is(kind, ErrReentrantCompute)
}

// IsRetryable reports whether the host may retry the request after fixing
// the underlying condition.
func IsRetryable(err error) bool {
	if IsFatal(err) {
		return false
	}
	return errors.Is(err, ErrMissingInput) || errors.Is(err, ErrEvaluationFailure)
}

var kindNames = []struct {
	kind error
	name string
}{
	// Fatal kinds first: they may wrap an evaluation failure.
	{ErrStaleWriteWithoutCompute, "stale_write"},
	{ErrReentrantCompute, "reentrant_compute"},
	{ErrMissingInput, "missing_input"},
	{ErrEvaluationFailure, "evaluation_failure"},
	{ErrUnknownPlug, "unknown_plug"},
	{ErrInvalidDirection, "invalid_direction"},
	{ErrDuplicateKey, "duplicate_key"},
	{ErrInvalidDeclaration, "invalid_declaration"},
	{ErrUnaffectedOutput, "unaffected_output"},
	{ErrSealed, "sealed"},
	{ErrUnknownNodeType, "unknown_node_type"},
	{ErrUnknownInstance, "unknown_instance"},
	{ErrInvalidValue, "invalid_value"},
}

// KindName returns a stable snake_case label for the kind of err, suitable
// for metric labels. Errors outside the taxonomy report "other".
func KindName(err error) string {
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "other"
}
