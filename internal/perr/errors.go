// Package perr defines the typed error taxonomy shared by every engine
// component: the cross-reference subsystem, the lexer, the filter
// pipeline, and the traversal controller all construct and return these
// types rather than ad-hoc errors, so a caller can tell the failure kinds
// apart with errors.As; Malformed and Truncated also carry the byte
// offset at which the parse failed.
package perr

import "fmt"

// Malformed reports a syntax violation: an unexpected keyword, an invalid
// xref record, a bad escape sequence, a missing required dictionary key,
// invalid hex, or any other structural violation of PDF syntax.
type Malformed struct {
	Offset int64
	Detail string
}

func (e *Malformed) Error() string {
	return fmt.Sprintf("malformed PDF at offset %d: %s", e.Offset, e.Detail)
}

// NewMalformed constructs a Malformed error at the given offset.
func NewMalformed(offset int64, detail string) error {
	return &Malformed{Offset: offset, Detail: detail}
}

// NewMalformedf constructs a Malformed error with a formatted detail.
func NewMalformedf(offset int64, format string, args ...any) error {
	return &Malformed{Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

// Truncated reports end-of-source before an expected token or byte.
type Truncated struct {
	Offset int64
}

func (e *Truncated) Error() string {
	return fmt.Sprintf("truncated PDF at offset %d", e.Offset)
}

// NewTruncated constructs a Truncated error at the given offset.
func NewTruncated(offset int64) error {
	return &Truncated{Offset: offset}
}

// UnresolvedReference reports that an indirect reference required to
// proceed (e.g. a stream's /Length) points to an object that is absent
// or free.
type UnresolvedReference struct {
	ObjectNum int
	Gen       int
}

func (e *UnresolvedReference) Error() string {
	return fmt.Sprintf("unresolved reference %d %d R", e.ObjectNum, e.Gen)
}

// NewUnresolvedReference constructs an UnresolvedReference error.
func NewUnresolvedReference(num, gen int) error {
	return &UnresolvedReference{ObjectNum: num, Gen: gen}
}

// InconsistentObject reports that the object number read from an
// indirect-object header does not match the object number the xref
// table said should be there.
type InconsistentObject struct {
	Expected int
	Found    int
}

func (e *InconsistentObject) Error() string {
	return fmt.Sprintf("object number mismatch: expected %d, found %d", e.Expected, e.Found)
}

// NewInconsistentObject constructs an InconsistentObject error.
func NewInconsistentObject(expected, found int) error {
	return &InconsistentObject{Expected: expected, Found: found}
}

// FilterError reports a decoder-specific failure, e.g. an invalid
// deflate stream or an LZW code table overflow.
type FilterError struct {
	Filter string
	Detail string
	Cause  error
}

func (e *FilterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("filter %s failed: %s: %v", e.Filter, e.Detail, e.Cause)
	}
	return fmt.Sprintf("filter %s failed: %s", e.Filter, e.Detail)
}

func (e *FilterError) Unwrap() error { return e.Cause }

// NewFilterError constructs a FilterError.
func NewFilterError(filter, detail string, cause error) error {
	return &FilterError{Filter: filter, Detail: detail, Cause: cause}
}

// IOError wraps a failure of the underlying byte source.
type IOError struct {
	Cause error
}

func (e *IOError) Error() string { return fmt.Sprintf("i/o error: %v", e.Cause) }
func (e *IOError) Unwrap() error { return e.Cause }

// NewIOError wraps cause as an IOError. Returns nil if cause is nil.
func NewIOError(cause error) error {
	if cause == nil {
		return nil
	}
	return &IOError{Cause: cause}
}
