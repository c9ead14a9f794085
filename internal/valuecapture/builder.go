// Package valuecapture implements the internal value-capture sink: a
// small explicit stack machine the Lexer swaps in whenever it needs to
// know a composite or scalar value without delivering it to the
// application's document sink a second time (a stream's /Length, an
// xref-stream dictionary, an object-stream dictionary). It reconstructs
// containers as a small explicit stack machine, grounded on the
// teacher's Dictionary/Array builder methods in internal/parser.
package valuecapture

import (
	"fmt"

	"github.com/coregx/streampdf/internal/values"
)

// frame is either an in-progress array or an in-progress dictionary
// awaiting its next value.
type frame struct {
	arr       values.VArray
	dict      *values.VDictionary
	isDict    bool
	pendingOK bool
	pending   values.Name
}

// Builder is an event.DocumentSink that reconstructs the single
// top-level value it observes (scalar or composite) instead of
// forwarding events anywhere. Not safe for reuse across more than one
// top-level value; construct a fresh Builder per capture.
type Builder struct {
	stack  []*frame
	result values.Value
	done   bool
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Result returns the captured top-level value. Valid only once the
// corresponding StartObject/EndObject-free value sequence has completed
// (i.e. after the single EndDictionary/EndArray, or immediately after a
// scalar event).
func (b *Builder) Result() values.Value {
	return b.result
}

func (b *Builder) attach(v values.Value) error {
	if len(b.stack) == 0 {
		if b.done {
			return fmt.Errorf("valuecapture: more than one top-level value")
		}
		b.result = v
		b.done = true
		return nil
	}
	top := b.stack[len(b.stack)-1]
	if top.isDict {
		if !top.pendingOK {
			return fmt.Errorf("valuecapture: value with no pending key")
		}
		top.dict.Set(top.pending, v)
		top.pendingOK = false
		return nil
	}
	top.arr = append(top.arr, v)
	return nil
}

func (b *Builder) StartObject(values.ObjectID) error { return nil }
func (b *Builder) EndObject() error                  { return nil }

func (b *Builder) StartDictionary() error {
	b.stack = append(b.stack, &frame{isDict: true, dict: values.NewVDictionary()})
	return nil
}

func (b *Builder) Key(name values.Name) error {
	if len(b.stack) == 0 || !b.stack[len(b.stack)-1].isDict {
		return fmt.Errorf("valuecapture: key event outside dictionary")
	}
	top := b.stack[len(b.stack)-1]
	top.pending = name
	top.pendingOK = true
	return nil
}

func (b *Builder) EndDictionary() error {
	n := len(b.stack)
	if n == 0 || !b.stack[n-1].isDict {
		return fmt.Errorf("valuecapture: unmatched end_dictionary")
	}
	top := b.stack[n-1]
	b.stack = b.stack[:n-1]
	return b.attach(top.dict)
}

func (b *Builder) StartArray() error {
	b.stack = append(b.stack, &frame{isDict: false})
	return nil
}

func (b *Builder) EndArray() error {
	n := len(b.stack)
	if n == 0 || b.stack[n-1].isDict {
		return fmt.Errorf("valuecapture: unmatched end_array")
	}
	top := b.stack[n-1]
	b.stack = b.stack[:n-1]
	arr := top.arr
	if arr == nil {
		arr = values.VArray{}
	}
	return b.attach(arr)
}

func (b *Builder) Boolean(v bool) error              { return b.attach(values.VBoolean(v)) }
func (b *Builder) Number(v values.Number) error      { return b.attach(values.VNumber(v)) }
func (b *Builder) StringValue(v []byte) error        { return b.attach(values.VString(append([]byte(nil), v...))) }
func (b *Builder) NameValue(v values.Name) error     { return b.attach(values.VName(v)) }
func (b *Builder) Null() error                       { return b.attach(values.VNull{}) }
func (b *Builder) Reference(id values.ObjectID) error { return b.attach(values.VReference(id)) }

// StartStream/StreamContent/EndStream never occur while the Lexer has
// redirected into the value-capture sink: stream bodies are always
// parsed with the document sink active — the lexer runs once with the
// value-capture sink to obtain the dictionary, then re-seeks and runs
// again with the document sink.
func (b *Builder) StartStream() error            { return fmt.Errorf("valuecapture: unexpected stream") }
func (b *Builder) StreamContent(p []byte) error  { return fmt.Errorf("valuecapture: unexpected stream") }
func (b *Builder) EndStream() error              { return fmt.Errorf("valuecapture: unexpected stream") }
