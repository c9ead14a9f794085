// Package event defines the narrow sink contracts the Lexer and
// FilterPipeline deliver parsed constructs and decoded bytes through.
// Exactly one DocumentSink is active at a time; the Lexer borrows it as
// an explicit parameter rather than holding it in mutable shared state.
package event

import "github.com/coregx/streampdf/internal/values"

// DocumentSink receives the full event stream produced while parsing a
// single value or indirect object: start_object/end_object,
// start_dictionary/key/end_dictionary, start_array/end_array, and the
// scalar/composite/reference/stream events a PDF object graph produces.
//
// Implementations may be invoked from any parser code path; the engine
// restores the previously active sink on every exit path, including
// error returns, so a sink error is always observed against a
// consistent bracket structure.
type DocumentSink interface {
	StartObject(id values.ObjectID) error
	EndObject() error

	StartDictionary() error
	Key(name values.Name) error
	EndDictionary() error

	StartArray() error
	EndArray() error

	Boolean(v bool) error
	Number(v values.Number) error
	StringValue(v []byte) error
	NameValue(v values.Name) error
	Null() error
	Reference(id values.ObjectID) error

	StartStream() error
	StreamContent(p []byte) error
	EndStream() error
}

// StreamParser is the contract a specialized sub-parser (content,
// OpenType, CMap) exposes to the FilterPipeline's terminal dispatcher.
// It accepts chunks of decoded bytes and may decline to consume a
// trailing suffix (e.g. a partial token) by reporting a consumed count
// shorter than len(chunk); the dispatcher re-presents the unconsumed
// suffix prefixed to the next chunk (carry-over buffering). Close
// delivers any final remainder once, after the last chunk, before the
// sub-parser is discarded.
type StreamParser interface {
	Feed(chunk []byte) (consumed int, err error)
	Close(remainder []byte) error
}

// discard is a DocumentSink that accepts and ignores every event. Used
// by internal callers (the cross-reference engine, the object-stream
// cache) that parse an indirect object only for its dictionary and raw
// stream bytes, routed elsewhere via an explicit StreamParser, and have
// no application sink to forward events to.
type discard struct{}

func (discard) StartObject(values.ObjectID) error { return nil }
func (discard) EndObject() error                  { return nil }
func (discard) StartDictionary() error            { return nil }
func (discard) Key(values.Name) error             { return nil }
func (discard) EndDictionary() error              { return nil }
func (discard) StartArray() error                 { return nil }
func (discard) EndArray() error                   { return nil }
func (discard) Boolean(bool) error                { return nil }
func (discard) Number(values.Number) error        { return nil }
func (discard) StringValue([]byte) error          { return nil }
func (discard) NameValue(values.Name) error       { return nil }
func (discard) Null() error                       { return nil }
func (discard) Reference(values.ObjectID) error   { return nil }
func (discard) StartStream() error                { return nil }
func (discard) StreamContent([]byte) error        { return nil }
func (discard) EndStream() error                  { return nil }

// Discard is the shared no-op DocumentSink instance.
var Discard DocumentSink = discard{}
