// Package streampdf implements a push-based, event-driven parser for the
// Portable Document Format. There is no in-memory document tree: as the
// parser recognizes lexical and structural constructs, it emits typed
// events to an application-supplied DocumentSink. Callers materialize
// only what they need from the event stream.
//
// Construct a Parser with NewParser, optionally attach sub-parsers for
// content streams, embedded fonts, and CMaps, then call Parse for a full
// breadth-first walk from the document catalog, or Load followed by
// ParseObject to resolve objects on demand.
package streampdf
