package streampdf

import (
	"io"

	"github.com/coregx/streampdf/internal/bytesource"
	"github.com/coregx/streampdf/internal/traverse"
	"github.com/coregx/streampdf/internal/xref"
)

// Parser drives the push/pull traversal of a single PDF document over
// its lifetime. It is not safe for concurrent use; the underlying byte
// source is owned exclusively while a call is in flight.
// Direct construction via NewParser, matching the corpus's style over an
// options struct or builder.
type Parser struct {
	ctl *traverse.Controller
	src *bytesource.ByteSource
}

// NewParser creates a Parser that delivers push-traversal events to
// sink. Attach sub-parsers with SetContentSink/SetOpenTypeSink/
// SetCMapSink before calling Parse or ParseObject.
func NewParser(sink DocumentSink) *Parser {
	return &Parser{ctl: traverse.New(sink)}
}

// SetContentSink attaches the sub-parser fed the decoded bytes of every
// page and form-XObject content stream.
func (p *Parser) SetContentSink(s StreamParser) { p.ctl.SetContentSink(s) }

// SetOpenTypeSink attaches the sub-parser fed embedded font program
// streams (Type 1, TrueType, and bare CFF font files).
func (p *Parser) SetOpenTypeSink(s StreamParser) { p.ctl.SetFontSink(s) }

// SetCMapSink attaches the sub-parser fed /ToUnicode CMap streams.
func (p *Parser) SetCMapSink(s StreamParser) { p.ctl.SetCMapSink(s) }

// NewByteSourceFromReaderAt wraps an io.ReaderAt of known size as a
// ByteSource suitable for Load/Parse. Most callers pass an *os.File
// (size from os.File.Stat) or use NewByteSourceFromBytes for an
// in-memory document.
func NewByteSourceFromReaderAt(r io.ReaderAt, size int64) *bytesource.ByteSource {
	return bytesource.New(r, size)
}

// NewByteSourceFromBytes wraps an in-memory document.
func NewByteSourceFromBytes(data []byte) *bytesource.ByteSource {
	return bytesource.NewMemory(data)
}

// Load populates the cross-reference table and trailer without emitting
// any body events. Required before CatalogID or ParseObject.
func (p *Parser) Load(src *bytesource.ByteSource) error {
	p.src = src
	return p.ctl.Load(src)
}

// Parse performs the full push traversal starting from the document's
// synthetic trailer object, following every object_reference closure
// reachable from /Root and /Info.
func (p *Parser) Parse(src *bytesource.ByteSource) error {
	p.src = src
	return p.ctl.Parse(src)
}

// ParseObject resolves id (InUse or Compressed) and delivers its events
// to sink, for pull-style on-demand traversal after Load.
func (p *Parser) ParseObject(id ObjectID, sink DocumentSink) error {
	return p.ctl.ParseObject(id, sink)
}

// CatalogID returns trailer[/Root], available after Load or Parse.
func (p *Parser) CatalogID() (ObjectID, bool) {
	return p.ctl.CatalogID()
}

// CrossReferenceTable returns read-only access to the merged
// cross-reference table built by Load.
func (p *Parser) CrossReferenceTable() *xref.Table {
	return p.ctl.CrossReferenceTable()
}

// Trailer returns the merged trailer dictionary built by Load.
func (p *Parser) Trailer() *VDictionary {
	return p.ctl.Trailer()
}
