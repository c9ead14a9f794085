package lexer

import (
	"strconv"

	"github.com/coregx/streampdf/internal/bytesource"
	"github.com/coregx/streampdf/internal/event"
	"github.com/coregx/streampdf/internal/filter"
	"github.com/coregx/streampdf/internal/perr"
	"github.com/coregx/streampdf/internal/values"
	"github.com/coregx/streampdf/internal/valuecapture"
)

// LengthResolver resolves an indirect reference appearing as a stream
// dictionary's /Length value. The traversal controller supplies the
// implementation (it alone knows how to look up and parse an arbitrary
// object by id); the lexer package stays ignorant of xref and object
// streams.
type LengthResolver interface {
	ResolveLength(ref values.ObjectID) (int64, error)
}

// ParseIndirectObject reads one "N G obj ... endobj" construct starting
// at the lexer's current position. The object's direct value is always
// parsed twice: once into an internal value-capture sink (which, for a
// dictionary followed by a stream body, supplies /Length and /Type,
// /Filter, /DecodeParms), then again — from the same starting offset —
// into doc, so the application observes the value's events exactly once.
//
// selectSubParser, if non-nil, is invoked once the stream dictionary is
// known (so the decision can depend on the dictionary's own /Subtype,
// not just the context the caller discovered the object under) and may
// return a StreamParser to feed the stream's decoded bytes through the
// carry-over protocol. When the stream dictionary
// declares /Type /ObjStm, the full decoded buffer is returned as
// objStmData for the ObjectStreamCache regardless of selectSubParser.
// dict is the object's direct value when it is a dictionary (nil
// otherwise), returned for callers — the xref engine and the
// ObjectStreamCache — that need the dictionary itself rather than just
// its events.
func (l *Lexer) ParseIndirectObject(doc event.DocumentSink, resolver LengthResolver, selectSubParser func(dict *values.VDictionary) event.StreamParser) (id values.ObjectID, dict *values.VDictionary, objStmData []byte, err error) {
	l.SkipWhitespace()
	headerStart := l.src.Position()

	num, err := l.readInt()
	if err != nil {
		return values.ObjectID{}, nil, nil, err
	}
	l.SkipWhitespace()
	gen, err := l.readInt()
	if err != nil {
		return values.ObjectID{}, nil, nil, err
	}
	l.SkipWhitespace()
	if err := l.expectLiteral("obj"); err != nil {
		return values.ObjectID{}, nil, nil, err
	}

	id = values.ObjectID{Num: num, Gen: gen}

	l.SkipWhitespace()
	valueStart := l.src.Position()

	capture := valuecapture.New()
	if err := l.ParseValue(capture); err != nil {
		return id, nil, nil, err
	}
	capturedDict, isDict := capture.Result().(*values.VDictionary)
	if isDict {
		dict = capturedDict
	}

	l.src.Seek(valueStart)
	if err := doc.StartObject(id); err != nil {
		return id, dict, nil, err
	}
	if err := l.ParseValue(doc); err != nil {
		return id, dict, nil, err
	}

	l.SkipWhitespace()
	hasStream := l.TryKeyword("stream")
	if hasStream && isDict {
		var subParser event.StreamParser
		if selectSubParser != nil {
			subParser = selectSubParser(capturedDict)
		}
		objStmData, err = l.parseStream(doc, capturedDict, resolver, subParser)
		if err != nil {
			return id, dict, nil, err
		}
	}

	l.SkipWhitespace()
	if err := l.expectLiteral("endobj"); err != nil {
		return id, dict, objStmData, err
	}
	if err := doc.EndObject(); err != nil {
		return id, dict, objStmData, err
	}
	_ = headerStart
	return id, dict, objStmData, nil
}

// TryKeyword reports whether the literal keyword occurs at the current
// position, consuming it only on success. Exported for the xref engine,
// which needs to distinguish a legacy "xref" table from an xref-stream
// indirect object at the same candidate offset.
func (l *Lexer) TryKeyword(kw string) bool {
	start := l.src.Position()
	for i := 0; i < len(kw); i++ {
		if l.src.ReadByte() != int(kw[i]) {
			l.src.Seek(start)
			return false
		}
	}
	return true
}

func (l *Lexer) readInt() (int, error) {
	start := l.src.Position()
	lit, isReal, err := l.readNumberLiteral()
	if err != nil {
		return 0, err
	}
	if isReal {
		return 0, perr.NewMalformedf(start, "expected integer, found real %q", lit)
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, perr.NewMalformedf(start, "invalid integer %q", lit)
	}
	return int(v), nil
}

// parseStream implements the stream-framing rule: after the
// "stream" keyword, exactly one EOL (CRLF or LF alone; a bare CR is
// tolerated as the terminator per the recovery policy), then exactly
// /Length raw bytes, then optional whitespace and "endstream".
func (l *Lexer) parseStream(doc event.DocumentSink, dict *values.VDictionary, resolver LengthResolver, subParser event.StreamParser) ([]byte, error) {
	if err := l.consumeStreamEOL(); err != nil {
		return nil, err
	}
	dataStart := l.src.Position()

	length, err := l.resolveLength(dict, resolver)
	if err != nil {
		return nil, err
	}

	raw, err := l.src.ReadExact(int(length))
	if err != nil {
		return nil, err
	}

	pipeline, err := filter.New(dict)
	if err != nil {
		return nil, err
	}
	decoded, err := pipeline.Decode(raw)
	if err != nil {
		return nil, err
	}

	if err := doc.StartStream(); err != nil {
		return nil, err
	}
	objStmData, err := pipeline.Dispatch(decoded, doc, subParser)
	if err != nil {
		return nil, err
	}
	if err := doc.EndStream(); err != nil {
		return nil, err
	}

	_ = dataStart
	l.SkipWhitespace()
	if err := l.expectLiteral("endstream"); err != nil {
		return nil, err
	}
	return objStmData, nil
}

// consumeStreamEOL consumes the single end-of-line sequence PDF requires
// immediately after the "stream" keyword.
func (l *Lexer) consumeStreamEOL() error {
	start := l.src.Position()
	b := l.src.ReadByte()
	switch b {
	case '\r':
		if l.src.Peek() == '\n' {
			l.src.ReadByte()
		}
		return nil
	case '\n':
		return nil
	case bytesource.EOF:
		return l.src.TruncatedOrIOError(start)
	default:
		return perr.NewMalformedf(start, "expected EOL after 'stream' keyword")
	}
}

// resolveLength reads /Length from dict, resolving a single level of
// indirection through resolver when it is a reference rather than a
// direct integer. Without a resolver an indirect /Length is an
// UnresolvedReference. Chains of references are not followed: the
// traversal controller's resolver reports a target that is itself a
// reference, or any other non-number, as Malformed.
func (l *Lexer) resolveLength(dict *values.VDictionary, resolver LengthResolver) (int64, error) {
	v := dict.Get("Length")
	switch t := v.(type) {
	case values.VNumber:
		return values.Number(t).Int64(), nil
	case values.VReference:
		if resolver == nil {
			return 0, perr.NewUnresolvedReference(t.Num, t.Gen)
		}
		return resolver.ResolveLength(values.ObjectID(t))
	default:
		return 0, perr.NewMalformedf(l.src.Position(), "stream dictionary missing /Length")
	}
}
