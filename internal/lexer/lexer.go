// Package lexer implements a recursive-descent tokenizer and object
// reader: it reads directly from a bytesource.ByteSource (no
// intermediate token stream) and emits PDF-atom and composite-value
// events to whichever event.DocumentSink is currently active, restoring
// the caller's sink on every exit path.
//
// Grounded on the retrieved internal/parser/lexer.go fork's character
// classification and escape handling, rewritten against a seekable
// source so the speculative "N G R" lookahead in parseNumberOrReference
// can roll back with an exact Seek instead of the fork's bufio.Reader
// swap, which its own comment admits cannot perfectly restore state.
package lexer

import (
	"strconv"

	"github.com/coregx/streampdf/internal/bytesource"
	"github.com/coregx/streampdf/internal/event"
	"github.com/coregx/streampdf/internal/perr"
	"github.com/coregx/streampdf/internal/values"
)

// Lexer tokenizes and recursively parses PDF syntax from a ByteSource.
type Lexer struct {
	src *bytesource.ByteSource
}

// New creates a Lexer reading from src.
func New(src *bytesource.ByteSource) *Lexer {
	return &Lexer{src: src}
}

// Source returns the underlying ByteSource, used by callers (the
// indirect-object framer, the xref engine) that need to seek and re-run
// the lexer, or hand the position to the FilterPipeline.
func (l *Lexer) Source() *bytesource.ByteSource { return l.src }

// isWhitespace reports PDF whitespace: NUL, HT, LF, FF, CR, SP.
func isWhitespace(b int) bool {
	switch b {
	case 0, 9, 10, 12, 13, 32:
		return true
	}
	return false
}

// isDelimiter reports a PDF delimiter: ( ) < > [ ] { } / %.
func isDelimiter(b int) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(b int) bool {
	return b != bytesource.EOF && !isWhitespace(b) && !isDelimiter(b)
}

func isDigit(b int) bool { return b >= '0' && b <= '9' }

func isHexDigit(b int) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b int) int {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// SkipWhitespace consumes whitespace and comments ('%' to end of line).
func (l *Lexer) SkipWhitespace() {
	for {
		b := l.src.Peek()
		if isWhitespace(b) {
			l.src.ReadByte()
			continue
		}
		if b == '%' {
			for {
				c := l.src.ReadByte()
				if c == bytesource.EOF || c == '\r' || c == '\n' {
					break
				}
			}
			continue
		}
		return
	}
}

// expectLiteral consumes exactly the given ASCII literal, failing
// Malformed if the bytes don't match.
func (l *Lexer) expectLiteral(lit string) error {
	start := l.src.Position()
	for i := 0; i < len(lit); i++ {
		b := l.src.ReadByte()
		if b != int(lit[i]) {
			return perr.NewMalformedf(start, "expected %q", lit)
		}
	}
	return nil
}

// ParseValue parses exactly one direct PDF value (scalar or composite)
// from the current position and emits it to sink. A Name parsed here is
// emitted as NameValue only; dictionary keys are read by parseDictionary,
// which fires sink.Key for them itself.
func (l *Lexer) ParseValue(sink event.DocumentSink) error {
	l.SkipWhitespace()
	pos := l.src.Position()
	b := l.src.Peek()
	switch {
	case b == bytesource.EOF:
		return l.src.TruncatedOrIOError(pos)
	case b == '[':
		return l.parseArray(sink)
	case b == '<':
		return l.parseDictOrHex(sink)
	case b == '(':
		return l.parseLiteralString(sink)
	case b == '/':
		name, err := l.readName()
		if err != nil {
			return err
		}
		return sink.NameValue(name)
	case b == '+' || b == '-' || b == '.' || isDigit(b):
		return l.parseNumberOrReference(sink)
	case isRegular(b):
		return l.parseKeyword(sink)
	default:
		return perr.NewMalformedf(pos, "unexpected byte %q", byte(b))
	}
}

func (l *Lexer) parseDictOrHex(sink event.DocumentSink) error {
	start := l.src.Position()
	l.src.ReadByte() // consume '<'
	if l.src.Peek() == '<' {
		l.src.ReadByte() // consume second '<'
		return l.parseDictionary(sink)
	}
	return l.readHexStringInto(sink, start)
}

func (l *Lexer) readHexStringInto(sink event.DocumentSink, start int64) error {
	var out []byte
	haveNibble := false
	hi := 0
	for {
		b := l.src.ReadByte()
		if b == bytesource.EOF {
			return l.src.TruncatedOrIOError(start)
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			// Invalid hex characters are ignored.
			continue
		}
		if !haveNibble {
			hi = hexVal(b)
			haveNibble = true
			continue
		}
		out = append(out, byte(hi<<4|hexVal(b)))
		haveNibble = false
	}
	if haveNibble {
		// Odd trailing nibble: high nibble of a zero-padded byte.
		out = append(out, byte(hi<<4))
	}
	return sink.StringValue(out)
}

func (l *Lexer) parseLiteralString(sink event.DocumentSink) error {
	start := l.src.Position()
	l.src.ReadByte() // consume '('
	var out []byte
	depth := 1
	for depth > 0 {
		b := l.src.ReadByte()
		if b == bytesource.EOF {
			return l.src.TruncatedOrIOError(start)
		}
		switch b {
		case '(':
			depth++
			out = append(out, '(')
		case ')':
			depth--
			if depth > 0 {
				out = append(out, ')')
			}
		case '\\':
			esc := l.src.ReadByte()
			if esc == bytesource.EOF {
				return l.src.TruncatedOrIOError(start)
			}
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, byte(esc))
			case '\r':
				if l.src.Peek() == '\n' {
					l.src.ReadByte()
				}
			case '\n':
				// line continuation, nothing emitted
			default:
				if esc >= '0' && esc <= '7' {
					val := esc - '0'
					for i := 0; i < 2; i++ {
						p := l.src.Peek()
						if p < '0' || p > '7' {
							break
						}
						l.src.ReadByte()
						val = val*8 + (p - '0')
					}
					out = append(out, byte(val&0xFF))
				} else {
					// Unrecognized escape: pass the escaped byte through.
					out = append(out, byte(esc))
				}
			}
		default:
			out = append(out, byte(b))
		}
	}
	return sink.StringValue(out)
}

func (l *Lexer) readName() (values.Name, error) {
	start := l.src.Position()
	l.src.ReadByte() // consume '/'
	var out []byte
	for {
		b := l.src.Peek()
		if b == bytesource.EOF || isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.src.ReadByte()
		if b == '#' {
			h1, h2 := l.src.Peek(), bytesource.EOF
			if !isHexDigit(h1) {
				out = append(out, '#')
				continue
			}
			l.src.ReadByte()
			h2 = l.src.Peek()
			if !isHexDigit(h2) {
				out = append(out, byte(h1))
				continue
			}
			l.src.ReadByte()
			out = append(out, byte(hexVal(h1)<<4|hexVal(h2)))
			continue
		}
		out = append(out, byte(b))
	}
	if len(out) == 0 && l.src.Position() == start+1 {
		// Bare "/" is a valid (empty) name per PDF; nothing further to do.
	}
	return values.Name(out), nil
}

// parseNumberOrReference implements the speculative "N G R" lookahead:
// on parsing an integer, try to continue as an indirect reference; on
// any deviation, restore position and emit a plain number.
func (l *Lexer) parseNumberOrReference(sink event.DocumentSink) error {
	start := l.src.Position()
	n1, isReal, err := l.readNumberLiteral()
	if err != nil {
		return err
	}
	if isReal {
		f, _ := strconv.ParseFloat(n1, 64)
		return sink.Number(values.Real(f))
	}
	firstInt, _ := strconv.ParseInt(n1, 10, 64)

	afterFirst := l.src.Position()
	l.SkipWhitespace()
	b := l.src.Peek()
	if isDigit(b) {
		n2, isReal2, err := l.readNumberLiteral()
		if err == nil && !isReal2 {
			secondInt, _ := strconv.ParseInt(n2, 10, 64)
			afterSecond := l.src.Position()
			l.SkipWhitespace()
			if l.src.Peek() == 'R' {
				rPos := l.src.Position()
				l.src.ReadByte()
				// "R" must end a token: next byte must not be regular.
				if !isRegular(l.src.Peek()) {
					return sink.Reference(values.ObjectID{Num: int(firstInt), Gen: int(secondInt)})
				}
				l.src.Seek(rPos)
			}
			l.src.Seek(afterSecond)
			_ = start
		}
	}
	l.src.Seek(afterFirst)
	return sink.Number(values.Int(firstInt))
}

// readNumberLiteral reads a signed integer or real literal starting at
// the current position, returning its decimal text and whether it
// contained a '.'.
func (l *Lexer) readNumberLiteral() (string, bool, error) {
	start := l.src.Position()
	var out []byte
	b := l.src.Peek()
	if b == '+' || b == '-' {
		out = append(out, byte(b))
		l.src.ReadByte()
	}
	hasDigit, hasDot := false, false
	for {
		b := l.src.Peek()
		switch {
		case isDigit(b):
			out = append(out, byte(b))
			l.src.ReadByte()
			hasDigit = true
		case b == '.' && !hasDot:
			out = append(out, '.')
			l.src.ReadByte()
			hasDot = true
		default:
			goto done
		}
	}
done:
	if !hasDigit && !hasDot {
		return "", false, perr.NewMalformedf(start, "invalid number")
	}
	return string(out), hasDot, nil
}

func (l *Lexer) parseKeyword(sink event.DocumentSink) error {
	start := l.src.Position()
	var out []byte
	for {
		b := l.src.Peek()
		if !isRegular(b) {
			break
		}
		out = append(out, byte(b))
		l.src.ReadByte()
	}
	switch string(out) {
	case "true":
		return sink.Boolean(true)
	case "false":
		return sink.Boolean(false)
	case "null":
		return sink.Null()
	default:
		return perr.NewMalformedf(start, "unexpected keyword %q", out)
	}
}

func (l *Lexer) parseArray(sink event.DocumentSink) error {
	l.src.ReadByte() // consume '['
	if err := sink.StartArray(); err != nil {
		return err
	}
	for {
		l.SkipWhitespace()
		if l.src.Peek() == ']' {
			l.src.ReadByte()
			return sink.EndArray()
		}
		if l.src.Peek() == bytesource.EOF {
			return l.src.TruncatedOrIOError(l.src.Position())
		}
		if err := l.ParseValue(sink); err != nil {
			return err
		}
	}
}

func (l *Lexer) parseDictionary(sink event.DocumentSink) error {
	if err := sink.StartDictionary(); err != nil {
		return err
	}
	for {
		l.SkipWhitespace()
		if l.src.Peek() == '>' {
			start := l.src.Position()
			l.src.ReadByte()
			if l.src.Peek() != '>' {
				return perr.NewMalformedf(start, "expected '>>'")
			}
			l.src.ReadByte()
			return sink.EndDictionary()
		}
		if l.src.Peek() != '/' {
			return perr.NewMalformedf(l.src.Position(), "expected dictionary key")
		}
		name, err := l.readName()
		if err != nil {
			return err
		}
		if err := sink.Key(name); err != nil {
			return err
		}
		l.SkipWhitespace()
		if err := l.ParseValue(sink); err != nil {
			return err
		}
	}
}
