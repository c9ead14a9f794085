// Package contentstream implements a minimal operand/operator tokenizer
// for page and form-XObject content streams (PDF 1.7 §7.8), exposed as
// an event.StreamParser so the FilterPipeline can feed it decoded stream
// bytes directly. Content-stream grammar differs from object grammar in
// one essential way: most bare keywords are operators ("Tj", "re", "f"),
// not a closed set of literals, so it does not reuse internal/lexer's
// object-level keyword handling.
//
// Grounded on the forked internal/extractor/content_parser.go
// (Operator/operand-stack shape), restructured around an
// event.StreamParser so it can be handed chunk-by-chunk decoded bytes
// instead of a single fully-buffered []byte.
package contentstream

import (
	"errors"
	"strconv"

	"github.com/coregx/streampdf/internal/bytesource"
	"github.com/coregx/streampdf/internal/perr"
	"github.com/coregx/streampdf/internal/values"
)

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
func parseInt(s string) (int64, error)     { return strconv.ParseInt(s, 10, 64) }

// Operator is one operator and the operands pushed ahead of it, in the
// order PDF 1.7 §7.8.2 specifies ("operand1 operand2 ... operandN op").
type Operator struct {
	Name     string
	Operands []values.Value
}

// Handler receives each operator as it completes.
type Handler func(Operator) error

// errNeedMore signals that the buffered bytes end mid-token; the caller
// should wait for more input rather than treat it as malformed.
var errNeedMore = errors.New("contentstream: incomplete token")

// Parser is an event.StreamParser that tokenizes a content stream and
// invokes handler once per operator.
type Parser struct {
	handler  Handler
	operands []values.Value
}

// New creates a Parser that calls handler for each operator parsed.
func New(handler Handler) *Parser {
	return &Parser{handler: handler}
}

// Feed tokenizes as many complete operator lines as chunk contains,
// reporting the number of leading bytes consumed; FilterPipeline.Dispatch
// prefixes the remainder to the next call.
func (p *Parser) Feed(chunk []byte) (int, error) {
	src := bytesource.NewMemory(chunk)
	consumed := int64(0)
	for {
		skipWhitespace(src)
		if src.Peek() == bytesource.EOF {
			consumed = src.Position()
			break
		}
		mark := src.Position()
		tok, name, isOperator, err := p.readToken(src)
		if err == errNeedMore {
			consumed = mark
			break
		}
		if err != nil {
			return int(mark), err
		}
		if isOperator {
			op := Operator{Name: name, Operands: p.operands}
			p.operands = nil
			if err := p.handler(op); err != nil {
				return int(mark), err
			}
			continue
		}
		p.operands = append(p.operands, tok)
	}
	return int(consumed), nil
}

// Close delivers the final remainder; a trailing partial token at true
// end-of-stream is malformed rather than incomplete.
func (p *Parser) Close(remainder []byte) error {
	if len(remainder) == 0 {
		return nil
	}
	consumed, err := p.Feed(remainder)
	if err != nil {
		return err
	}
	if consumed != len(remainder) {
		return perr.NewMalformedf(int64(consumed), "truncated content stream token")
	}
	return nil
}

func skipWhitespace(src *bytesource.ByteSource) {
	for {
		b := src.Peek()
		if isWhitespace(b) {
			src.ReadByte()
			continue
		}
		if b == '%' {
			for {
				c := src.ReadByte()
				if c == bytesource.EOF || c == '\n' || c == '\r' {
					break
				}
			}
			continue
		}
		return
	}
}

func isWhitespace(b int) bool {
	switch b {
	case 0, 9, 10, 12, 13, 32:
		return true
	}
	return false
}

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

// readToken reads one operand value or operator keyword starting at the
// current position. When the value is an operator, isOperator is true
// and name holds its text; otherwise tok holds the parsed operand.
func (p *Parser) readToken(src *bytesource.ByteSource) (tok values.Value, name string, isOperator bool, err error) {
	b := src.Peek()
	switch {
	case b == bytesource.EOF:
		return nil, "", false, errNeedMore
	case b == '/':
		n, e := readName(src)
		return values.VName(n), "", false, e
	case b == '(':
		s, e := readLiteralString(src)
		return values.VString(s), "", false, e
	case b == '<':
		return p.readAngleToken(src)
	case b == '[':
		arr, e := p.readArray(src)
		return arr, "", false, e
	case b == '+' || b == '-' || b == '.' || isDigit(b):
		n, e := readNumber(src)
		return values.VNumber(n), "", false, e
	case isRegular(b):
		word, e := readWord(src)
		if e != nil {
			return nil, "", false, e
		}
		switch word {
		case "true":
			return values.VBoolean(true), "", false, nil
		case "false":
			return values.VBoolean(false), "", false, nil
		case "null":
			return values.VNull{}, "", false, nil
		case "BI":
			// Inline images carry raw, filter-opaque image data between BI
			// and EI; skipping their binary body is out of scope here.
			return nil, word, true, nil
		default:
			return nil, word, true, nil
		}
	default:
		return nil, "", false, perr.NewMalformedf(src.Position(), "unexpected byte %q in content stream", byte(b))
	}
}

func readWord(src *bytesource.ByteSource) (string, error) {
	start := src.Position()
	var out []byte
	for isRegular(src.Peek()) {
		out = append(out, byte(src.ReadByte()))
	}
	if src.Peek() == bytesource.EOF {
		return "", errNeedMore
	}
	_ = start
	return string(out), nil
}

func readName(src *bytesource.ByteSource) (values.Name, error) {
	src.ReadByte() // consume '/'
	var out []byte
	for {
		b := src.Peek()
		if b == bytesource.EOF {
			return "", errNeedMore
		}
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		src.ReadByte()
		if b == '#' {
			h1 := src.Peek()
			if isHexDigit(h1) {
				src.ReadByte()
				h2 := src.Peek()
				if isHexDigit(h2) {
					src.ReadByte()
					out = append(out, byte(hexVal(h1)<<4|hexVal(h2)))
					continue
				}
				out = append(out, byte(h1))
				continue
			}
			out = append(out, '#')
			continue
		}
		out = append(out, byte(b))
	}
	return values.Name(out), nil
}

func readNumber(src *bytesource.ByteSource) (values.Number, error) {
	var out []byte
	if b := src.Peek(); b == '+' || b == '-' {
		out = append(out, byte(b))
		src.ReadByte()
	}
	hasDigit, hasDot := false, false
	for {
		b := src.Peek()
		switch {
		case isDigit(b):
			out = append(out, byte(b))
			src.ReadByte()
			hasDigit = true
		case b == '.' && !hasDot:
			out = append(out, '.')
			src.ReadByte()
			hasDot = true
		case b == bytesource.EOF:
			return values.Number{}, errNeedMore
		default:
			goto done
		}
	}
done:
	if !hasDigit && !hasDot {
		return values.Number{}, perr.NewMalformedf(src.Position(), "invalid number")
	}
	if hasDot {
		f, _ := parseFloat(string(out))
		return values.Real(f), nil
	}
	n, _ := parseInt(string(out))
	return values.Int(n), nil
}

func readLiteralString(src *bytesource.ByteSource) ([]byte, error) {
	src.ReadByte() // consume '('
	var out []byte
	depth := 1
	for depth > 0 {
		b := src.ReadByte()
		if b == bytesource.EOF {
			return nil, errNeedMore
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
			esc := src.ReadByte()
			if esc == bytesource.EOF {
				return nil, errNeedMore
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
				if src.Peek() == '\n' {
					src.ReadByte()
				}
			case '\n':
			default:
				if esc >= '0' && esc <= '7' {
					val := esc - '0'
					for i := 0; i < 2; i++ {
						d := src.Peek()
						if d < '0' || d > '7' {
							break
						}
						src.ReadByte()
						val = val*8 + (d - '0')
					}
					out = append(out, byte(val&0xFF))
				} else {
					out = append(out, byte(esc))
				}
			}
		default:
			out = append(out, byte(b))
		}
	}
	return out, nil
}

// readAngleToken disambiguates a hex string "<...>" from an inline
// dictionary "<<...>>", mirroring internal/lexer's parseDictOrHex.
func (p *Parser) readAngleToken(src *bytesource.ByteSource) (values.Value, string, bool, error) {
	src.ReadByte() // consume '<'
	if src.Peek() == bytesource.EOF {
		return nil, "", false, errNeedMore
	}
	if src.Peek() == '<' {
		src.ReadByte()
		dict, err := p.readDictionary(src)
		return dict, "", false, err
	}
	s, err := readHexString(src)
	return values.VString(s), "", false, err
}

func readHexString(src *bytesource.ByteSource) ([]byte, error) {
	var out []byte
	haveNibble := false
	hi := 0
	for {
		b := src.ReadByte()
		if b == bytesource.EOF {
			return nil, errNeedMore
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) || !isHexDigit(b) {
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
		out = append(out, byte(hi<<4))
	}
	return out, nil
}

func (p *Parser) readArray(src *bytesource.ByteSource) (values.VArray, error) {
	src.ReadByte() // consume '['
	arr := values.VArray{}
	for {
		skipWhitespace(src)
		b := src.Peek()
		if b == bytesource.EOF {
			return nil, errNeedMore
		}
		if b == ']' {
			src.ReadByte()
			return arr, nil
		}
		v, _, isOp, err := p.readToken(src)
		if err != nil {
			return nil, err
		}
		if isOp {
			return nil, perr.NewMalformedf(src.Position(), "unexpected operator inside array")
		}
		arr = append(arr, v)
	}
}

func (p *Parser) readDictionary(src *bytesource.ByteSource) (*values.VDictionary, error) {
	dict := values.NewVDictionary()
	for {
		skipWhitespace(src)
		b := src.Peek()
		if b == bytesource.EOF {
			return nil, errNeedMore
		}
		if b == '>' {
			src.ReadByte()
			if src.Peek() == bytesource.EOF {
				return nil, errNeedMore
			}
			if src.Peek() != '>' {
				return nil, perr.NewMalformedf(src.Position(), "expected '>>'")
			}
			src.ReadByte()
			return dict, nil
		}
		if b != '/' {
			return nil, perr.NewMalformedf(src.Position(), "expected dictionary key")
		}
		key, err := readName(src)
		if err != nil {
			return nil, err
		}
		skipWhitespace(src)
		val, _, isOp, err := p.readToken(src)
		if err != nil {
			return nil, err
		}
		if isOp {
			return nil, perr.NewMalformedf(src.Position(), "unexpected operator as dictionary value")
		}
		dict.Set(key, val)
	}
}

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
