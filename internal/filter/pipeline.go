// Package filter implements an ordered filter chain over FlateDecode,
// ASCIIHexDecode, ASCII85Decode, LZWDecode, RunLengthDecode,
// plus the terminal dispatcher that tees decoded bytes to the document
// sink and an optional specialized sub-parser, and the additional
// byte-collector tee used when the stream declares /Type /ObjStm.
//
// Grounded on the teacher's Reader.decodeStream/applyFilter
// (internal/parser/reader.go), generalized from its single-filter
// handling to an ordered chain, and on the predictor math in
// benoitkugler-pdf/reader/parser/filters/flateDecode.go.
package filter

import (
	"github.com/coregx/streampdf/internal/event"
	"github.com/coregx/streampdf/internal/perr"
	"github.com/coregx/streampdf/internal/values"
)

// dispatchChunkSize bounds how much decoded data is offered to the
// sub-parser per Feed call, so the carry-over buffering path in
// Pipeline.Dispatch is actually exercised instead of always resolving
// in a single call.
const dispatchChunkSize = 4096

// stage is one constructed filter in the chain.
type stage struct {
	name   string
	decode func([]byte) ([]byte, error)
}

// Pipeline is the constructed, ordered filter chain for a single stream.
type Pipeline struct {
	stages  []stage
	isObjStm bool
}

// abbreviations maps the short filter names PDF allows to their full
// names.
var abbreviations = map[values.Name]values.Name{
	"Fl":  "FlateDecode",
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"LZW": "LZWDecode",
	"RL":  "RunLengthDecode",
}

func canonicalFilterName(n values.Name) values.Name {
	if full, ok := abbreviations[n]; ok {
		return full
	}
	return n
}

// New constructs a Pipeline from the stream dictionary's /Filter and
// /DecodeParms (or /F, /DP). Unknown filter names are skipped (pass
// through unchanged) rather than rejected as an error.
func New(dict *values.VDictionary) (*Pipeline, error) {
	names := filterNames(dict)
	parmsList := decodeParmsList(dict, len(names))

	p := &Pipeline{}
	for i, name := range names {
		name = canonicalFilterName(name)
		var parms *values.VDictionary
		if i < len(parmsList) {
			parms = parmsList[i]
		}
		dec, err := buildDecoder(name, parms)
		if err != nil {
			return nil, err
		}
		p.stages = append(p.stages, stage{name: string(name), decode: dec})
	}

	if typ, ok := values.GetName(dict, "Type"); ok && typ == "ObjStm" {
		p.isObjStm = true
	}
	return p, nil
}

// IsObjectStream reports whether the stream dictionary declared
// /Type /ObjStm, which triggers the byte-collector tee in Dispatch.
func (p *Pipeline) IsObjectStream() bool { return p.isObjStm }

func filterNames(dict *values.VDictionary) []values.Name {
	v := dict.Get("Filter")
	if v == nil {
		v = dict.Get("F")
	}
	switch t := v.(type) {
	case values.VName:
		return []values.Name{values.Name(t)}
	case values.VArray:
		var out []values.Name
		for _, el := range t {
			if n, ok := el.(values.VName); ok {
				out = append(out, values.Name(n))
			}
		}
		return out
	default:
		return nil
	}
}

func decodeParmsList(dict *values.VDictionary, n int) []*values.VDictionary {
	v := dict.Get("DecodeParms")
	if v == nil {
		v = dict.Get("DP")
	}
	switch t := v.(type) {
	case *values.VDictionary:
		return []*values.VDictionary{t}
	case values.VArray:
		out := make([]*values.VDictionary, len(t))
		for i, el := range t {
			if d, ok := el.(*values.VDictionary); ok {
				out[i] = d
			}
		}
		return out
	default:
		return nil
	}
}

func buildDecoder(name values.Name, parms *values.VDictionary) (func([]byte) ([]byte, error), error) {
	switch name {
	case "FlateDecode":
		return func(raw []byte) ([]byte, error) { return decodeFlate(raw, parms) }, nil
	case "LZWDecode":
		return func(raw []byte) ([]byte, error) { return decodeLZW(raw, parms) }, nil
	case "ASCIIHexDecode":
		return decodeASCIIHex, nil
	case "ASCII85Decode":
		return decodeASCII85, nil
	case "RunLengthDecode":
		return decodeRunLength, nil
	default:
		// Unknown filter: pass bytes through unchanged.
		return func(raw []byte) ([]byte, error) { return raw, nil }, nil
	}
}

// Decode runs raw through the full chain in order and returns the final
// decoded bytes.
func (p *Pipeline) Decode(raw []byte) ([]byte, error) {
	cur := raw
	for _, s := range p.stages {
		out, err := s.decode(cur)
		if err != nil {
			return nil, perr.NewFilterError(s.name, "decode failed", err)
		}
		cur = out
	}
	return cur, nil
}

// Dispatch is the terminal node of the pipeline: it delivers decoded to
// the document sink via StreamContent in bounded
// chunks, and — if subParser is non-nil — feeds it the same bytes with
// carry-over buffering (bytes the sub-parser didn't consume are
// re-presented prefixed to the next chunk; on completion the remainder
// is offered once more before Close). If the pipeline's dictionary
// declared /Type /ObjStm, the full decoded buffer is also returned for
// the ObjectStreamCache.
func (p *Pipeline) Dispatch(decoded []byte, sink event.DocumentSink, subParser event.StreamParser) (objStmBytes []byte, err error) {
	var carry []byte
	for off := 0; off < len(decoded) || off == 0 && len(decoded) == 0; {
		end := off + dispatchChunkSize
		if end > len(decoded) {
			end = len(decoded)
		}
		chunk := decoded[off:end]
		if err := sink.StreamContent(chunk); err != nil {
			return nil, err
		}
		if subParser != nil {
			feed := append(carry, chunk...)
			consumed, ferr := subParser.Feed(feed)
			if ferr != nil {
				return nil, ferr
			}
			if consumed > len(feed) {
				consumed = len(feed)
			}
			carry = append([]byte(nil), feed[consumed:]...)
		}
		if len(decoded) == 0 {
			break
		}
		off = end
	}
	if subParser != nil {
		if err := subParser.Close(carry); err != nil {
			return nil, err
		}
	}
	if p.isObjStm {
		objStmBytes = decoded
	}
	return objStmBytes, nil
}
