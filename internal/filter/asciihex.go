package filter

import "github.com/coregx/streampdf/internal/perr"

// decodeASCIIHex decodes an ASCIIHexDecode stream: whitespace is
// ignored, a trailing odd digit is padded with an implicit zero nibble,
// and decoding stops at the first '>' (or end of input if the
// terminator is missing).
func decodeASCIIHex(raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw)/2)
	var highNibble byte
	haveHigh := false

	for _, c := range raw {
		if c == '>' {
			break
		}
		if isHexWhitespace(c) {
			continue
		}
		v, ok := hexDigitValue(c)
		if !ok {
			return nil, perr.NewFilterError("ASCIIHexDecode", "invalid hex digit", nil)
		}
		if !haveHigh {
			highNibble = v
			haveHigh = true
			continue
		}
		out = append(out, highNibble<<4|v)
		haveHigh = false
	}
	if haveHigh {
		out = append(out, highNibble<<4)
	}
	return out, nil
}

func isHexWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	default:
		return false
	}
}

func hexDigitValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
