package filter

import "github.com/coregx/streampdf/internal/perr"

// decodeASCII85 decodes an ASCII85Decode stream: groups of five bytes in
// ['!', 'u'] map to four decoded bytes via base-85, the 'z' shortcut
// expands to four zero bytes, whitespace is ignored, and decoding stops
// at the "~>" terminator, or end of input if the terminator is missing.
func decodeASCII85(raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw)*4/5)
	var group [5]byte
	n := 0

	flush := func(count int) error {
		if count == 0 {
			return nil
		}
		for i := count; i < 5; i++ {
			group[i] = 'u'
		}
		var v uint32
		for _, c := range group {
			v = v*85 + uint32(c-'!')
		}
		b := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		out = append(out, b[:count-1]...)
		return nil
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '~':
			goto done
		case isHexWhitespace(c):
			continue
		case c == 'z' && n == 0:
			out = append(out, 0, 0, 0, 0)
			continue
		case c < '!' || c > 'u':
			return nil, perr.NewFilterError("ASCII85Decode", "byte out of range", nil)
		}
		group[n] = c
		n++
		if n == 5 {
			if err := flush(5); err != nil {
				return nil, err
			}
			n = 0
		}
	}
done:
	if n > 0 {
		if err := flush(n); err != nil {
			return nil, err
		}
	}
	return out, nil
}
