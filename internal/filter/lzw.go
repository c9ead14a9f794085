package filter

import (
	"bytes"
	"io"

	"github.com/hhrutter/lzw"

	"github.com/coregx/streampdf/internal/values"
)

// decodeLZW decodes an LZWDecode stream using the variable-width LZW
// variant PDF specifies (MSB-first codes, clear/EOD codes, optional
// early code-width bump). Grounded on benoitkugler-pdf's
// reader/parser/filters/lzwDecode.go, which wires the same third-party
// decoder for the identical PDF-flavoured algorithm; the standard
// library's compress/lzw does not implement PDF's early-change
// convention.
func decodeLZW(raw []byte, parms *values.VDictionary) ([]byte, error) {
	earlyChange := true
	if v, ok := values.GetInteger(parms, "EarlyChange"); ok {
		earlyChange = v != 0
	}

	r := lzw.NewReader(bytes.NewReader(raw), earlyChange)
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil && len(data) == 0 {
		return nil, err
	}
	return applyPredictor(data, readPredictorParams(parms)), nil
}
