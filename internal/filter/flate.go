package filter

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/coregx/streampdf/internal/values"
)

// decodeFlate inflates a FlateDecode stream and reverses a PNG or TIFF
// predictor if /DecodeParms requests one. zlib is the standard library's
// own DEFLATE/zlib implementation; none of the example repos carry a
// third-party zlib replacement, so this is the one filter grounded on
// the standard library rather than a pack dependency (noted in
// DESIGN.md).
func decodeFlate(raw []byte, parms *values.VDictionary) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil && len(data) == 0 {
		return nil, err
	}
	return applyPredictor(data, readPredictorParams(parms)), nil
}
