package streampdf

import "github.com/coregx/streampdf/internal/perr"

// Malformed reports a syntax violation encountered while parsing.
type Malformed = perr.Malformed

// Truncated reports end-of-source before an expected token or byte.
type Truncated = perr.Truncated

// UnresolvedReference reports that a required indirect reference points
// to an object that is absent or free.
type UnresolvedReference = perr.UnresolvedReference

// InconsistentObject reports an object-number mismatch between an xref
// entry and the indirect-object header it points at.
type InconsistentObject = perr.InconsistentObject

// FilterError reports a decoder-specific failure in the filter pipeline.
type FilterError = perr.FilterError

// IOError wraps a failure of the underlying byte source.
type IOError = perr.IOError
