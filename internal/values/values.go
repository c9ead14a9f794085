// Package values defines the atomic and composite PDF value types shared
// across the engine: the Lexer produces them, the value-capture sink
// assembles them into trees, and the traversal controller tags them with
// inferred stream types. Apart from the merged trailer dictionary the
// cross-reference table keeps, none of these values are retained by the
// core beyond a single resolution step.
package values

import "fmt"

// ObjectID identifies an indirect object by (object number, generation).
// Value-equal and hashable, so it can be used directly as a map key for
// the visited set and the xref table.
type ObjectID struct {
	Num int
	Gen int
}

// String returns the textual form "N G R".
func (id ObjectID) String() string {
	return fmt.Sprintf("%d %d R", id.Num, id.Gen)
}

// Name is a case-sensitive, non-null byte sequence. It is value-equal
// and usable as a map key; the zero value is the empty name.
type Name string

// Number holds either an integer or a real, matching PDF's single
// numeric literal grammar ("1" and "1.0" are both Number, distinguished
// only by whether a '.' appeared in the source text).
type Number struct {
	isReal bool
	i      int64
	f      float64
}

// Int constructs an integer Number.
func Int(v int64) Number { return Number{i: v} }

// Real constructs a real Number.
func Real(v float64) Number { return Number{isReal: true, f: v} }

// IsReal reports whether the number was written with a decimal point.
func (n Number) IsReal() bool { return n.isReal }

// Int64 returns the integer value, truncating a real toward zero.
func (n Number) Int64() int64 {
	if n.isReal {
		return int64(n.f)
	}
	return n.i
}

// Float64 returns the floating-point value.
func (n Number) Float64() float64 {
	if n.isReal {
		return n.f
	}
	return float64(n.i)
}

func (n Number) String() string {
	if n.isReal {
		return fmt.Sprintf("%g", n.f)
	}
	return fmt.Sprintf("%d", n.i)
}

// StreamType tags the semantic role the traversal controller inferred
// for a stream, used to select which specialized sub-parser (if any) the
// filter pipeline's dispatcher attaches.
type StreamType int

const (
	StreamDefault StreamType = iota
	StreamContent
	StreamCMap
	StreamMetadata
	StreamFontType1
	StreamFontTrueType
	StreamFontOpenTypeCFF
	StreamFontCFF
	StreamICCProfile
	StreamObjectStream
	StreamXRefStream
)

func (t StreamType) String() string {
	switch t {
	case StreamContent:
		return "CONTENT"
	case StreamCMap:
		return "CMAP"
	case StreamMetadata:
		return "METADATA"
	case StreamFontType1:
		return "FONT_TYPE1"
	case StreamFontTrueType:
		return "FONT_TRUETYPE"
	case StreamFontOpenTypeCFF:
		return "FONT_OPENTYPE_CFF"
	case StreamFontCFF:
		return "FONT_CFF"
	case StreamICCProfile:
		return "ICC_PROFILE"
	case StreamObjectStream:
		return "OBJECT_STREAM"
	case StreamXRefStream:
		return "XREF_STREAM"
	default:
		return "DEFAULT"
	}
}

// Value is the internal tree representation assembled by the
// value-capture sink (internal/valuecapture) when the Lexer needs to
// know a value without delivering it to the application's document sink
// twice — the stream /Length, an xref-stream dictionary, an
// object-stream dictionary.
//
// Value is never delivered as a sink event: application sinks receive
// only the event.DocumentSink callback protocol. The root package
// re-exports these types so callers can read the merged trailer
// dictionary returned by Parser.Trailer.
type Value interface {
	isValue()
}

type VBoolean bool
type VNumber Number
type VString []byte
type VName Name
type VNull struct{}
type VReference ObjectID

type VArray []Value

type VDictionary struct {
	keys   []Name
	values map[Name]Value
}

// NewVDictionary creates an empty dictionary value.
func NewVDictionary() *VDictionary {
	return &VDictionary{values: make(map[Name]Value)}
}

// Set assigns key to value. Duplicate keys within a single dictionary
// keep the last-seen mapping, matching the teacher's map semantics in
// internal/parser (Dictionary.Set).
func (d *VDictionary) Set(key Name, v Value) {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Get returns the value for key, or nil if absent.
func (d *VDictionary) Get(key Name) Value {
	return d.values[key]
}

// Keys returns the dictionary's keys in first-seen order.
func (d *VDictionary) Keys() []Name {
	return d.keys
}

func (VBoolean) isValue()     {}
func (VNumber) isValue()      {}
func (VString) isValue()      {}
func (VName) isValue()        {}
func (VNull) isValue()        {}
func (VReference) isValue()   {}
func (VArray) isValue()       {}
func (*VDictionary) isValue() {}

// GetInteger is a convenience accessor used throughout the xref and
// object-stream layers: it resolves direct integers found under key,
// returning (0, false) for anything else, including references (callers
// needing reference resolution must do so explicitly).
func GetInteger(d *VDictionary, key Name) (int64, bool) {
	if d == nil {
		return 0, false
	}
	if n, ok := d.Get(key).(VNumber); ok {
		return Number(n).Int64(), true
	}
	return 0, false
}

// GetName is a convenience accessor for a direct Name value under key.
func GetName(d *VDictionary, key Name) (Name, bool) {
	if d == nil {
		return "", false
	}
	if n, ok := d.Get(key).(VName); ok {
		return Name(n), true
	}
	return "", false
}
