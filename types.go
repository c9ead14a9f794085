package streampdf

import (
	"github.com/coregx/streampdf/internal/event"
	"github.com/coregx/streampdf/internal/values"
)

// DocumentSink receives the full event stream produced while parsing.
// See internal/event for the complete method set and its contract.
type DocumentSink = event.DocumentSink

// StreamParser is the contract a specialized sub-parser (content, font,
// CMap) exposes to the filter pipeline's terminal dispatcher.
type StreamParser = event.StreamParser

// ObjectID identifies an indirect object by (object number, generation).
type ObjectID = values.ObjectID

// Name is a PDF name value.
type Name = values.Name

// Number holds an integer or real PDF numeric literal.
type Number = values.Number

// StreamType tags the inferred semantic role of a stream.
type StreamType = values.StreamType

const (
	StreamDefault         = values.StreamDefault
	StreamContent         = values.StreamContent
	StreamCMap            = values.StreamCMap
	StreamMetadata        = values.StreamMetadata
	StreamFontType1       = values.StreamFontType1
	StreamFontTrueType    = values.StreamFontTrueType
	StreamFontOpenTypeCFF = values.StreamFontOpenTypeCFF
	StreamFontCFF         = values.StreamFontCFF
	StreamICCProfile      = values.StreamICCProfile
	StreamObjectStream    = values.StreamObjectStream
	StreamXRefStream      = values.StreamXRefStream
)

// Int constructs an integer Number.
func Int(v int64) Number { return values.Int(v) }

// Real constructs a real Number.
func Real(v float64) Number { return values.Real(v) }

// Value is the internal tree representation returned by Parser.Trailer
// and by DocumentInfo resolution: one of VBoolean, VNumber, VString,
// VName, VNull, VReference, VArray, or *VDictionary.
type Value = values.Value

type (
	VBoolean   = values.VBoolean
	VNumber    = values.VNumber
	VString    = values.VString
	VName      = values.VName
	VNull      = values.VNull
	VReference = values.VReference
	VArray     = values.VArray
	VDictionary = values.VDictionary
)

// GetInteger resolves a direct integer under key in dict.
func GetInteger(dict *VDictionary, key Name) (int64, bool) { return values.GetInteger(dict, key) }

// GetName resolves a direct name under key in dict.
func GetName(dict *VDictionary, key Name) (Name, bool) { return values.GetName(dict, key) }
