package traverse

import (
	"github.com/coregx/streampdf/internal/event"
	"github.com/coregx/streampdf/internal/values"
)

// trackingSink wraps the application's document sink during a single
// object's events, forwarding everything unchanged while also watching
// for object_reference events so the controller can classify them
// (stream-type inference) and remember them for later traversal. Its
// current_key/current_object_type context lives entirely on this
// value, scoped to one call — the cheapest way to satisfy the
// reentrancy requirement that nested parse_object calls save and
// restore traversal context, without ever having anything to save or
// restore.
type trackingSink struct {
	inner event.DocumentSink
	ctl   *Controller

	currentKey values.Name
	typeStack  []values.Name
}

func newTrackingSink(inner event.DocumentSink, ctl *Controller) *trackingSink {
	return &trackingSink{inner: inner, ctl: ctl}
}

func (t *trackingSink) StartObject(id values.ObjectID) error { return t.inner.StartObject(id) }
func (t *trackingSink) EndObject() error                     { return t.inner.EndObject() }

func (t *trackingSink) StartDictionary() error {
	t.typeStack = append(t.typeStack, "")
	return t.inner.StartDictionary()
}

func (t *trackingSink) EndDictionary() error {
	if n := len(t.typeStack); n > 0 {
		t.typeStack = t.typeStack[:n-1]
	}
	return t.inner.EndDictionary()
}

func (t *trackingSink) Key(name values.Name) error {
	t.currentKey = name
	return t.inner.Key(name)
}

func (t *trackingSink) StartArray() error { return t.inner.StartArray() }
func (t *trackingSink) EndArray() error   { return t.inner.EndArray() }

func (t *trackingSink) Boolean(v bool) error       { return t.inner.Boolean(v) }
func (t *trackingSink) Number(v values.Number) error { return t.inner.Number(v) }
func (t *trackingSink) StringValue(v []byte) error { return t.inner.StringValue(v) }

func (t *trackingSink) NameValue(v values.Name) error {
	if t.currentKey == "Type" && len(t.typeStack) > 0 {
		t.typeStack[len(t.typeStack)-1] = v
	}
	return t.inner.NameValue(v)
}

func (t *trackingSink) Null() error { return t.inner.Null() }

func (t *trackingSink) Reference(id values.ObjectID) error {
	t.ctl.pending[id] = t.classify()
	return t.inner.Reference(id)
}

func (t *trackingSink) StartStream() error           { return t.inner.StartStream() }
func (t *trackingSink) StreamContent(p []byte) error { return t.inner.StreamContent(p) }
func (t *trackingSink) EndStream() error             { return t.inner.EndStream() }

// classify implements the stream-type inference table against
// the current key and the innermost dictionary's observed /Type.
func (t *trackingSink) classify() values.StreamType {
	var typ values.Name
	if n := len(t.typeStack); n > 0 {
		typ = t.typeStack[n-1]
	}
	switch t.currentKey {
	case "Contents":
		if typ == "Page" || typ == "XObject" {
			return values.StreamContent
		}
		return values.StreamDefault
	case "ToUnicode":
		return values.StreamCMap
	case "Metadata":
		return values.StreamMetadata
	case "FontFile":
		return values.StreamFontType1
	case "FontFile2":
		return values.StreamFontTrueType
	case "FontFile3":
		return values.StreamFontCFF
	default:
		return values.StreamDefault
	}
}
