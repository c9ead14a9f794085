package valuecapture

import (
	"fmt"

	"github.com/coregx/streampdf/internal/event"
	"github.com/coregx/streampdf/internal/values"
)

// Replay emits v's events to sink, the inverse of Builder: used to
// re-deliver a previously captured value (the merged trailer dictionary)
// as a synthetic object the application sink observes like any other.
func Replay(sink event.DocumentSink, v values.Value) error {
	switch t := v.(type) {
	case values.VBoolean:
		return sink.Boolean(bool(t))
	case values.VNumber:
		return sink.Number(values.Number(t))
	case values.VString:
		return sink.StringValue([]byte(t))
	case values.VName:
		return sink.NameValue(values.Name(t))
	case values.VNull:
		return sink.Null()
	case values.VReference:
		return sink.Reference(values.ObjectID(t))
	case values.VArray:
		if err := sink.StartArray(); err != nil {
			return err
		}
		for _, el := range t {
			if err := Replay(sink, el); err != nil {
				return err
			}
		}
		return sink.EndArray()
	case *values.VDictionary:
		if err := sink.StartDictionary(); err != nil {
			return err
		}
		for _, k := range t.Keys() {
			if err := sink.Key(k); err != nil {
				return err
			}
			if err := Replay(sink, t.Get(k)); err != nil {
				return err
			}
		}
		return sink.EndDictionary()
	default:
		return fmt.Errorf("valuecapture: cannot replay value of type %T", v)
	}
}
