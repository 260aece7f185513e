package input

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// Datamap field names the host uses for scroll deltas. "scroll_continous" is
// the host's spelling.
const (
	FieldScrollContinuous = "scroll_continous"
	FieldScrollDiscrete   = "scroll_discrete"
	FieldSelect           = "select"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("input: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("input: CBOR decoder initialization failed: " + err.Error())
	}
}

// Datamap is a CBOR-encoded map of auxiliary fields attached to an input
// source. Reads never fail the caller: a missing or malformed field is absent.
type Datamap []byte

// EncodeDatamap encodes fields as a Datamap.
func EncodeDatamap(fields map[string]any) (Datamap, error) {
	data, err := encMode.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return Datamap(data), nil
}

func (d Datamap) field(name string) (cbor.RawMessage, bool) {
	if len(d) == 0 {
		return nil, false
	}
	var fields map[string]cbor.RawMessage
	if err := decMode.Unmarshal(d, &fields); err != nil {
		return nil, false
	}
	raw, ok := fields[name]
	return raw, ok
}

// Vec2 reads a vector field with at least two components.
func (d Datamap) Vec2(name string) (mgl32.Vec2, bool) {
	raw, ok := d.field(name)
	if !ok {
		return mgl32.Vec2{}, false
	}
	var components []float32
	if err := decMode.Unmarshal(raw, &components); err != nil || len(components) < 2 {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{components[0], components[1]}, true
}

// Float reads a scalar field.
func (d Datamap) Float(name string) (float32, bool) {
	raw, ok := d.field(name)
	if !ok {
		return 0, false
	}
	var v float32
	if err := decMode.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
