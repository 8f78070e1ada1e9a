package bench

import (
	"context"
	stdjson "encoding/json"

	"github.com/buger/jsonparser"
	"github.com/bytedance/sonic"
	gojson "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
	segjson "github.com/segmentio/encoding/json"

	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/hostabi"
	"github.com/wippyai/jsonabi/parser"
)

// Probe parses a document into its engine's DOM and discards it.
type Probe interface {
	Name() string
	Parse(data []byte) bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc struct {
	name  string
	parse func([]byte) bool
}

// NewProbe wraps parse as a named probe.
func NewProbe(name string, parse func([]byte) bool) ProbeFunc {
	return ProbeFunc{name: name, parse: parse}
}

func (p ProbeFunc) Name() string           { return p.name }
func (p ProbeFunc) Parse(data []byte) bool { return p.parse(data) }

// Native returns the in-process jsonabi parser probe.
func Native(flags engine.DeserializeFlags) Probe {
	opts := flags.Options()
	p := parser.New(nil, opts)
	return NewProbe("jsonabi", func(data []byte) bool {
		p.Reset(data, opts)
		_, err := p.Parse()
		return err == nil
	})
}

// Wasm returns a probe that crosses the full wasm boundary: the document
// is deserialized by the loopback guest and the value dropped again.
func Wasm(lb *hostabi.Loopback, flags engine.DeserializeFlags) Probe {
	ctx := context.Background()
	return NewProbe("jsonabi-wasm", func(data []byte) bool {
		return lb.Parse(ctx, data, flags) == nil
	})
}

// Sonic returns the bytedance/sonic probe.
func Sonic() Probe {
	return NewProbe("sonic", func(data []byte) bool {
		var v any
		return sonic.Unmarshal(data, &v) == nil
	})
}

// Goccy returns the goccy/go-json probe.
func Goccy() Probe {
	return NewProbe("goccy", func(data []byte) bool {
		var v any
		return gojson.Unmarshal(data, &v) == nil
	})
}

// Jsoniter returns the json-iterator probe.
func Jsoniter() Probe {
	api := jsoniter.ConfigCompatibleWithStandardLibrary
	return NewProbe("jsoniter", func(data []byte) bool {
		var v any
		return api.Unmarshal(data, &v) == nil
	})
}

// Segmentio returns the segmentio/encoding probe.
func Segmentio() Probe {
	return NewProbe("segmentio", func(data []byte) bool {
		var v any
		return segjson.Unmarshal(data, &v) == nil
	})
}

// JSONParser returns the buger/jsonparser probe. jsonparser has no DOM, so
// the probe walks every object member and array element instead.
func JSONParser() Probe {
	return NewProbe("jsonparser", func(data []byte) bool {
		v, dt, _, err := jsonparser.Get(data)
		if err != nil {
			return false
		}
		return walk(v, dt) == nil
	})
}

func walk(data []byte, dt jsonparser.ValueType) error {
	switch dt {
	case jsonparser.Object:
		return jsonparser.ObjectEach(data, func(_ []byte, v []byte, t jsonparser.ValueType, _ int) error {
			return walk(v, t)
		})
	case jsonparser.Array:
		var werr error
		_, err := jsonparser.ArrayEach(data, func(v []byte, t jsonparser.ValueType, _ int, err error) {
			if werr == nil && err != nil {
				werr = err
			}
			if werr == nil {
				werr = walk(v, t)
			}
		})
		if err != nil {
			return err
		}
		return werr
	case jsonparser.String:
		_, err := jsonparser.ParseString(data)
		return err
	default:
		return nil
	}
}

// Stdlib returns the encoding/json baseline probe.
func Stdlib() Probe {
	return NewProbe("encoding/json", func(data []byte) bool {
		var v any
		return stdjson.Unmarshal(data, &v) == nil
	})
}

// Thirdparty returns every comparison probe in report order.
func Thirdparty() []Probe {
	return []Probe{Sonic(), Goccy(), Jsoniter(), Segmentio(), JSONParser(), Stdlib()}
}
