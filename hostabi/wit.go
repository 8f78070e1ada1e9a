package hostabi

import (
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// maxFlatResults is the canonical ABI limit above which results are
// written through a caller-supplied return pointer.
const maxFlatResults = 1

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// Result records of the boundary functions.
var (
	deserializeRet = &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "value", Type: wit.U64{}},
		{Name: "err", Type: wit.String{}},
	}}}
	serializeRet = &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "json", Type: wit.String{}},
		{Name: "err", Type: wit.String{}},
	}}}
	byteList = &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}
)

// boundary describes the host functions in WIT terms.
var boundary = []witFunc{
	{name: "deserialize", params: []wit.Type{byteList, wit.U64{}}, result: deserializeRet},
	{name: "serialize", params: []wit.Type{wit.U64{}, wit.U64{}}, result: serializeRet},
	{name: "drop_value", params: []wit.Type{wit.U64{}}},
	{name: "drop_string", params: []wit.Type{wit.U32{}, wit.U32{}}},
}

type witFunc struct {
	name   string
	params []wit.Type
	result wit.Type
}

type signature struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

// lower returns the core signature a guest imports f with. Results that do
// not fit in maxFlatResults move to a trailing i32 return pointer.
func (f witFunc) lower() signature {
	s := signature{name: f.name}
	for _, p := range f.params {
		s.params = append(s.params, flatten(p)...)
	}
	if f.result == nil {
		return s
	}
	results := flatten(f.result)
	if len(results) > maxFlatResults {
		s.params = append(s.params, i32)
		return s
	}
	s.results = results
	return s
}

// signatures lists the host functions as guests import them.
var signatures = lowerAll(boundary)

func lowerAll(fns []witFunc) []signature {
	out := make([]signature, len(fns))
	for i, f := range fns {
		out[i] = f.lower()
	}
	return out
}

func flatten(t wit.Type) []api.ValueType {
	switch v := t.(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32, wit.Char:
		return []api.ValueType{i32}
	case wit.U64, wit.S64:
		return []api.ValueType{i64}
	case wit.String:
		return []api.ValueType{i32, i32}
	case *wit.TypeDef:
		switch k := v.Kind.(type) {
		case *wit.Record:
			var flat []api.ValueType
			for _, f := range k.Fields {
				flat = append(flat, flatten(f.Type)...)
			}
			return flat
		case *wit.List:
			return []api.ValueType{i32, i32}
		}
	}
	panic("hostabi: unsupported boundary type")
}

// layout is the in-memory size, alignment and field offsets of a type.
type layout struct {
	offs  map[string]uint32
	size  uint32
	align uint32
}

func layoutOf(t wit.Type) layout {
	switch v := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return layout{size: 1, align: 1}
	case wit.U32, wit.S32, wit.Char:
		return layout{size: 4, align: 4}
	case wit.U64, wit.S64:
		return layout{size: 8, align: 8}
	case wit.String:
		return layout{size: 8, align: 4}
	case *wit.TypeDef:
		switch k := v.Kind.(type) {
		case *wit.Record:
			return recordLayout(k)
		case *wit.List:
			return layout{size: 8, align: 4}
		}
	}
	panic("hostabi: unsupported boundary type")
}

func recordLayout(r *wit.Record) layout {
	l := layout{offs: make(map[string]uint32, len(r.Fields)), align: 1}
	off := uint32(0)
	for _, f := range r.Fields {
		fl := layoutOf(f.Type)
		off = alignTo(off, fl.align)
		l.offs[f.Name] = off
		l.align = max(l.align, fl.align)
		off += fl.size
	}
	l.size = alignTo(off, l.align)
	return l
}

func alignTo(off, align uint32) uint32 {
	return (off + align - 1) &^ (align - 1)
}

// Return area layouts written through ret_ptr.
var (
	deserializeLayout = layoutOf(deserializeRet)
	serializeLayout   = layoutOf(serializeRet)

	retSize  = max(deserializeLayout.size, serializeLayout.size)
	retAlign = max(deserializeLayout.align, serializeLayout.align)
)
