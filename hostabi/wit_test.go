package hostabi

import (
	"slices"
	"testing"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

func TestSignatures(t *testing.T) {
	want := map[string][]api.ValueType{
		"deserialize": {i32, i32, i64, i32},
		"serialize":   {i64, i64, i32},
		"drop_value":  {i64},
		"drop_string": {i32, i32},
	}
	if len(signatures) != len(want) {
		t.Fatalf("got %d signatures, want %d", len(signatures), len(want))
	}
	for _, s := range signatures {
		if !slices.Equal(s.params, want[s.name]) {
			t.Errorf("%s params = %v, want %v", s.name, s.params, want[s.name])
		}
		if len(s.results) != 0 {
			t.Errorf("%s results = %v, want none", s.name, s.results)
		}
	}
}

func TestLayouts(t *testing.T) {
	tests := []struct {
		name  string
		l     layout
		offs  map[string]uint32
		size  uint32
		align uint32
	}{
		{"deserialize", deserializeLayout, map[string]uint32{"value": 0, "err": 8}, 16, 8},
		{"serialize", serializeLayout, map[string]uint32{"json": 0, "err": 8}, 16, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.l.size != tt.size || tt.l.align != tt.align {
				t.Errorf("size/align = %d/%d, want %d/%d", tt.l.size, tt.l.align, tt.size, tt.align)
			}
			for f, off := range tt.offs {
				if tt.l.offs[f] != off {
					t.Errorf("offset of %s = %d, want %d", f, tt.l.offs[f], off)
				}
			}
		})
	}
	if retSize != 16 || retAlign != 8 {
		t.Errorf("return area = %d/%d, want 16/8", retSize, retAlign)
	}
}

func TestLower_SmallResultStaysFlat(t *testing.T) {
	s := witFunc{name: "len", params: []wit.Type{wit.String{}}, result: wit.U32{}}.lower()
	if !slices.Equal(s.params, []api.ValueType{i32, i32}) || !slices.Equal(s.results, []api.ValueType{i32}) {
		t.Errorf("lowered = %v -> %v", s.params, s.results)
	}
}

func TestRecordLayout_Padding(t *testing.T) {
	r := &wit.Record{Fields: []wit.Field{
		{Name: "a", Type: wit.U8{}},
		{Name: "b", Type: wit.U64{}},
		{Name: "c", Type: wit.U32{}},
	}}
	l := recordLayout(r)
	if l.offs["b"] != 8 || l.offs["c"] != 16 || l.size != 24 || l.align != 8 {
		t.Errorf("layout = %+v", l)
	}
}
