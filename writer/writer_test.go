package writer

import (
	"bytes"
	"math"
	"testing"

	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/parser"
	"github.com/wippyai/jsonabi/value"
)

func TestMarshal_Compact(t *testing.T) {
	v := value.Object(
		value.Member{Key: "a", Value: value.Int(1)},
		value.Member{Key: "b", Value: value.Array(value.Int(2), value.Float(3.5), value.Null())},
		value.Member{Key: "c", Value: value.Object()},
		value.Member{Key: "d", Value: value.Array()},
		value.Member{Key: "e", Value: value.Bool(false)},
	)

	got, err := Marshal(&v, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":1,"b":[2,3.5,null],"c":{},"d":[],"e":false}`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestMarshal_Pretty(t *testing.T) {
	v := value.Object(
		value.Member{Key: "a", Value: value.Int(1)},
		value.Member{Key: "b", Value: value.Array(value.Int(2), value.Int(3))},
		value.Member{Key: "c", Value: value.Object()},
	)

	got, err := Marshal(&v, Options{Pretty: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"a\": 1,\n  \"b\": [\n    2,\n    3\n  ],\n  \"c\": {}\n}"
	if string(got) != want {
		t.Errorf("Marshal pretty =\n%s\nwant\n%s", got, want)
	}

	got, _ = Marshal(&v, Options{Pretty: true, Indent: "\t"})
	if !bytes.Contains(got, []byte("\n\t\t2")) {
		t.Errorf("custom indent not applied: %q", got)
	}
}

func TestMarshal_Scalars(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want string
	}{
		{"null", value.Null(), "null"},
		{"true", value.Bool(true), "true"},
		{"negative", value.Int(-7), "-7"},
		{"uint", value.Uint(math.MaxUint64), "18446744073709551615"},
		{"integral float", value.Float(2), "2.0"},
		{"scientific", value.Float(1e16), "1e16"},
		{"raw number", value.FromNumber(value.RawNumber("1.000")), "1.000"},
		{"raw string", value.RawString("a\nb", `a\nb`), `"a\nb"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(&tt.v, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAppendString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`q"b\`, `"q\"b\\"`},
		{"\b\f\n\r\t", `"\b\f\n\r\t"`},
		{"\x00\x1f", `"\u0000\u001f"`},
		{"a/b", `"a/b"`},
		{"\x7f", "\"\x7f\""},
		{"héllo 世界", `"héllo 世界"`},
		{"bad\xffbyte", `"bad�byte"`},
	}

	for _, tt := range tests {
		got := AppendString(nil, tt.in)
		if string(got) != tt.want {
			t.Errorf("AppendString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMarshal_NonFinite(t *testing.T) {
	v := value.Array(value.Int(1), value.Float(math.NaN()))
	dst := []byte("prefix")
	got, err := Append(dst, &v, Options{})
	if errors.KindOf(err) != errors.KindInvalidData {
		t.Fatalf("kind = %v, want %v", errors.KindOf(err), errors.KindInvalidData)
	}
	if string(got) != "prefix" {
		t.Errorf("dst should be restored on error, got %q", got)
	}
}

func TestMarshal_MaxBytes(t *testing.T) {
	v := value.String("0123456789")
	if _, err := Marshal(&v, Options{MaxBytes: 12}); err != nil {
		t.Errorf("12 bytes should fit: %v", err)
	}
	_, err := Marshal(&v, Options{MaxBytes: 11})
	if errors.KindOf(err) != errors.KindAllocation {
		t.Errorf("kind = %v, want %v", errors.KindOf(err), errors.KindAllocation)
	}
}

func TestEncode(t *testing.T) {
	v := value.Array(value.String("x"))
	var buf bytes.Buffer
	if err := Encode(&buf, &v, Options{}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `["x"]` {
		t.Errorf("Encode = %s", buf.String())
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		input string
		popts parser.Options
		want  string
	}{
		{`{"a":1,"b":[2,3]}`, parser.Options{}, `{"a":1,"b":[2,3]}`},
		{` { "z" : 1 , "a" : 2 } `, parser.Options{}, `{"z":1,"a":2}`},
		{`{"k":1,"k":2}`, parser.Options{}, `{"k":1,"k":2}`},
		{`[1.0,1e2,0.5]`, parser.Options{}, `[1.0,100.0,0.5]`},
		{`[1.0,1e2,0.5]`, parser.Options{RawNumber: true}, `[1.0,1e2,0.5]`},
		{`"é\/"`, parser.Options{}, `"é/"`},
		{`"é\/"`, parser.Options{RawValue: true}, `"é\/"`},
		{`"a\u0001"`, parser.Options{}, `"a\u0001"`},
		{`123456789012345678901234567890`, parser.Options{RawNumber: true}, `123456789012345678901234567890`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := parser.Parse([]byte(tt.input), tt.popts)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Marshal(&v, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("round trip = %s, want %s", got, tt.want)
			}

			again, err := parser.Parse(got, tt.popts)
			if err != nil {
				t.Fatalf("reparse: %v", err)
			}
			if !value.Equal(&v, &again) {
				t.Error("reparsed tree differs")
			}
		})
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	v, err := parser.Parse([]byte(`{"b":[1,{"c":"d"}],"a":null}`), parser.Options{})
	if err != nil {
		t.Fatal(err)
	}
	first, _ := Marshal(&v, Options{Pretty: true})
	second, _ := Marshal(&v, Options{Pretty: true})
	if !bytes.Equal(first, second) {
		t.Error("repeated serialization differs")
	}
}
