package value

import (
	"math"
	"testing"

	"github.com/wippyai/jsonabi/errors"
)

func TestNumber_AppendText(t *testing.T) {
	tests := []struct {
		name string
		num  Number
		want string
	}{
		{"int", IntNumber(-42), "-42"},
		{"uint max", UintNumber(math.MaxUint64), "18446744073709551615"},
		{"raw", RawNumber("1.000e+02"), "1.000e+02"},
		{"zero float", FloatNumber(0), "0.0"},
		{"negative zero", FloatNumber(math.Copysign(0, -1)), "-0.0"},
		{"integral float", FloatNumber(100), "100.0"},
		{"fraction", FloatNumber(123.456), "123.456"},
		{"half", FloatNumber(-1.5), "-1.5"},
		{"small decimal", FloatNumber(0.001), "0.001"},
		{"lower bound decimal", FloatNumber(1e-5), "0.00001"},
		{"below decimal range", FloatNumber(1.5e-7), "1.5e-7"},
		{"upper bound decimal", FloatNumber(1e15), "1000000000000000.0"},
		{"above decimal range", FloatNumber(1e16), "1e16"},
		{"large with digits", FloatNumber(1.2345e20), "1.2345e20"},
		{"shortest digits", FloatNumber(0.1), "0.1"},
		{"max float", FloatNumber(math.MaxFloat64), "1.7976931348623157e308"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.num.AppendText(nil)
			if err != nil {
				t.Fatalf("AppendText: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("AppendText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNumber_NonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := FloatNumber(f).AppendText(nil)
		if errors.KindOf(err) != errors.KindInvalidData {
			t.Errorf("AppendText(%v) kind = %v, want %v", f, errors.KindOf(err), errors.KindInvalidData)
		}
		if s := FloatNumber(f).String(); s != "null" {
			t.Errorf("String(%v) = %q, want null", f, s)
		}
	}
}

func TestNumber_Conversions(t *testing.T) {
	if _, ok := IntNumber(-1).Uint64(); ok {
		t.Error("negative int should not convert to uint64")
	}
	if _, ok := UintNumber(math.MaxUint64).Int64(); ok {
		t.Error("max uint64 should not convert to int64")
	}
	if i, ok := RawNumber("12").Int64(); !ok || i != 12 {
		t.Errorf("raw Int64 = %d, %v", i, ok)
	}
	if _, ok := RawNumber("1.5").Int64(); ok {
		t.Error("raw fraction should not convert to int64")
	}
	if f, ok := RawNumber("1.5").Float64(); !ok || f != 1.5 {
		t.Errorf("raw Float64 = %v, %v", f, ok)
	}
	if _, ok := FloatNumber(2).Int64(); ok {
		t.Error("float should not convert to int64")
	}
	if s, ok := RawNumber("7").Raw(); !ok || s != "7" {
		t.Errorf("Raw = %q, %v", s, ok)
	}
}

func TestNumber_Equal(t *testing.T) {
	tests := []struct {
		a, b Number
		want bool
	}{
		{IntNumber(1), IntNumber(1), true},
		{IntNumber(1), UintNumber(1), true},
		{IntNumber(1), FloatNumber(1), false},
		{FloatNumber(1.5), FloatNumber(1.5), true},
		{RawNumber("1.0"), RawNumber("1.0"), true},
		{RawNumber("1.0"), RawNumber("1.00"), false},
		{RawNumber("3"), IntNumber(3), true},
		{RawNumber("2.5"), FloatNumber(2.5), true},
		{UintNumber(math.MaxUint64), UintNumber(math.MaxUint64), true},
		{UintNumber(math.MaxUint64), IntNumber(-1), false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s.Equal(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValue_Accessors(t *testing.T) {
	obj := Object(
		Member{Key: "a", Value: Int(1)},
		Member{Key: "b", Value: Array(Bool(true), Null())},
		Member{Key: "a", Value: String("dup")},
	)

	if obj.Kind() != KindObject || obj.Len() != 3 {
		t.Fatalf("kind=%v len=%d", obj.Kind(), obj.Len())
	}

	first, ok := obj.Get("a")
	if !ok {
		t.Fatal("Get(a) missing")
	}
	if i, _ := first.AsInt64(); i != 1 {
		t.Errorf("Get(a) returned %v, want the first member", i)
	}

	b, _ := obj.Get("b")
	elem, ok := b.Index(0)
	if !ok {
		t.Fatal("Index(0) missing")
	}
	if v, ok := elem.AsBool(); !ok || !v {
		t.Errorf("b[0] = %v, %v", v, ok)
	}
	if _, ok := b.Index(2); ok {
		t.Error("Index(2) should be out of range")
	}

	if !obj.Set("a", Float(2.5)) {
		t.Fatal("Set on object failed")
	}
	if obj.Len() != 3 {
		t.Errorf("Set should replace, len = %d", obj.Len())
	}
	obj.Set("c", Null())
	if obj.Len() != 4 || obj.Members()[3].Key != "c" {
		t.Errorf("Set should append new keys, members = %v", obj.Members())
	}

	if !b.Append(Int(3)) || b.Len() != 3 {
		t.Errorf("Append failed, len = %d", b.Len())
	}

	s := String("x")
	if s.Append(Null()) || s.Set("k", Null()) {
		t.Error("scalar should reject Append and Set")
	}
	if s.Elems() != nil || s.Members() != nil {
		t.Error("scalar should have no elements")
	}
}

func TestValue_RawString(t *testing.T) {
	v := RawString("a\nb", `a\nb`)
	if s, _ := v.AsString(); s != "a\nb" {
		t.Errorf("AsString = %q", s)
	}
	if raw, ok := v.RawText(); !ok || raw != `a\nb` {
		t.Errorf("RawText = %q, %v", raw, ok)
	}
	plain := String("x")
	if _, ok := plain.RawText(); ok {
		t.Error("plain string should have no raw text")
	}
}

func TestEqual(t *testing.T) {
	a := Object(Member{Key: "a", Value: Int(1)}, Member{Key: "b", Value: Array(String("x"))})
	b := Object(Member{Key: "a", Value: Int(1)}, Member{Key: "b", Value: Array(String("x"))})
	reordered := Object(Member{Key: "b", Value: Array(String("x"))}, Member{Key: "a", Value: Int(1)})

	if !Equal(&a, &b) {
		t.Error("identical trees should be equal")
	}
	if Equal(&a, &reordered) {
		t.Error("member order is significant")
	}

	n1, n2 := Null(), Bool(false)
	if Equal(&n1, &n2) {
		t.Error("null and false differ")
	}

	empty1, empty2 := Array(), Array()
	if !Equal(&empty1, &empty2) {
		t.Error("empty arrays should be equal")
	}
}

func TestClone(t *testing.T) {
	orig := Object(Member{Key: "list", Value: Array(Int(1))})
	c := orig.Clone()

	list, _ := c.Get("list")
	list.Append(Int(2))

	origList, _ := orig.Get("list")
	if origList.Len() != 1 {
		t.Errorf("clone shares storage with original, len = %d", origList.Len())
	}
}

func TestPointer(t *testing.T) {
	doc := Object(
		Member{Key: "users", Value: Array(
			Object(Member{Key: "name", Value: String("ann")}),
		)},
		Member{Key: "a/b", Value: Int(1)},
		Member{Key: "m~n", Value: Int(2)},
	)

	tests := []struct {
		ptr  string
		want string
		kind errors.Kind
	}{
		{ptr: "/users/0/name", want: "ann"},
		{ptr: "/a~1b", want: "1"},
		{ptr: "/m~0n", want: "2"},
		{ptr: "/missing", kind: errors.KindNotFound},
		{ptr: "/users/5", kind: errors.KindNotFound},
		{ptr: "/users/x", kind: errors.KindTypeMismatch},
		{ptr: "/users/01", kind: errors.KindTypeMismatch},
		{ptr: "/users/0/name/deeper", kind: errors.KindTypeMismatch},
		{ptr: "users", kind: errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.ptr, func(t *testing.T) {
			got, err := doc.Pointer(tt.ptr)
			if tt.kind != "" {
				if errors.KindOf(err) != tt.kind {
					t.Fatalf("err = %v, want kind %v", err, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Pointer: %v", err)
			}
			var s string
			switch got.Kind() {
			case KindString:
				s, _ = got.AsString()
			case KindNumber:
				n, _ := got.AsNumber()
				s = n.String()
			}
			if s != tt.want {
				t.Errorf("Pointer(%q) = %q, want %q", tt.ptr, s, tt.want)
			}
		})
	}

	root, err := doc.Pointer("")
	if err != nil || root != &doc {
		t.Error("empty pointer should return the receiver")
	}
}
