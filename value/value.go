// Package value holds the in-memory JSON document tree handed out behind
// opaque handles.
package value

// Kind identifies the JSON type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Member is one key/value pair of an object, kept in input order.
type Member struct {
	Key   string
	Value Value
}

// Value is a parsed JSON document node. The zero Value is null.
//
// Objects are ordered: members keep their input order and duplicate keys
// are retained. Strings may carry their raw source text when parsed in
// raw-value mode, in which case serialization emits it verbatim.
type Value struct {
	str    string
	raw    string
	arr    []Value
	obj    []Member
	num    Number
	kind   Kind
	b      bool
	hasRaw bool
}

// Null returns a null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindNumber, num: IntNumber(i)} }

// Uint returns an unsigned integer Value.
func Uint(u uint64) Value { return Value{kind: KindNumber, num: UintNumber(u)} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindNumber, num: FloatNumber(f)} }

// FromNumber wraps an existing Number.
func FromNumber(n Number) Value { return Value{kind: KindNumber, num: n} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// RawString returns a string Value that remembers its source text. decoded
// is the unescaped content, raw the exact bytes between the quotes.
func RawString(decoded, raw string) Value {
	return Value{kind: KindString, str: decoded, raw: raw, hasRaw: true}
}

// Array returns an array Value holding elems.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// Object returns an object Value holding members in the given order.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{kind: KindObject, obj: members}
}

// Kind returns the JSON type.
func (v *Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v *Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v is a bool.
func (v *Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the number and whether v is a number.
func (v *Value) AsNumber() (Number, bool) {
	return v.num, v.kind == KindNumber
}

// AsInt64 returns v as int64 when it is an integer that fits.
func (v *Value) AsInt64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num.Int64()
}

// AsUint64 returns v as uint64 when it is a non-negative integer that fits.
func (v *Value) AsUint64() (uint64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num.Uint64()
}

// AsFloat64 returns v as float64 for any number.
func (v *Value) AsFloat64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num.Float64()
}

// AsString returns the decoded string and whether v is a string.
func (v *Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// RawText returns the source text kept for raw strings.
func (v *Value) RawText() (string, bool) {
	return v.raw, v.kind == KindString && v.hasRaw
}

// Len returns the number of elements or members, or 0 for scalars.
func (v *Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Elems returns the array elements. The slice aliases v.
func (v *Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Members returns the object members in order. The slice aliases v.
func (v *Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Index returns the i-th array element.
func (v *Value) Index(i int) (*Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return nil, false
	}
	return &v.arr[i], true
}

// Get returns the first member named key.
func (v *Value) Get(key string) (*Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	for i := range v.obj {
		if v.obj[i].Key == key {
			return &v.obj[i].Value, true
		}
	}
	return nil, false
}

// Set replaces the first member named key, or appends one. It reports
// whether v is an object.
func (v *Value) Set(key string, nv Value) bool {
	if v.kind != KindObject {
		return false
	}
	for i := range v.obj {
		if v.obj[i].Key == key {
			v.obj[i].Value = nv
			return true
		}
	}
	v.obj = append(v.obj, Member{Key: key, Value: nv})
	return true
}

// Append adds an element to an array. It reports whether v is an array.
func (v *Value) Append(nv Value) bool {
	if v.kind != KindArray {
		return false
	}
	v.arr = append(v.arr, nv)
	return true
}
