package value

// Equal reports whether a and b are the same tree. Objects compare member by
// member in order, so {"a":1,"b":2} and {"b":2,"a":1} differ. Strings compare
// by decoded text.
func Equal(a, b *Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num.Equal(b.num)
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(&a.arr[i], &b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for i := range a.obj {
			if a.obj[i].Key != b.obj[i].Key || !Equal(&a.obj[i].Value, &b.obj[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy of v.
func (v *Value) Clone() Value {
	c := *v
	switch v.kind {
	case KindArray:
		c.arr = make([]Value, len(v.arr))
		for i := range v.arr {
			c.arr[i] = v.arr[i].Clone()
		}
	case KindObject:
		c.obj = make([]Member, len(v.obj))
		for i := range v.obj {
			c.obj[i] = Member{Key: v.obj[i].Key, Value: v.obj[i].Value.Clone()}
		}
	}
	return c
}
