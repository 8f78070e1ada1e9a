package value

import (
	"strconv"
	"strings"

	"github.com/wippyai/jsonabi/errors"
)

// Pointer resolves an RFC 6901 JSON pointer such as "/users/0/name".
// The empty pointer refers to v itself.
func (v *Value) Pointer(ptr string) (*Value, error) {
	if ptr == "" {
		return v, nil
	}
	if ptr[0] != '/' {
		return nil, errors.New(errors.PhaseLookup, errors.KindInvalidInput).
			Detail("pointer %q must start with '/'", ptr).
			Build()
	}
	tokens := strings.Split(ptr[1:], "/")
	for i, tok := range tokens {
		tokens[i] = unescapeToken(tok)
	}
	return v.lookup(tokens)
}

// Lookup walks v by object keys and array indices.
func (v *Value) Lookup(path ...string) (*Value, error) {
	return v.lookup(path)
}

func (v *Value) lookup(path []string) (*Value, error) {
	cur := v
	for i, tok := range path {
		switch cur.kind {
		case KindObject:
			next, ok := cur.Get(tok)
			if !ok {
				return nil, errors.NotFound(path[:i+1], "no such key")
			}
			cur = next
		case KindArray:
			idx, err := strconv.Atoi(tok)
			if err != nil || (len(tok) > 1 && tok[0] == '0') {
				return nil, errors.TypeMismatch(path[:i+1], "array index", strconv.Quote(tok))
			}
			next, ok := cur.Index(idx)
			if !ok {
				return nil, errors.NotFound(path[:i+1], "index out of range")
			}
			cur = next
		default:
			return nil, errors.TypeMismatch(path[:i+1], "array or object", cur.kind.String())
		}
	}
	return cur, nil
}

func unescapeToken(tok string) string {
	if !strings.Contains(tok, "~") {
		return tok
	}
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(tok)
}
