package writer

import (
	"io"
	"unicode/utf8"

	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/value"
)

// DefaultIndent is the per-level indentation used by pretty output.
const DefaultIndent = "  "

// Options control the output format.
type Options struct {
	// Indent overrides DefaultIndent when Pretty is set.
	Indent string
	// MaxBytes bounds the produced output. Zero means unlimited.
	MaxBytes int
	// Pretty emits one member or element per line.
	Pretty bool
}

// Marshal returns the JSON text of v.
func Marshal(v *value.Value, opts Options) ([]byte, error) {
	return Append(nil, v, opts)
}

// Append appends the JSON text of v to dst. On error dst is returned with
// its original length.
func Append(dst []byte, v *value.Value, opts Options) ([]byte, error) {
	e := encoder{buf: dst, opts: opts}
	if opts.Pretty && e.opts.Indent == "" {
		e.opts.Indent = DefaultIndent
	}
	start := len(dst)
	if err := e.value(v); err != nil {
		return dst[:start], err
	}
	if opts.MaxBytes > 0 && len(e.buf)-start > opts.MaxBytes {
		return dst[:start], errors.AllocationFailed(errors.PhaseSerialize, len(e.buf)-start)
	}
	return e.buf, nil
}

// Encode writes the JSON text of v to w.
func Encode(w io.Writer, v *value.Value, opts Options) error {
	b, err := Marshal(v, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

type encoder struct {
	buf   []byte
	opts  Options
	level int
}

func (e *encoder) value(v *value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		e.buf = append(e.buf, "null"...)
	case value.KindBool:
		if b, _ := v.AsBool(); b {
			e.buf = append(e.buf, "true"...)
		} else {
			e.buf = append(e.buf, "false"...)
		}
	case value.KindNumber:
		n, _ := v.AsNumber()
		b, err := n.AppendText(e.buf)
		if err != nil {
			return err
		}
		e.buf = b
	case value.KindString:
		if raw, ok := v.RawText(); ok {
			e.buf = append(e.buf, '"')
			e.buf = append(e.buf, raw...)
			e.buf = append(e.buf, '"')
			return nil
		}
		s, _ := v.AsString()
		e.buf = AppendString(e.buf, s)
	case value.KindArray:
		return e.array(v.Elems())
	case value.KindObject:
		return e.object(v.Members())
	}
	return nil
}

func (e *encoder) array(elems []value.Value) error {
	if len(elems) == 0 {
		e.buf = append(e.buf, '[', ']')
		return nil
	}
	e.buf = append(e.buf, '[')
	e.level++
	for i := range elems {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.newline()
		if err := e.value(&elems[i]); err != nil {
			return err
		}
	}
	e.level--
	e.newline()
	e.buf = append(e.buf, ']')
	return nil
}

func (e *encoder) object(members []value.Member) error {
	if len(members) == 0 {
		e.buf = append(e.buf, '{', '}')
		return nil
	}
	e.buf = append(e.buf, '{')
	e.level++
	for i := range members {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.newline()
		e.buf = AppendString(e.buf, members[i].Key)
		e.buf = append(e.buf, ':')
		if e.opts.Pretty {
			e.buf = append(e.buf, ' ')
		}
		if err := e.value(&members[i].Value); err != nil {
			return err
		}
	}
	e.level--
	e.newline()
	e.buf = append(e.buf, '}')
	return nil
}

func (e *encoder) newline() {
	if !e.opts.Pretty {
		return
	}
	e.buf = append(e.buf, '\n')
	for i := 0; i < e.level; i++ {
		e.buf = append(e.buf, e.opts.Indent...)
	}
}

const hexDigits = "0123456789abcdef"

// AppendString appends s as a quoted JSON string. Invalid UTF-8 is written
// as U+FFFD.
func AppendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, s[start:i]...)
			dst = append(dst, "�"...)
			i++
			start = i
			continue
		}
		i += size
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}
