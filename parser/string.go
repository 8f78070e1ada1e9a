package parser

import (
	"unicode/utf8"

	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/value"
)

func (p *Parser) parseStringValue() (value.Value, error) {
	p.replaced = false
	s, raw, err := p.parseString()
	if err != nil {
		return value.Value{}, err
	}
	// A substituted string has no faithful source text to keep.
	if p.opts.RawValue && !p.replaced {
		return value.RawString(s, raw), nil
	}
	return value.String(s), nil
}

// parseString reads a quoted string starting at the opening quote. It
// returns the decoded text and the raw bytes between the quotes.
func (p *Parser) parseString() (string, string, error) {
	p.pos++
	start := p.pos

	// Fast path: no escapes and valid UTF-8 lets the result alias the input.
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == '"':
			s := string(p.data[start:p.pos])
			p.pos++
			return s, s, nil
		case c == '\\' || c >= utf8.RuneSelf:
			return p.parseStringSlow(start)
		case c < 0x20:
			return "", "", p.syntax(p.pos, "control character (\\u0000-\\u001F) found while parsing a string")
		}
		p.pos++
	}
	return "", "", p.eof("a string")
}

func (p *Parser) parseStringSlow(start int) (string, string, error) {
	buf := append(p.buf[:0], p.data[start:p.pos]...)
	defer func() { p.buf = buf[:0] }()

	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == '"':
			raw := string(p.data[start:p.pos])
			p.pos++
			return string(buf), raw, nil

		case c == '\\':
			var err error
			buf, err = p.parseEscape(buf)
			if err != nil {
				return "", "", err
			}

		case c < 0x20:
			return "", "", p.syntax(p.pos, "control character (\\u0000-\\u001F) found while parsing a string")

		case c < utf8.RuneSelf:
			buf = append(buf, c)
			p.pos++

		default:
			r, size := utf8.DecodeRune(p.data[p.pos:])
			if r == utf8.RuneError && size <= 1 {
				if !utf8.FullRune(p.data[p.pos:]) && !p.opts.UTF8Lossy {
					return "", "", p.eof("a string")
				}
				if !p.opts.UTF8Lossy {
					return "", "", errors.InvalidUTF8(p.data, p.pos, "")
				}
				buf = utf8.AppendRune(buf, utf8.RuneError)
				p.replaced = true
				p.pos++
				continue
			}
			buf = append(buf, p.data[p.pos:p.pos+size]...)
			p.pos += size
		}
	}
	return "", "", p.eof("a string")
}

// parseEscape decodes the escape sequence at p.pos, which points at '\'.
func (p *Parser) parseEscape(buf []byte) ([]byte, error) {
	p.pos++
	if p.pos >= len(p.data) {
		return buf, p.eof("a string")
	}

	c := p.data[p.pos]
	p.pos++
	switch c {
	case '"', '\\', '/':
		return append(buf, c), nil
	case 'b':
		return append(buf, '\b'), nil
	case 'f':
		return append(buf, '\f'), nil
	case 'n':
		return append(buf, '\n'), nil
	case 'r':
		return append(buf, '\r'), nil
	case 't':
		return append(buf, '\t'), nil
	case 'u':
		return p.parseUnicodeEscape(buf)
	default:
		return buf, p.syntax(p.pos-1, "invalid escape")
	}
}

func (p *Parser) parseUnicodeEscape(buf []byte) ([]byte, error) {
	at := p.pos - 2
	r, err := p.hex4()
	if err != nil {
		return buf, err
	}

	switch {
	case r >= 0xDC00 && r <= 0xDFFF:
		if !p.opts.UTF8Lossy {
			return buf, p.syntax(at, "lone trailing surrogate in hex escape")
		}
		p.replaced = true
		return utf8.AppendRune(buf, utf8.RuneError), nil

	case r >= 0xD800 && r <= 0xDBFF:
		if p.pos+1 < len(p.data) && p.data[p.pos] == '\\' && p.data[p.pos+1] == 'u' {
			save := p.pos
			p.pos += 2
			lo, err := p.hex4()
			if err != nil {
				return buf, err
			}
			if lo >= 0xDC00 && lo <= 0xDFFF {
				return utf8.AppendRune(buf, 0x10000+((r-0xD800)<<10)+(lo-0xDC00)), nil
			}
			p.pos = save
		}
		if !p.opts.UTF8Lossy {
			return buf, p.syntax(at, "lone leading surrogate in hex escape")
		}
		p.replaced = true
		return utf8.AppendRune(buf, utf8.RuneError), nil
	}

	return utf8.AppendRune(buf, r), nil
}

func (p *Parser) hex4() (rune, error) {
	var r rune
	for i := 0; i < 4; i++ {
		if p.pos >= len(p.data) {
			return 0, p.eof("a string")
		}
		c := p.data[p.pos]
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, p.syntax(p.pos, "invalid escape")
		}
		r = r<<4 | rune(d)
		p.pos++
	}
	return r, nil
}
