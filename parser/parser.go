package parser

import (
	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/value"
)

// DefaultMaxDepth is the nesting limit applied when Options.MaxDepth is zero.
const DefaultMaxDepth = 128

// Options control how input is decoded.
type Options struct {
	// RawNumber keeps number literals as their exact source text.
	RawNumber bool
	// RawValue keeps the source text of every scalar: numbers and string
	// bodies with escapes untouched. Implies RawNumber.
	RawValue bool
	// UTF8Lossy replaces invalid UTF-8 and lone surrogate escapes with
	// U+FFFD instead of failing.
	UTF8Lossy bool
	// MaxDepth limits container nesting. Zero means DefaultMaxDepth,
	// negative disables the limit.
	MaxDepth int
}

// Parser decodes one JSON document. A Parser may be reused through Reset.
type Parser struct {
	data  []byte
	buf   []byte
	opts  Options
	pos   int
	depth int
	limit int

	// replaced is set when lossy decoding substituted U+FFFD in the
	// current string.
	replaced bool
}

// New creates a parser for data.
func New(data []byte, opts Options) *Parser {
	p := &Parser{}
	p.Reset(data, opts)
	return p
}

// Reset prepares p for a new document, keeping its scratch buffer.
func (p *Parser) Reset(data []byte, opts Options) {
	if opts.RawValue {
		opts.RawNumber = true
	}
	limit := opts.MaxDepth
	if limit == 0 {
		limit = DefaultMaxDepth
	}
	p.data = data
	p.opts = opts
	p.pos = 0
	p.depth = 0
	p.limit = limit
	p.buf = p.buf[:0]
}

// Parse decodes data into a Value.
func Parse(data []byte, opts Options) (value.Value, error) {
	return New(data, opts).Parse()
}

// Parse decodes the whole input. Anything but whitespace after the first
// value is an error.
func (p *Parser) Parse() (value.Value, error) {
	if len(p.data) == 0 {
		return value.Value{}, errors.EmptyInput()
	}
	v, err := p.parseValue()
	if err != nil {
		return value.Value{}, err
	}
	p.skipWhitespace()
	if p.pos < len(p.data) {
		return value.Value{}, errors.TrailingData(p.data, p.pos)
	}
	return v, nil
}

// Offset returns the current read position.
func (p *Parser) Offset() int { return p.pos }

func (p *Parser) skipWhitespace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *Parser) eof(what string) *errors.Error {
	return errors.Truncated(p.data, what)
}

func (p *Parser) syntax(offset int, detail string) *errors.Error {
	return errors.Syntax(p.data, offset, detail)
}

func (p *Parser) parseValue() (value.Value, error) {
	p.skipWhitespace()
	if p.pos >= len(p.data) {
		return value.Value{}, p.eof("a value")
	}

	switch c := p.data[p.pos]; {
	case c == 'n':
		return value.Null(), p.parseLiteral("null")
	case c == 't':
		return value.Bool(true), p.parseLiteral("true")
	case c == 'f':
		return value.Bool(false), p.parseLiteral("false")
	case c == '"':
		return p.parseStringValue()
	case c == '[':
		return p.parseArray()
	case c == '{':
		return p.parseObject()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return value.Value{}, p.syntax(p.pos, "expected value")
	}
}

func (p *Parser) parseLiteral(lit string) error {
	for i := 0; i < len(lit); i++ {
		if p.pos >= len(p.data) {
			return p.eof("a value")
		}
		if p.data[p.pos] != lit[i] {
			return p.syntax(p.pos, "expected ident")
		}
		p.pos++
	}
	return nil
}

func (p *Parser) enter() error {
	p.depth++
	if p.limit > 0 && p.depth > p.limit {
		return errors.DepthExceeded(p.data, p.pos, p.limit)
	}
	return nil
}

func (p *Parser) parseArray() (value.Value, error) {
	if err := p.enter(); err != nil {
		return value.Value{}, err
	}
	p.pos++

	elems := []value.Value{}
	p.skipWhitespace()
	if p.pos >= len(p.data) {
		return value.Value{}, p.eof("a list")
	}
	if p.data[p.pos] == ']' {
		p.pos++
		p.depth--
		return value.Array(elems...), nil
	}

	for {
		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, v)

		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return value.Value{}, p.eof("a list")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
			p.skipWhitespace()
			if p.pos < len(p.data) && p.data[p.pos] == ']' {
				return value.Value{}, p.syntax(p.pos, "trailing comma")
			}
		case ']':
			p.pos++
			p.depth--
			return value.Array(elems...), nil
		default:
			return value.Value{}, p.syntax(p.pos, "expected ',' or ']' while parsing a list")
		}
	}
}

func (p *Parser) parseObject() (value.Value, error) {
	if err := p.enter(); err != nil {
		return value.Value{}, err
	}
	p.pos++

	members := []value.Member{}
	p.skipWhitespace()
	if p.pos >= len(p.data) {
		return value.Value{}, p.eof("an object")
	}
	if p.data[p.pos] == '}' {
		p.pos++
		p.depth--
		return value.Object(members...), nil
	}

	for {
		if p.data[p.pos] != '"' {
			return value.Value{}, p.syntax(p.pos, "key must be a string")
		}
		key, _, err := p.parseString()
		if err != nil {
			return value.Value{}, err
		}

		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return value.Value{}, p.eof("an object")
		}
		if p.data[p.pos] != ':' {
			return value.Value{}, p.syntax(p.pos, "expected ':' while parsing an object")
		}
		p.pos++

		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		members = append(members, value.Member{Key: key, Value: v})

		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return value.Value{}, p.eof("an object")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
			p.skipWhitespace()
			if p.pos >= len(p.data) {
				return value.Value{}, p.eof("an object")
			}
			if p.data[p.pos] == '}' {
				return value.Value{}, p.syntax(p.pos, "trailing comma")
			}
		case '}':
			p.pos++
			p.depth--
			return value.Object(members...), nil
		default:
			return value.Value{}, p.syntax(p.pos, "expected ',' or '}' while parsing an object")
		}
	}
}
