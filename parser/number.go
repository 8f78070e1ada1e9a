package parser

import (
	"math"
	"strconv"

	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/value"
)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseNumber scans a number literal. Integers become Int when they fit
// int64, Uint when they fit uint64, and Float otherwise.
func (p *Parser) parseNumber() (value.Value, error) {
	start := p.pos
	neg := p.data[p.pos] == '-'
	if neg {
		p.pos++
	}
	if p.pos >= len(p.data) {
		return value.Value{}, p.eof("a number")
	}

	switch c := p.data[p.pos]; {
	case c == '0':
		p.pos++
		if p.pos < len(p.data) && isDigit(p.data[p.pos]) {
			return value.Value{}, p.syntax(p.pos, "invalid number: leading zero")
		}
	case isDigit(c):
		for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
			p.pos++
		}
	default:
		return value.Value{}, p.syntax(p.pos, "invalid number")
	}

	integer := true
	if p.pos < len(p.data) && p.data[p.pos] == '.' {
		integer = false
		p.pos++
		if err := p.digits(); err != nil {
			return value.Value{}, err
		}
	}
	if p.pos < len(p.data) && (p.data[p.pos] == 'e' || p.data[p.pos] == 'E') {
		integer = false
		p.pos++
		if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
			p.pos++
		}
		if err := p.digits(); err != nil {
			return value.Value{}, err
		}
	}

	text := string(p.data[start:p.pos])
	if p.opts.RawNumber {
		return value.FromNumber(value.RawNumber(text)), nil
	}

	if integer {
		if neg && text == "-0" {
			return value.Float(math.Copysign(0, -1)), nil
		}
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return value.Int(i), nil
		}
		if !neg {
			if u, err := strconv.ParseUint(text, 10, 64); err == nil {
				return value.Uint(u), nil
			}
		}
	}

	// The literal is already validated, so the only failure left is range.
	f, _ := strconv.ParseFloat(text, 64)
	if math.IsInf(f, 0) {
		return value.Value{}, errors.NumberRange(p.data, start)
	}
	return value.Float(f), nil
}

// digits consumes one or more decimal digits.
func (p *Parser) digits() error {
	if p.pos >= len(p.data) {
		return p.eof("a number")
	}
	if !isDigit(p.data[p.pos]) {
		return p.syntax(p.pos, "invalid number")
	}
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
	}
	return nil
}
