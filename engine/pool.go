package engine

import (
	"sync"

	"github.com/wippyai/jsonabi/parser"
)

const (
	// Pool limits to prevent memory bloat
	poolMaxOutCap  = 1 << 20
	poolInitOutCap = 512
)

// serialize output scratch, copied into an Owned-String before return
var outPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, poolInitOutCap)
		return &buf
	},
}

func getOut() *[]byte {
	return outPool.Get().(*[]byte)
}

func putOut(buf *[]byte) {
	if buf == nil || cap(*buf) > poolMaxOutCap {
		return // reject oversized
	}
	*buf = (*buf)[:0]
	outPool.Put(buf)
}

// parsers keep their string scratch buffer between calls
var parserPool = sync.Pool{
	New: func() any {
		return parser.New(nil, parser.Options{})
	},
}

func getParser(data []byte, opts parser.Options) *parser.Parser {
	p := parserPool.Get().(*parser.Parser)
	p.Reset(data, opts)
	return p
}

func putParser(p *parser.Parser) {
	p.Reset(nil, parser.Options{})
	parserPool.Put(p)
}
