package bench

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

// Input is one named benchmark document.
type Input struct {
	Name string
	Data []byte
}

var (
	corpusOnce sync.Once
	corpus     []Input
)

// Corpus returns the built-in documents. The same bytes are produced on
// every call and on every machine.
func Corpus() []Input {
	corpusOnce.Do(func() {
		rng := rand.New(rand.NewPCG(1, 2))
		corpus = []Input{
			{"small", []byte(`{"id":1,"name":"jsonabi","tags":["a","b"],"ok":true,"ratio":0.5,"next":null}`)},
			{"numbers", numbers(rng, 4096)},
			{"nested", nested(48)},
			{"strings", stringsDoc(rng, 512)},
			{"mixed", mixed(rng, 256)},
		}
	})
	return corpus
}

// numbers is a coordinate list in the style of geographic datasets.
func numbers(rng *rand.Rand, n int) []byte {
	var b strings.Builder
	b.WriteString(`{"type":"LineString","coordinates":[`)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "[%s,%s]",
			strconv.FormatFloat(rng.Float64()*360-180, 'f', 6, 64),
			strconv.FormatFloat(rng.Float64()*180-90, 'f', 6, 64))
	}
	b.WriteString("]}")
	return []byte(b.String())
}

func nested(depth int) []byte {
	var b strings.Builder
	for i := range depth {
		fmt.Fprintf(&b, `{"level":%d,"child":[`, i)
	}
	b.WriteString(`"leaf"`)
	for range depth {
		b.WriteString("]}")
	}
	return []byte(b.String())
}

var words = []string{"alpha", "beta", "gamma", "delta", "ünïcödé", "日本語", "tab\\there", "quote\\\"d", "line\\nbreak", "\\u00e9t\\u00e9"}

func stringsDoc(rng *rand.Rand, n int) []byte {
	var b strings.Builder
	b.WriteByte('[')
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		for j := range 1 + rng.IntN(6) {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(words[rng.IntN(len(words))])
		}
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return []byte(b.String())
}

// mixed resembles an API response: an array of records with nested
// objects, numbers of every shape and optional fields.
func mixed(rng *rand.Rand, n int) []byte {
	var b strings.Builder
	b.WriteString(`{"statuses":[`)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"id":%d,"id_str":"%d","text":"%s","user":{"name":"%s","followers":%d,"verified":%t},`,
			1_000_000_000_000+i, 1_000_000_000_000+i,
			words[rng.IntN(len(words))], words[rng.IntN(len(words))],
			rng.IntN(100000), rng.IntN(2) == 0)
		fmt.Fprintf(&b, `"score":%s,"big":%d,"geo":`,
			strconv.FormatFloat(rng.NormFloat64(), 'g', -1, 64), rng.Uint64())
		if rng.IntN(3) == 0 {
			fmt.Fprintf(&b, `{"lat":%.4f,"lon":%.4f}`, rng.Float64()*90, rng.Float64()*180)
		} else {
			b.WriteString("null")
		}
		b.WriteString(`,"entities":{"hashtags":[],"urls":[{"url":"https://example.com/` + strconv.Itoa(i) + `"}]}}`)
	}
	b.WriteString(`],"count":` + strconv.Itoa(n) + `}`)
	return []byte(b.String())
}
