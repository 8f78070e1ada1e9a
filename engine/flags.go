package engine

import (
	"strings"

	"github.com/wippyai/jsonabi/parser"
	"github.com/wippyai/jsonabi/writer"
)

// DeserializeFlags is the configuration bitmask accepted by Deserialize.
// Unknown bits are ignored.
type DeserializeFlags uint64

const (
	// DeserializeRawNumber keeps number literals as their source text.
	DeserializeRawNumber DeserializeFlags = 1 << iota
	// DeserializeRawValue keeps the source text of every scalar.
	DeserializeRawValue
	// DeserializeUTF8Lossy substitutes U+FFFD for invalid UTF-8.
	DeserializeUTF8Lossy
)

// SerializeFlags is the configuration bitmask accepted by Serialize. It does
// not share bit meanings with DeserializeFlags. Unknown bits are ignored.
type SerializeFlags uint64

// SerializePretty selects indented output.
const SerializePretty SerializeFlags = 1

// Options decodes the bitmask for the parser.
func (f DeserializeFlags) Options() parser.Options {
	return parser.Options{
		RawNumber: f&DeserializeRawNumber != 0,
		RawValue:  f&DeserializeRawValue != 0,
		UTF8Lossy: f&DeserializeUTF8Lossy != 0,
	}
}

func (f DeserializeFlags) String() string {
	var names []string
	if f&DeserializeRawNumber != 0 {
		names = append(names, "raw_number")
	}
	if f&DeserializeRawValue != 0 {
		names = append(names, "raw_value")
	}
	if f&DeserializeUTF8Lossy != 0 {
		names = append(names, "utf8_lossy")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Options decodes the bitmask for the writer.
func (f SerializeFlags) Options() writer.Options {
	return writer.Options{Pretty: f&SerializePretty != 0}
}

func (f SerializeFlags) String() string {
	if f&SerializePretty != 0 {
		return "pretty"
	}
	return "none"
}
