// Package codec centralizes wire payload encoding.
//
// Every rank of a process group must use the same codec: a payload encoded by
// one codec does not decode under another. The codec is therefore part of the
// group configuration, selected by its stable name.
package codec

import "strings"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = MsgPack{}

// ByName returns a codec by its stable name.
//
// Besides the plain codecs it accepts the names produced by Compressed.Name,
// such as "zstd+msgpack", using DefaultCompressionThreshold.
func ByName(name string) (Codec, bool) {
	if alg, inner, ok := strings.Cut(name, "+"); ok {
		a, err := ParseCompression(alg)
		if err != nil {
			return nil, false
		}
		c, ok := plain(inner)
		if !ok {
			return nil, false
		}
		return NewCompressed(c, a, DefaultCompressionThreshold), true
	}
	return plain(name)
}

func plain(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "msgpack":
		return MsgPack{}, true
	default:
		return nil, false
	}
}
