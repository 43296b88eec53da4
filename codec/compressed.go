package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression of a Compressed codec.
type Compression uint8

const (
	// CompressionNone disables compression.
	CompressionNone Compression = iota
	// CompressionZSTD compresses with ZSTD (better ratio).
	CompressionZSTD
	// CompressionLZ4 compresses with LZ4 (faster).
	CompressionLZ4
)

// String returns the configuration name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ParseCompression parses a configuration name.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZSTD, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("codec: unknown compression %q", s)
	}
}

// DefaultCompressionThreshold is the payload size below which Compressed
// stores payloads raw.
const DefaultCompressionThreshold = 1024

// MaxDecompressedSize bounds the uncompressed size a block header may claim.
const MaxDecompressedSize = 64 << 20

// Block header: [algorithm:1][uncompressed size:4].
const blockHeaderSize = 5

var errShortBlock = errors.New("codec: compressed block too small for header")

// ErrPayloadTooLarge is returned for a block whose header claims more than
// MaxDecompressedSize bytes.
var ErrPayloadTooLarge = errors.New("codec: payload exceeds maximum decompressed size")

// Compressed wraps a codec and compresses encoded payloads larger than
// Threshold. Each payload is self-describing, so a receiver decodes both raw
// and compressed blocks regardless of its own Algorithm.
type Compressed struct {
	Inner     Codec
	Algorithm Compression
	// Threshold is the minimum payload size that is compressed.
	// Zero means DefaultCompressionThreshold.
	Threshold int
}

// NewCompressed wraps inner with the given algorithm.
func NewCompressed(inner Codec, algorithm Compression, threshold int) Compressed {
	if inner == nil {
		inner = Default
	}
	return Compressed{Inner: inner, Algorithm: algorithm, Threshold: threshold}
}

// Marshal encodes v with the inner codec and compresses the result.
func (c Compressed) Marshal(v any) ([]byte, error) {
	data, err := c.inner().Marshal(v)
	if err != nil {
		return nil, err
	}

	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultCompressionThreshold
	}

	algo := c.Algorithm
	if len(data) < threshold {
		algo = CompressionNone
	}

	var body []byte
	switch algo {
	case CompressionZSTD:
		body = zstdEncoder().EncodeAll(data, nil)
	case CompressionLZ4:
		body, err = compressLZ4(data)
		if err != nil {
			return nil, err
		}
	}

	// If compression doesn't help, store uncompressed.
	if body == nil || len(body) >= len(data) {
		algo = CompressionNone
		body = data
	}

	out := make([]byte, blockHeaderSize+len(body))
	out[0] = byte(algo)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	copy(out[blockHeaderSize:], body)
	return out, nil
}

// Unmarshal decompresses data and decodes it with the inner codec.
func (c Compressed) Unmarshal(data []byte, v any) error {
	if len(data) < blockHeaderSize {
		return errShortBlock
	}

	size := binary.LittleEndian.Uint32(data[1:])
	if size > MaxDecompressedSize {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, size)
	}
	body := data[blockHeaderSize:]

	var raw []byte
	switch Compression(data[0]) {
	case CompressionNone:
		raw = body
	case CompressionZSTD:
		decoded, err := zstdDecoder().DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return fmt.Errorf("codec: zstd: %w", err)
		}
		raw = decoded
	case CompressionLZ4:
		result := make([]byte, size)
		n, err := lz4.UncompressBlock(body, result)
		if err != nil {
			return fmt.Errorf("codec: lz4: %w", err)
		}
		raw = result[:n]
	default:
		return fmt.Errorf("codec: unknown compression %d", data[0])
	}

	if uint32(len(raw)) != size {
		return errors.New("codec: decompressed size mismatch")
	}
	return c.inner().Unmarshal(raw, v)
}

// Name returns "<algorithm>+<inner name>".
func (c Compressed) Name() string {
	return c.Algorithm.String() + "+" + c.inner().Name()
}

func (c Compressed) inner() Codec {
	if c.Inner == nil {
		return Default
	}
	return c.Inner
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
)

// EncodeAll and DecodeAll are safe for concurrent use.
func initZstd() {
	var err error
	zstdEnc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Errorf("codec: zstd encoder: %w", err))
	}
	zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecompressedSize))
	if err != nil {
		panic(fmt.Errorf("codec: zstd decoder: %w", err))
	}
}

func zstdEncoder() *zstd.Encoder {
	zstdOnce.Do(initZstd)
	return zstdEnc
}

func zstdDecoder() *zstd.Decoder {
	zstdOnce.Do(initZstd)
	return zstdDec
}
