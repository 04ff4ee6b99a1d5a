package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// Value frames written to the KV backend.
const (
	frameRaw byte = 0
	frameLZ4 byte = 1
)

// Compression names accepted by NewStore.
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
)

// minCompressSize is the smallest record worth handing to LZ4.
const minCompressSize = 64

var errCorruptFrame = errors.New("state: corrupt value frame")

// encodeFrame wraps a record for storage, compressing it when enabled and
// when compression actually shrinks it.
func encodeFrame(data []byte, compression string) ([]byte, error) {
	if compression == CompressionLZ4 && len(data) >= minCompressSize {
		compressed := make([]byte, lz4.CompressBlockBound(len(data)))
		hashTable := make([]int, 1<<16)
		n, err := lz4.CompressBlock(data, compressed, hashTable)
		if err != nil {
			return nil, fmt.Errorf("lz4 compression failed: %w", err)
		}
		// n == 0 means incompressible
		if n > 0 && n+binary.MaxVarintLen64 < len(data) {
			out := make([]byte, 0, 1+binary.MaxVarintLen64+n)
			out = append(out, frameLZ4)
			out = binary.AppendUvarint(out, uint64(len(data)))
			return append(out, compressed[:n]...), nil
		}
	}

	out := make([]byte, 0, 1+len(data))
	out = append(out, frameRaw)
	return append(out, data...), nil
}

// decodeFrame reverses encodeFrame regardless of the current setting.
func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, errCorruptFrame
	}

	switch frame[0] {
	case frameRaw:
		return frame[1:], nil
	case frameLZ4:
		size, n := binary.Uvarint(frame[1:])
		if n <= 0 {
			return nil, errCorruptFrame
		}
		out := make([]byte, size)
		written, err := lz4.UncompressBlock(frame[1+n:], out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint64(written) != size {
			return nil, errCorruptFrame
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown frame type %d", errCorruptFrame, frame[0])
	}
}
