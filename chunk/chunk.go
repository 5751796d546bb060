// Package chunk 实现 EWF 的块编解码状态机（§4.C）：raw ↔ packed（+校验和
// 或压缩），对应 original_source/libewf/libewf_chunk_data.c 的
// libewf_chunk_data_pack / libewf_chunk_data_unpack。
package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dfirlabs/ewfcore/checksum"
	"github.com/dfirlabs/ewfcore/compression"
	"github.com/dfirlabs/ewfcore/config"
	"github.com/dfirlabs/ewfcore/ewferr"
)

// Flags controls pack-time behavior (mirrors EWF's compression_flags byte).
type Flags struct {
	// CompressEmptyBlock enables the all-same-byte fast path of step 2.
	CompressEmptyBlock bool
}

// Data is ChunkData: the unit the codec packs and unpacks. data is
// canonical in both raw and packed state; compressedData is a transient
// staging area used only during pack/unpack, per the data-model invariant.
type Data struct {
	data   []byte
	dataSize int

	compressedData     []byte
	compressedDataSize int

	isPacked         bool
	isCompressed     bool
	isCorrupt        bool
	isEmptyZeroBlock bool
}

// NewRaw creates a ChunkData in the raw state, owning a copy of data.
// allocatedSize must be at least len(data)+4 so pack() can append the
// trailing checksum without reallocating.
func NewRaw(data []byte, allocatedSize int) (*Data, error) {
	if allocatedSize < len(data)+4 {
		return nil, fmt.Errorf("chunk.NewRaw: %w: allocated size %d too small for %d bytes", ewferr.ErrOutOfBounds, allocatedSize, len(data))
	}
	buf := make([]byte, len(data), allocatedSize)
	copy(buf, data)
	return &Data{data: buf, dataSize: len(data)}, nil
}

// NewPacked creates a ChunkData already in the packed state, as produced by
// reading segment-file bytes located by an offsettable.ChunkLocator.
// compressed indicates which of the two packed sub-states the bytes are in.
func NewPacked(raw []byte, compressed bool) *Data {
	data := append([]byte(nil), raw...)
	return &Data{isPacked: true, isCompressed: compressed, data: data, dataSize: len(data)}
}

// IsPacked, IsCompressed, IsCorrupt and IsEmptyZeroBlock expose the codec's
// state flags (§3 ChunkData invariants).
func (d *Data) IsPacked() bool         { return d.isPacked }
func (d *Data) IsCompressed() bool     { return d.isCompressed }
func (d *Data) IsCorrupt() bool        { return d.isCorrupt }
func (d *Data) IsEmptyZeroBlock() bool { return d.isEmptyZeroBlock }

// Bytes returns the chunk's canonical bytes in its current state: the raw
// payload when unpacked, or the on-disk form (with trailer, or the DEFLATE
// stream) when packed.
func (d *Data) Bytes() []byte { return d.data[:d.dataSize] }

// emptyBlockTest reports whether every byte in buf equals buf[0] — the
// "empty block" test of §4.C step 2. An empty buf is not an empty block.
func emptyBlockTest(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	first := buf[0]
	for _, b := range buf[1:] {
		if b != first {
			return false
		}
	}
	return true
}

// Pack converts a raw ChunkData into its on-disk form, choosing between the
// compressed and checksummed-raw encodings per §4.C. Calling Pack on an
// already-packed chunk is a no-op that returns success.
//
// cachedZeroBlock, if non-nil, is the precomputed compressed encoding of a
// full chunk of zero bytes (chunkSize long); when the chunk is an all-zero
// empty block of exactly chunkSize bytes, it is copied verbatim instead of
// invoking zlib — the fast path that makes packing large all-zero images
// cheap.
func (d *Data) Pack(level config.CompressionLevel, flags Flags, format config.Format, chunkSize int, cachedZeroBlock []byte) error {
	if d.isPacked {
		return nil
	}
	d.isCompressed = false

	isEmptyZeroBlock := false

	if !format.S01() && flags.CompressEmptyBlock {
		if emptyBlockTest(d.data[:d.dataSize]) {
			if level == config.CompressionNone {
				level = config.CompressionDefault
			}
			if d.dataSize > 0 && d.data[0] == 0 {
				isEmptyZeroBlock = true
			}
		} else {
			level = config.CompressionNone
		}
	}
	d.isEmptyZeroBlock = isEmptyZeroBlock

	if format.S01() || level != config.CompressionNone {
		if isEmptyZeroBlock && d.dataSize == chunkSize && cachedZeroBlock != nil {
			d.compressedData = append([]byte(nil), cachedZeroBlock...)
			d.compressedDataSize = len(d.compressedData)
		} else {
			var compressed []byte
			if err := compression.Compress(&compressed, d.data[:d.dataSize], level); err != nil {
				return fmt.Errorf("chunk.Pack: %w", err)
			}
			d.compressedData = compressed
			d.compressedDataSize = len(compressed)
		}

		if format.S01() || d.compressedDataSize < d.dataSize {
			d.data = d.compressedData
			d.dataSize = d.compressedDataSize
			d.compressedData = nil
			d.compressedDataSize = 0
			d.isCompressed = true
		}
	}

	if !d.isCompressed {
		if d.dataSize+4 > cap(d.data) {
			return fmt.Errorf("chunk.Pack: %w: chunk data size %d exceeds allocated capacity %d", ewferr.ErrOutOfBounds, d.dataSize+4, cap(d.data))
		}
		d.data = d.data[:cap(d.data)]
		sum := checksum.Calculate(checksum.Seed, d.data[:d.dataSize])
		binary.LittleEndian.PutUint32(d.data[d.dataSize:d.dataSize+4], sum)
		d.dataSize += 4
		d.data = d.data[:d.dataSize]
	}

	d.isPacked = true
	return nil
}

// Unpack converts a packed ChunkData back to raw. If the chunk is
// uncompressed, the trailing 4-byte checksum is validated and stripped;
// on mismatch IsCorrupt is set but the call still succeeds (the data is
// trusted as-is). If the chunk is compressed, it is inflated; a structural
// decompression error likewise sets IsCorrupt rather than failing the call.
// Unpack on an already-raw chunk is a no-op that returns success.
func (d *Data) Unpack(chunkSize int) error {
	if !d.isPacked {
		return nil
	}

	if !d.isCompressed {
		if d.dataSize < 4 {
			return fmt.Errorf("chunk.Unpack: %w: packed size %d shorter than checksum trailer", ewferr.ErrOutOfBounds, d.dataSize)
		}
		stored := binary.LittleEndian.Uint32(d.data[d.dataSize-4 : d.dataSize])
		calculated := checksum.Calculate(checksum.Seed, d.data[:d.dataSize-4])
		if stored != calculated {
			d.isCorrupt = true
		}
		d.dataSize -= 4
		d.data = d.data[:d.dataSize]
	} else {
		compressedData := d.data[:d.dataSize]
		out := make([]byte, 0, chunkSize+4)

		err := compression.Decompress(&out, compressedData)
		if err != nil {
			if errors.Is(err, ewferr.ErrCorruptData) {
				d.isCorrupt = true
				d.data = out
				d.dataSize = len(out)
			} else {
				return fmt.Errorf("chunk.Unpack: %w", err)
			}
		} else {
			d.data = out
			d.dataSize = len(out)
		}
		d.compressedData = nil
		d.compressedDataSize = 0
		d.isCompressed = false
	}

	d.isPacked = false
	return nil
}
