// Package offsettable 实现全局块索引（§4.D），对应
// original_source/libewf/libewf_offset_table.c 的
// libewf_offset_table_fill / libewf_offset_table_fill_offsets /
// libewf_offset_table_calculate_last_offset / libewf_offset_table_compare。
package offsettable

import (
	"fmt"
	"math"

	"github.com/dfirlabs/ewfcore/config"
	"github.com/dfirlabs/ewfcore/ewferr"
	"github.com/dfirlabs/ewfcore/ewflog"
)

// compressedMask / offsetMask isolate the high "compressed"
// bit from the low 31-bit offset in a raw table entry (§6).
const (
	compressedMask = uint32(1) << 31
	offsetMask     = compressedMask - 1
)

// SegmentFileHandle is the arena index a ChunkLocator carries instead of the
// weak raw pointer the C implementation used (Design Note: cyclic back-
// pointer). The concrete arena (segment.Table) outlives every OffsetTable
// built over it.
type SegmentFileHandle int

// ChunkLocator locates one chunk's on-disk bytes (§3).
type ChunkLocator struct {
	SegmentFile SegmentFileHandle
	FileOffset  int64
	Size        uint32
	Compressed  bool
}

// SectionRange is one (start, end) span of a segment file's section layout,
// used only by CalculateLastOffset to infer the final chunk's size.
type SectionRange struct {
	Start int64
	End   int64
}

// Table owns the flattened, global chunk index (§3 OffsetTable).
type Table struct {
	chunks []ChunkLocator
	log    ewflog.Logger
}

// New returns an empty Table. If log is nil, warnings are discarded.
func New(log ewflog.Logger) *Table {
	if log == nil {
		log = ewflog.Discard
	}
	return &Table{log: log}
}

// Len returns the number of filled locators.
func (t *Table) Len() int { return len(t.chunks) }

// At returns the locator for global chunk index i.
func (t *Table) At(i int) (ChunkLocator, error) {
	if i < 0 || i >= len(t.chunks) {
		return ChunkLocator{}, fmt.Errorf("offsettable.At: %w: index %d, length %d", ewferr.ErrOutOfBounds, i, len(t.chunks))
	}
	return t.chunks[i], nil
}

// Fill appends len(entries) locators built from a single table section's
// raw offset array. baseOffset is the section's base_offset; segmentFile
// identifies which arena entry every emitted locator points into.
//
// The last entry in entries has no successor; its Size is left as a 0
// "pending" placeholder, to be patched by CalculateLastOffset.
func (t *Table) Fill(baseOffset int64, entries []uint32, segmentFile SegmentFileHandle, tolerance config.ErrorTolerance) error {
	if baseOffset < 0 {
		return fmt.Errorf("offsettable.Fill: %w: negative base offset %d", ewferr.ErrInvalidArgument, baseOffset)
	}
	n := len(entries)
	if n == 0 {
		return fmt.Errorf("offsettable.Fill: %w: empty entries", ewferr.ErrInvalidArgument)
	}

	start := len(t.chunks)
	t.chunks = append(t.chunks, make([]ChunkLocator, n)...)

	overflow := false
	rawCurr := entries[0]

	for i := 0; i < n-1; i++ {
		var compressed bool
		var currOff uint32

		if !overflow {
			compressed = rawCurr&compressedMask != 0
			currOff = rawCurr & offsetMask
		} else {
			currOff = rawCurr
		}

		rawNext := entries[i+1]

		var nextOff uint32
		if !overflow {
			nextOff = rawNext & offsetMask
		} else {
			nextOff = rawNext
		}

		var size uint32
		if nextOff < currOff {
			// EnCase 6 >2 GiB problem: the 31-bit offset field was
			// truncated but the data continues past 2 GiB. Reinterpret
			// the raw successor value as a full 32-bit offset.
			if rawNext < currOff {
				return fmt.Errorf("offsettable.Fill: %w: chunk offset %d exceeds raw successor %d", ewferr.ErrOutOfBounds, currOff, rawNext)
			}
			t.log.Warnf("offsettable: chunk offset %d larger than next %d, treating as >2GiB overflow", currOff, nextOff)
			size = rawNext - currOff
		} else {
			size = nextOff - currOff
		}

		if size == 0 {
			t.log.Warnf("offsettable: chunk %d has zero size", start+i)
			if tolerance < config.ErrorToleranceCompensate {
				return fmt.Errorf("offsettable.Fill: %w: zero-size chunk at index %d", ewferr.ErrInvalidArgument, start+i)
			}
		}
		if size > math.MaxInt32 {
			return fmt.Errorf("offsettable.Fill: %w: chunk size %d exceeds INT32_MAX", ewferr.ErrOutOfBounds, size)
		}

		t.chunks[start+i] = ChunkLocator{
			SegmentFile: segmentFile,
			FileOffset:  baseOffset + int64(currOff),
			Size:        size,
			Compressed:  compressed,
		}

		if !overflow && uint64(currOff)+uint64(size) > math.MaxInt32 {
			t.log.Verbosef("offsettable: chunk offset overflow at %d, entering overflow mode", currOff)
			overflow = true
		}

		rawCurr = rawNext
	}

	// Last entry: size is patched later via CalculateLastOffset.
	var compressed bool
	var currOff uint32
	if !overflow {
		compressed = rawCurr&compressedMask != 0
		currOff = rawCurr & offsetMask
	} else {
		currOff = rawCurr
	}
	t.chunks[start+n-1] = ChunkLocator{
		SegmentFile: segmentFile,
		FileOffset:  baseOffset + int64(currOff),
		Size:        0,
		Compressed:  compressed,
	}

	return nil
}

// CalculateLastOffset infers the size of the most recently filled locator
// by finding the section in sections whose range contains its FileOffset,
// and setting Size to section.End - locator.FileOffset (§4.D).
func (t *Table) CalculateLastOffset(sections []SectionRange) error {
	if len(t.chunks) == 0 {
		return fmt.Errorf("offsettable.CalculateLastOffset: %w: empty table", ewferr.ErrInvalidArgument)
	}
	last := &t.chunks[len(t.chunks)-1]

	for _, s := range sections {
		if last.FileOffset >= s.Start && last.FileOffset < s.End {
			size := s.End - last.FileOffset
			if size < 0 || size > math.MaxInt32 {
				return fmt.Errorf("offsettable.CalculateLastOffset: %w: inferred size %d out of range", ewferr.ErrOutOfBounds, size)
			}
			last.Size = uint32(size)
			return nil
		}
	}
	return fmt.Errorf("offsettable.CalculateLastOffset: %w: no section contains offset %d", ewferr.ErrInvalidArgument, last.FileOffset)
}

// FillOffsets is the write-side inverse of Fill: it emits raw little-endian
// u32 entries for table[index:index+count], relative to baseOffset, with
// the compressed high bit OR'd in where applicable.
func FillOffsets(table []ChunkLocator, index, count int, baseOffset int64) ([]uint32, error) {
	if index < 0 || count < 0 || index+count > len(table) {
		return nil, fmt.Errorf("offsettable.FillOffsets: %w: index %d count %d length %d", ewferr.ErrOutOfBounds, index, count, len(table))
	}
	out := make([]uint32, count)
	for i := 0; i < count; i++ {
		loc := table[index+i]
		rel := loc.FileOffset - baseOffset
		if rel < 0 || rel > math.MaxInt32 {
			return nil, fmt.Errorf("offsettable.FillOffsets: %w: relative offset %d out of range", ewferr.ErrOutOfBounds, rel)
		}
		value := uint32(rel)
		if loc.Compressed {
			value |= compressedMask
		}
		out[i] = value
	}
	return out, nil
}

// Equal implements the table-vs-table2 equality check of §4.D: same
// length, and every locator has the same FileOffset. Size and Compressed
// are not compared.
func Equal(a, b *Table) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.chunks {
		if a.chunks[i].FileOffset != b.chunks[i].FileOffset {
			return false
		}
	}
	return true
}

// Seek returns the FileOffset of the locator for chunkIndex (§4.D "Seek").
// It does not position any segment file itself; handle.GetChunk reads the
// locator through At and passes its FileOffset to segment.File.ReadAt.
func (t *Table) Seek(chunkIndex int) (int64, error) {
	loc, err := t.At(chunkIndex)
	if err != nil {
		return 0, err
	}
	return loc.FileOffset, nil
}
