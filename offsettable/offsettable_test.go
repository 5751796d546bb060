package offsettable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dfirlabs/ewfcore/config"
)

func TestFillBasic(t *testing.T) {
	tbl := New(nil)
	require.NoError(t, tbl.Fill(0x1000, []uint32{0x0000_1000, 0x0000_3000, 0x0000_5000}, 0, config.ErrorToleranceNone))

	want := []ChunkLocator{
		{SegmentFile: 0, FileOffset: 0x2000, Size: 0x2000, Compressed: false},
		{SegmentFile: 0, FileOffset: 0x4000, Size: 0x2000, Compressed: false},
		{SegmentFile: 0, FileOffset: 0x6000, Size: 0, Compressed: false},
	}
	for i, w := range want {
		got, err := tbl.At(i)
		require.NoError(t, err)
		if diff := cmp.Diff(w, got); diff != "" {
			t.Fatalf("locator %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestFillCompressedBitPropagates(t *testing.T) {
	tbl := New(nil)
	require.NoError(t, tbl.Fill(0, []uint32{0x8000_0000, 0x8000_0100}, 0, config.ErrorToleranceNone))

	first, err := tbl.At(0)
	require.NoError(t, err)
	require.True(t, first.Compressed)
	require.Equal(t, uint32(0x100), first.Size)
}

// This fixture matches libewf's actual >2GiB overflow-recovery algorithm
// (original_source/libewf/libewf_offset_table.c): chunk 0 sits just under
// the 2GiB boundary; once the running offset crosses 2^31, every later raw
// entry is the true (unmasked) absolute offset and keeps climbing past
// 2^31 — it never wraps back down to a small value, since a genuine
// acquisition never un-writes the chunks it already wrote. A successor
// raw value smaller than the current offset in overflow mode is corrupt
// data, not a valid overflow continuation, so Fill legitimately errors on
// that shape (see TestFillEncase6OverflowSuccessorTooSmall).
func TestFillEncase6Overflow(t *testing.T) {
	tbl := New(nil)
	entries := []uint32{0x7FFF_F000, 0x8000_1000, 0x8000_3000}
	require.NoError(t, tbl.Fill(0, entries, 0, config.ErrorToleranceNone))

	first, err := tbl.At(0)
	require.NoError(t, err)
	require.Equal(t, int64(0x7FFF_F000), first.FileOffset)
	require.Equal(t, uint32(0x2000), first.Size)
	require.False(t, first.Compressed)

	// Entry 2 is now decoded in overflow mode: the whole u32 is the offset,
	// compression is implicitly false, no masking applied — FileOffset
	// exceeds 2^31, which a masked, non-overflow decode could never produce.
	last, err := tbl.At(2)
	require.NoError(t, err)
	require.Equal(t, int64(0x8000_3000), last.FileOffset)
	require.False(t, last.Compressed)
}

// TestFillEncase6OverflowSuccessorTooSmall asserts the error path: once in
// overflow mode, a successor raw value smaller than the current offset
// cannot be a legitimate continuation (§9, "offset overflow"; matches
// libewf_offset_table.c's equivalent comparison), so Fill must reject it
// instead of silently wrapping.
func TestFillEncase6OverflowSuccessorTooSmall(t *testing.T) {
	tbl := New(nil)
	entries := []uint32{0x7FFF_F000, 0x8000_1000, 0x0000_0500}
	err := tbl.Fill(0, entries, 0, config.ErrorToleranceNone)
	require.Error(t, err)
}

func TestFillRejectsZeroSizeWithoutTolerance(t *testing.T) {
	tbl := New(nil)
	err := tbl.Fill(0, []uint32{0x1000, 0x1000, 0x2000}, 0, config.ErrorToleranceNone)
	require.Error(t, err)
}

func TestFillAcceptsZeroSizeWithTolerance(t *testing.T) {
	tbl := New(nil)
	err := tbl.Fill(0, []uint32{0x1000, 0x1000, 0x2000}, 0, config.ErrorToleranceCompensate)
	require.NoError(t, err)
}

func TestCalculateLastOffset(t *testing.T) {
	tbl := New(nil)
	require.NoError(t, tbl.Fill(0x1000, []uint32{0x0000_1000, 0x0000_5000}, 0, config.ErrorToleranceNone))

	require.NoError(t, tbl.CalculateLastOffset([]SectionRange{
		{Start: 0, End: 0x2000},
		{Start: 0x2000, End: 0x9000},
	}))

	last, err := tbl.At(tbl.Len() - 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0x9000-0x5000-0x1000), last.Size)
}

func TestEqualityDetectsMismatch(t *testing.T) {
	a := New(nil)
	b := New(nil)
	require.NoError(t, a.Fill(0x1000, []uint32{0x1000, 0x3000, 0x5000}, 0, config.ErrorToleranceNone))
	require.NoError(t, b.Fill(0x1000, []uint32{0x1000, 0x3000, 0x5000}, 0, config.ErrorToleranceNone))

	require.True(t, Equal(a, b))

	mutated, err := b.At(0)
	require.NoError(t, err)
	mutated.FileOffset++
	b.chunks[0] = mutated

	require.False(t, Equal(a, b))
}

func TestFillOffsetsRoundTrip(t *testing.T) {
	original := []ChunkLocator{
		{FileOffset: 0x2000, Size: 0x1000, Compressed: false},
		{FileOffset: 0x3000, Size: 0x1000, Compressed: true},
		{FileOffset: 0x4000, Size: 0, Compressed: false},
	}

	raw, err := FillOffsets(original, 0, 3, 0x1000)
	require.NoError(t, err)
	require.Equal(t, []uint32{0x0000_1000, 0x8000_2000, 0x0000_3000}, raw)

	tbl := New(nil)
	require.NoError(t, tbl.Fill(0x1000, raw, 0, config.ErrorToleranceNone))

	for i := 0; i < 2; i++ {
		got, err := tbl.At(i)
		require.NoError(t, err)
		require.Equal(t, original[i].FileOffset, got.FileOffset)
		require.Equal(t, original[i].Size, got.Size)
		require.Equal(t, original[i].Compressed, got.Compressed)
	}
	last, err := tbl.At(2)
	require.NoError(t, err)
	require.Equal(t, original[2].FileOffset, last.FileOffset)
	require.Equal(t, uint32(0), last.Size)
}

func TestSeek(t *testing.T) {
	tbl := New(nil)
	require.NoError(t, tbl.Fill(0x1000, []uint32{0x1000, 0x3000}, 0, config.ErrorToleranceNone))

	off, err := tbl.Seek(0)
	require.NoError(t, err)
	require.Equal(t, int64(0x2000), off)
}
