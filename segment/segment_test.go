package segment

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dfirlabs/ewfcore/config"
)

// buildFixture assembles a minimal, well-formed segment file: file header,
// one "sectors" section wrapping n bytes of payload, and a terminal "done"
// section.
func buildFixture(t *testing.T, payload []byte) string {
	t.Helper()

	var buf bytes.Buffer

	header := make([]byte, fileHeaderLength)
	copy(header, evfSignature[:])
	buf.Write(header)

	sectorsAddr := int64(buf.Len())
	sectorsSize := uint64(sectionLength + len(payload))
	nextAddr := sectorsAddr + int64(sectorsSize)

	writeSection(t, &buf, "sectors", uint64(nextAddr), sectorsSize)
	buf.Write(payload)

	doneAddr := int64(buf.Len())
	_ = doneAddr
	writeSection(t, &buf, "done", 0, sectionLength)

	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.E01")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func writeSection(t *testing.T, buf *bytes.Buffer, typ string, nextOffset, size uint64) {
	t.Helper()
	var raw rawSection
	copy(raw.TypeDefinition[:], typ)
	raw.NextOffset = nextOffset
	raw.Size = size
	require.NoError(t, binary.Write(buf, binary.LittleEndian, &raw))
}

func TestOpenParsesSectionsAndSectorsRange(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 128)
	path := buildFixture(t, payload)

	sf, err := Open(path)
	require.NoError(t, err)
	defer sf.Close()

	ranges := sf.SectionList()
	require.Len(t, ranges, 1)
	require.Equal(t, int64(fileHeaderLength+sectionLength), ranges[0].Start)
	require.Equal(t, ranges[0].Start+int64(len(payload)), ranges[0].End)
}

func TestReadAtReturnsSectorBytes(t *testing.T) {
	payload := bytes.Repeat([]byte{0xCD}, 64)
	path := buildFixture(t, payload)

	sf, err := Open(path)
	require.NoError(t, err)
	defer sf.Close()

	rng := sf.SectionList()[0]
	got, err := sf.ReadAt(rng.Start, len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestOpenRejectsBadSignature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.E01")
	require.NoError(t, os.WriteFile(path, make([]byte, fileHeaderLength), 0o600))

	_, err := Open(path)
	require.Error(t, err)
}

func TestTableArenaAddGet(t *testing.T) {
	payload := []byte{0x01, 0x02}
	path := buildFixture(t, payload)

	sf, err := Open(path)
	require.NoError(t, err)

	arena := NewTable()
	h := arena.Add(sf)

	got, err := arena.Get(h)
	require.NoError(t, err)
	require.Same(t, sf, got)
	require.NoError(t, arena.Close())
}

func TestTableGetRejectsOutOfRange(t *testing.T) {
	arena := NewTable()
	_, err := arena.Get(0)
	require.Error(t, err)
}

func TestNextNameTwoDigitRange(t *testing.T) {
	name, err := NextName(config.SegmentFileTypeEWF, 1)
	require.NoError(t, err)
	require.Equal(t, ".E01", name)

	name, err = NextName(config.SegmentFileTypeEWF, 99)
	require.NoError(t, err)
	require.Equal(t, ".E99", name)
}

func TestNextNameBase26Range(t *testing.T) {
	name, err := NextName(config.SegmentFileTypeEWF, 100)
	require.NoError(t, err)
	require.Equal(t, ".EAA", name)

	name, err = NextName(config.SegmentFileTypeEWF, 100+675)
	require.NoError(t, err)
	require.Equal(t, ".EZZ", name)
}

func TestNextNameRollsPrefixOnLetterOverflow(t *testing.T) {
	name, err := NextName(config.SegmentFileTypeEWF, 100+676)
	require.NoError(t, err)
	require.Equal(t, ".FAA", name)
}

func TestNextNameRejectsZero(t *testing.T) {
	_, err := NextName(config.SegmentFileTypeEWF, 0)
	require.Error(t, err)
}

func TestNextNameLogicalFamilyPrefix(t *testing.T) {
	name, err := NextName(config.SegmentFileTypeLWF, 1)
	require.NoError(t, err)
	require.Equal(t, ".L01", name)
}
