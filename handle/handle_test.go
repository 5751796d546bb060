package handle

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dfirlabs/ewfcore/chunk"
	"github.com/dfirlabs/ewfcore/compression"
	"github.com/dfirlabs/ewfcore/config"
	"github.com/dfirlabs/ewfcore/internal"
	"github.com/dfirlabs/ewfcore/valuetable"
)

const (
	fileHeaderLength = 13
	sectionLength    = 76
)

var evfSignature = [8]byte{'E', 'V', 'F', 0x09, 0x0d, 0x0a, 0xff, 0x00}

type rawSection struct {
	TypeDefinition [16]byte
	NextOffset     uint64
	Size           uint64
	_              [40]byte
	Checksum       uint32
}

type sectionSpec struct {
	typ     string
	content []byte
}

// buildSingleChunkImage assembles a minimal, single-chunk, single-segment
// EWF image: a DiskSMART-layout data section, a zlib-compressed header, a
// legacy MD5 hash, one uncompressed-and-checksummed sectors chunk and its
// table index.
func buildSingleChunkImage(t *testing.T) string {
	t.Helper()

	payload := make([]byte, 64*512)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	packed, err := chunk.NewRaw(payload, len(payload)+4)
	require.NoError(t, err)
	require.NoError(t, packed.Pack(config.CompressionNone, chunk.Flags{}, config.FormatEWF, len(payload), nil))
	chunkBytes := packed.Bytes()

	var smart internal.DiskSMART
	smart.MediaType = 0x01
	smart.ChunkCount = 1
	smart.ChunkSectors = 64
	smart.SectorBytes = 512
	smart.SectorsCount = 64
	smart.CompressionLevel = 0
	smart.SectorErrorGranularity = 64
	copy(smart.SegmentFileSetIdentifier[:], bytes.Repeat([]byte{0xAB}, 16))
	var smartBuf bytes.Buffer
	require.NoError(t, binary.Write(&smartBuf, binary.LittleEndian, &smart))

	headerTable := valuetable.New()
	headerTable.Set("case_number", "C1")
	headerText, err := valuetable.GenerateHeader(headerTable, valuetable.HeaderFormatEWF, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), config.CompressionNone, config.DateFormatMonthDay)
	require.NoError(t, err)
	var headerCompressed []byte
	require.NoError(t, compression.Compress(&headerCompressed, []byte(headerText), config.CompressionNone))

	hashContent := append(bytes.Repeat([]byte{0xCD}, 16), make([]byte, 4)...)

	tableEntries := []uint32{0}
	var tableContent bytes.Buffer
	binary.Write(&tableContent, binary.LittleEndian, uint32(len(tableEntries)))
	tableContent.Write(make([]byte, 16))
	binary.Write(&tableContent, binary.LittleEndian, uint32(0))
	for _, e := range tableEntries {
		binary.Write(&tableContent, binary.LittleEndian, e)
	}

	specs := []sectionSpec{
		{"data", smartBuf.Bytes()},
		{"header", headerCompressed},
		{"hash", hashContent},
		{"sectors", chunkBytes},
		{"table", tableContent.Bytes()},
		{"done", nil},
	}

	var buf bytes.Buffer
	header := make([]byte, fileHeaderLength)
	copy(header, evfSignature[:])
	buf.Write(header)

	addr := int64(fileHeaderLength)
	addrs := make([]int64, len(specs))
	for i, s := range specs {
		addrs[i] = addr
		addr += sectionLength + int64(len(s.content))
	}

	for i, s := range specs {
		next := uint64(0)
		if i+1 < len(specs) {
			next = uint64(addrs[i+1])
		}
		var raw rawSection
		copy(raw.TypeDefinition[:], s.typ)
		raw.NextOffset = next
		raw.Size = uint64(sectionLength + len(s.content))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, &raw))
		buf.Write(s.content)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.E01")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestOpenIngestsGeometryAndHash(t *testing.T) {
	path := buildSingleChunkImage(t)

	h, err := Open([]string{path}, nil)
	require.NoError(t, err)

	require.EqualValues(t, 64, h.GetSectorsPerChunk())
	require.EqualValues(t, 512, h.GetBytesPerSector())
	require.EqualValues(t, 64*512, h.GetMediaSize())
	require.EqualValues(t, 64, h.GetAmountOfSectors())

	md5, ok := h.GetMD5Hash()
	require.True(t, ok)
	require.Equal(t, "cdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd", md5)
}

func TestReadSectorReturnsChunkBytes(t *testing.T) {
	path := buildSingleChunkImage(t)

	h, err := Open([]string{path}, nil)
	require.NoError(t, err)

	sector, err := h.ReadSector(0)
	require.NoError(t, err)
	require.Len(t, sector, 512)
	for i, b := range sector {
		require.Equal(t, byte(i%251), b)
	}
}

func TestReadSectorsSpansMultipleSectors(t *testing.T) {
	path := buildSingleChunkImage(t)

	h, err := Open([]string{path}, nil)
	require.NoError(t, err)

	data, err := h.ReadSectors(0, 2)
	require.NoError(t, err)
	require.Len(t, data, 1024)
}

func TestParseHeaderValuesPopulatesTable(t *testing.T) {
	path := buildSingleChunkImage(t)

	h, err := Open([]string{path}, nil)
	require.NoError(t, err)

	require.NoError(t, h.ParseHeaderValues(config.DateFormatMonthDay))

	v, ok := h.GetHeaderValue("case_number")
	require.True(t, ok)
	require.Equal(t, "C1", v)
}

func TestAcquiryErrorsAndSessions(t *testing.T) {
	h := New()
	h.AddAcquiryError(100, 8)
	h.AddSession(0, 1000)

	require.Equal(t, 1, h.GetAmountOfAcquiryErrors())
	entry, err := h.GetAcquiryError(0)
	require.NoError(t, err)
	require.Equal(t, ErrorEntry{FirstSector: 100, AmountOfSectors: 8}, entry)

	require.Equal(t, 1, h.GetAmountOfSessions())
	session, err := h.GetSession(0)
	require.NoError(t, err)
	require.Equal(t, SessionEntry{FirstSector: 0, AmountOfSectors: 1000}, session)

	_, err = h.GetAcquiryError(1)
	require.Error(t, err)
}

func TestSetMediaSizeRejectedAfterCommit(t *testing.T) {
	path := buildSingleChunkImage(t)
	h, err := Open([]string{path}, nil)
	require.NoError(t, err)

	err = h.SetMediaSize(123)
	require.Error(t, err)
}

func TestSegmentFilenameAlgorithm(t *testing.T) {
	name, err := New().GetSegmentFilename(1)
	require.NoError(t, err)
	require.Equal(t, ".E01", name)

	name, err = New().GetDeltaSegmentFilename(1)
	require.NoError(t, err)
	require.Equal(t, ".d01", name)
}

func TestCopyMediaValues(t *testing.T) {
	path := buildSingleChunkImage(t)
	src, err := Open([]string{path}, nil)
	require.NoError(t, err)

	dst := New()
	CopyMediaValues(dst, src)
	require.Equal(t, src.GetMediaSize(), dst.GetMediaSize())
	require.Equal(t, src.GetSectorsPerChunk(), dst.GetSectorsPerChunk())
}
