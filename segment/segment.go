// Package segment is the segment-file driver spec.md's §6 "External
// Interfaces" names as consumed, not produced, by the core: opening a
// segment file, reading/seeking within it, and walking its section chain
// into the (start, end) ranges offsettable.CalculateLastOffset needs.
// It is grounded on laenix-ewfgo's internal/ewf.go (EWFImage.Open,
// ReadAt, ReadSection, ReadSections) and internal/constants.go's Section
// layout, generalized from a single-file, single-owner image type into an
// arena (Table) of independently addressable segment files so a
// ChunkLocator's SegmentFileHandle can index into it (Design Note, §9).
package segment

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dfirlabs/ewfcore/config"
	"github.com/dfirlabs/ewfcore/ewferr"
	"github.com/dfirlabs/ewfcore/offsettable"
)

// fileHeaderLength and sectionLength mirror the teacher's
// EWFFileHeaderLength / SectionLength constants.
const (
	fileHeaderLength = 13
	sectionLength    = 76
)

var evfSignature = [8]byte{'E', 'V', 'F', 0x09, 0x0d, 0x0a, 0xff, 0x00}

// rawSection mirrors internal.Section: the 76-byte on-disk section header.
type rawSection struct {
	TypeDefinition [16]byte
	NextOffset     uint64
	Size           uint64
	_              [40]byte
	Checksum       uint32
}

// sectionEntry is one parsed link in a segment file's section chain.
type sectionEntry struct {
	Type  string
	Start int64 // first byte of section content (address + sectionLength)
	End   int64 // address + Size: first byte past this section
}

// File is one opened segment file (.E01, .L01, ...). It owns the
// underlying os.File and the section chain discovered at Open time.
type File struct {
	path     string
	f        *os.File
	sections []sectionEntry
}

// Open opens path, verifies the EWF file-header signature and walks the
// section chain to the terminal "done" section.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("segment.Open: %w", err)
	}

	sf := &File{path: path, f: f}
	if err := sf.verifySignature(); err != nil {
		f.Close()
		return nil, err
	}
	if err := sf.readSections(); err != nil {
		f.Close()
		return nil, err
	}
	return sf, nil
}

func (sf *File) verifySignature() error {
	header := make([]byte, fileHeaderLength)
	if _, err := io.ReadFull(io.NewSectionReader(sf.f, 0, fileHeaderLength), header); err != nil {
		return fmt.Errorf("segment.Open: %w: reading file header: %v", ewferr.ErrCorruptData, err)
	}
	if !bytes.Equal(header[:8], evfSignature[:]) {
		return fmt.Errorf("segment.Open: %w: bad EVF signature", ewferr.ErrCorruptData)
	}
	return nil
}

func (sf *File) readSections() error {
	address := int64(fileHeaderLength)

	for {
		var raw rawSection
		sr := io.NewSectionReader(sf.f, address, sectionLength)
		if err := binary.Read(sr, binary.LittleEndian, &raw); err != nil {
			return fmt.Errorf("segment.readSections: %w: %v", ewferr.ErrCorruptData, err)
		}

		typ := string(bytes.TrimRight(raw.TypeDefinition[:], "\x00"))
		entry := sectionEntry{
			Type:  typ,
			Start: address + sectionLength,
			End:   address + int64(raw.Size),
		}
		sf.sections = append(sf.sections, entry)

		if typ == "done" || raw.NextOffset == 0 {
			break
		}
		address = int64(raw.NextOffset)
	}
	return nil
}

// SectionList returns the (start, end) content ranges of every "sectors"
// section in the chain — the ranges offsettable.CalculateLastOffset scans
// to infer the final chunk's size (§6).
func (sf *File) SectionList() []offsettable.SectionRange {
	var out []offsettable.SectionRange
	for _, s := range sf.sections {
		if s.Type == "sectors" {
			out = append(out, offsettable.SectionRange{Start: s.Start, End: s.End})
		}
	}
	return out
}

// Section returns the content range of the first section of the given
// type (e.g. "header", "table", "hash"), or ok=false if none exists.
func (sf *File) Section(sectionType string) (offsettable.SectionRange, bool) {
	for _, s := range sf.sections {
		if s.Type == sectionType {
			return offsettable.SectionRange{Start: s.Start, End: s.End}, true
		}
	}
	return offsettable.SectionRange{}, false
}

// ReadAt reads length bytes at the given absolute file offset.
func (sf *File) ReadAt(offset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(sf.f, offset, int64(length)), buf); err != nil {
		return nil, fmt.Errorf("segment.ReadAt: %w", err)
	}
	return buf, nil
}

// Seek and Read expose the segment file as a plain stream cursor, the
// other half of the "read/seek" driver primitives named in §6.
func (sf *File) Seek(offset int64, whence int) (int64, error) { return sf.f.Seek(offset, whence) }
func (sf *File) Read(buf []byte) (int, error)                 { return sf.f.Read(buf) }

// Close releases the underlying file handle.
func (sf *File) Close() error { return sf.f.Close() }

// Table is the arena of segment files a Handle owns; offsettable's
// SegmentFileHandle indices are positions into it (Design Note, §9). The
// arena outlives every OffsetTable built over it.
type Table struct {
	files []*File
}

// NewTable returns an empty arena.
func NewTable() *Table { return &Table{} }

// Add takes ownership of sf and returns the handle future ChunkLocators
// should carry.
func (t *Table) Add(sf *File) offsettable.SegmentFileHandle {
	t.files = append(t.files, sf)
	return offsettable.SegmentFileHandle(len(t.files) - 1)
}

// Get resolves a handle back to its segment file.
func (t *Table) Get(h offsettable.SegmentFileHandle) (*File, error) {
	i := int(h)
	if i < 0 || i >= len(t.files) {
		return nil, fmt.Errorf("segment.Table.Get: %w: handle %d, arena size %d", ewferr.ErrOutOfBounds, i, len(t.files))
	}
	return t.files[i], nil
}

// Len returns the number of segment files in the arena.
func (t *Table) Len() int { return len(t.files) }

// Close closes every segment file in the arena.
func (t *Table) Close() error {
	var firstErr error
	for _, sf := range t.files {
		if err := sf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// prefixFor returns the filename-extension prefix character for a
// segment-file-type family (§6): 'E' for EWF, 'L' for the logical-
// evidence family, 'd' for delta segment files.
func prefixFor(t config.SegmentFileType) (byte, error) {
	switch t {
	case config.SegmentFileTypeEWF:
		return 'E', nil
	case config.SegmentFileTypeLWF:
		return 'L', nil
	case config.SegmentFileTypeDWF:
		return 'd', nil
	default:
		return 0, fmt.Errorf("segment.prefixFor: %w: segment file type %d", ewferr.ErrUnsupportedFormat, t)
	}
}

// NextName computes the filename extension for segment number n (1-based)
// of the given family: ".<prefix><two digits>" for 1-99, then base-26
// letter pairs in the last two positions for 100+, incrementing the
// prefix character every 676 (26×26) segments once the letter pairs
// exhaust. The prefix walks uppercase then lowercase before giving up —
// the "past Z99 / zz99" hard error of §6.
func NextName(fileType config.SegmentFileType, n int) (string, error) {
	prefix, err := prefixFor(fileType)
	if err != nil {
		return "", err
	}
	if n < 1 {
		return "", fmt.Errorf("segment.NextName: %w: segment number %d", ewferr.ErrInvalidArgument, n)
	}
	if n <= 99 {
		return fmt.Sprintf(".%c%02d", prefix, n), nil
	}

	idx := n - 100
	prefixSteps := idx / 676
	letterIdx := idx % 676

	newPrefix, err := incrementPrefix(prefix, prefixSteps)
	if err != nil {
		return "", fmt.Errorf("segment.NextName: %w: exhausted past %c99/zz99", ewferr.ErrOutOfBounds, prefix)
	}

	first := byte('A') + byte(letterIdx/26)
	second := byte('A') + byte(letterIdx%26)
	return fmt.Sprintf(".%c%c%c", newPrefix, first, second), nil
}

func incrementPrefix(p byte, steps int) (byte, error) {
	for i := 0; i < steps; i++ {
		switch {
		case p >= 'A' && p < 'Z':
			p++
		case p == 'Z':
			p = 'a'
		case p >= 'a' && p < 'z':
			p++
		default:
			return 0, ewferr.ErrOutOfBounds
		}
	}
	return p, nil
}
