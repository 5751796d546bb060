package handle

import (
	"fmt"

	"github.com/dfirlabs/ewfcore/config"
	"github.com/dfirlabs/ewfcore/ewferr"
	"github.com/dfirlabs/ewfcore/segment"
	"github.com/dfirlabs/ewfcore/valuetable"
)

// Plain getters: media geometry, format and identity (§6).
func (h *Handle) GetSectorsPerChunk() uint32                    { return h.sectorsPerChunk }
func (h *Handle) GetBytesPerSector() uint32                     { return h.bytesPerSector }
func (h *Handle) GetChunkSize() uint32                          { return h.chunkSize }
func (h *Handle) GetErrorGranularity() uint32                   { return h.errorGranularity }
func (h *Handle) GetCompressionValues() config.CompressionLevel { return h.compression }
func (h *Handle) GetMediaSize() uint64                          { return h.mediaSize }
func (h *Handle) GetMediaType() config.MediaType                { return h.mediaType }
func (h *Handle) GetMediaFlags() config.MediaFlags              { return h.mediaFlags }
func (h *Handle) GetFormat() config.Format                      { return h.format }
func (h *Handle) GetGUID() [16]byte                             { return h.guid }
func (h *Handle) GetHeaderCodepage() config.Codepage            { return h.headerCodepage }
func (h *Handle) GetWriteAmountOfChunks() int                   { return h.writeAmountOfChunks }

// GetAmountOfSectors derives the sector count from media size and sector
// size rather than storing it separately, since the two must always agree.
func (h *Handle) GetAmountOfSectors() uint64 {
	if h.bytesPerSector == 0 {
		return 0
	}
	return h.mediaSize / uint64(h.bytesPerSector)
}

// GetVolumeType reports whether the image is of a logical evidence file
// (MediaTypeLogical) or a physical/optical/removable device.
func (h *Handle) GetVolumeType() config.MediaType { return h.mediaType }

// Setters are rejected once the handle has been committed (§6 write-handle
// invariant). Open commits every handle it returns; nothing commits a
// handle created by New.
func (h *Handle) guardWritable() error {
	if h.committed {
		return fmt.Errorf("handle: %w: media/format values are immutable after commit", ewferr.ErrValueAlreadySet)
	}
	return nil
}

func (h *Handle) SetSectorsPerChunk(v uint32) error {
	if err := h.guardWritable(); err != nil {
		return err
	}
	h.sectorsPerChunk = v
	h.chunkSize = v * h.bytesPerSector
	return nil
}

func (h *Handle) SetBytesPerSector(v uint32) error {
	if err := h.guardWritable(); err != nil {
		return err
	}
	h.bytesPerSector = v
	h.chunkSize = h.sectorsPerChunk * v
	return nil
}

func (h *Handle) SetMediaSize(v uint64) error {
	if err := h.guardWritable(); err != nil {
		return err
	}
	h.mediaSize = v
	return nil
}

func (h *Handle) SetMediaType(v config.MediaType) error {
	if err := h.guardWritable(); err != nil {
		return err
	}
	h.mediaType = v
	return nil
}

func (h *Handle) SetMediaFlags(v config.MediaFlags) error {
	if err := h.guardWritable(); err != nil {
		return err
	}
	h.mediaFlags = v
	return nil
}

func (h *Handle) SetFormat(v config.Format) error {
	if err := h.guardWritable(); err != nil {
		return err
	}
	h.format = v
	return nil
}

func (h *Handle) SetGUID(v [16]byte) error {
	if err := h.guardWritable(); err != nil {
		return err
	}
	h.guid = v
	return nil
}

func (h *Handle) SetCompressionValues(v config.CompressionLevel) error {
	if err := h.guardWritable(); err != nil {
		return err
	}
	h.compression = v
	return nil
}

// GetMD5Hash returns the stored MD5 hash value, if any.
func (h *Handle) GetMD5Hash() (string, bool) { return h.hashValues.Get("md5") }

// GetSegmentFilename and GetDeltaSegmentFilename compute the n-th segment
// or delta-segment file's name extension (§6), by delegating to
// segment.NextName with the EWF and delta (DWF) families respectively.
func (h *Handle) GetSegmentFilename(n int) (string, error) {
	return segment.NextName(config.SegmentFileTypeEWF, n)
}

func (h *Handle) GetDeltaSegmentFilename(n int) (string, error) {
	return segment.NextName(config.SegmentFileTypeDWF, n)
}

// Acquisition/CRC error runs and sessions.
func (h *Handle) GetAmountOfAcquiryErrors() int { return len(h.acquiryErrors) }
func (h *Handle) GetAmountOfCrcErrors() int     { return len(h.crcErrors) }
func (h *Handle) GetAmountOfSessions() int      { return len(h.sessions) }

func (h *Handle) GetAcquiryError(index int) (ErrorEntry, error) {
	return getEntry(h.acquiryErrors, index, "GetAcquiryError")
}

func (h *Handle) GetCrcError(index int) (ErrorEntry, error) {
	return getEntry(h.crcErrors, index, "GetCrcError")
}

func (h *Handle) GetSession(index int) (SessionEntry, error) {
	if index < 0 || index >= len(h.sessions) {
		return SessionEntry{}, fmt.Errorf("handle.GetSession: %w: index %d, length %d", ewferr.ErrOutOfBounds, index, len(h.sessions))
	}
	return h.sessions[index], nil
}

func getEntry(entries []ErrorEntry, index int, caller string) (ErrorEntry, error) {
	if index < 0 || index >= len(entries) {
		return ErrorEntry{}, fmt.Errorf("handle.%s: %w: index %d, length %d", caller, ewferr.ErrOutOfBounds, index, len(entries))
	}
	return entries[index], nil
}

func (h *Handle) AddAcquiryError(firstSector, amountOfSectors uint64) {
	h.acquiryErrors = append(h.acquiryErrors, ErrorEntry{FirstSector: firstSector, AmountOfSectors: amountOfSectors})
}

func (h *Handle) AddCrcError(firstSector, amountOfSectors uint64) {
	h.crcErrors = append(h.crcErrors, ErrorEntry{FirstSector: firstSector, AmountOfSectors: amountOfSectors})
}

func (h *Handle) AddSession(firstSector, amountOfSectors uint64) {
	h.sessions = append(h.sessions, SessionEntry{FirstSector: firstSector, AmountOfSectors: amountOfSectors})
}

// Header/hash value table access (§6).
func (h *Handle) GetAmountOfHeaderValues() int { return h.headerValues.Len() }
func (h *Handle) GetAmountOfHashValues() int   { return h.hashValues.Len() }

func (h *Handle) GetHeaderValueIdentifier(index int) (string, error) {
	return h.headerValues.IdentifierAt(index)
}

func (h *Handle) GetHashValueIdentifier(index int) (string, error) {
	return h.hashValues.IdentifierAt(index)
}

func (h *Handle) GetHeaderValue(identifier string) (string, bool) { return h.headerValues.Get(identifier) }
func (h *Handle) GetHashValue(identifier string) (string, bool)   { return h.hashValues.Get(identifier) }

func (h *Handle) SetHeaderValue(identifier, value string) { h.headerValues.Set(identifier, value) }
func (h *Handle) SetHashValue(identifier, value string)   { h.hashValues.Set(identifier, value) }

// ParseHeaderValues decodes the raw header/header2 text ingested at Open
// time into the header value table, using dateFormat to canonicalize the
// acquiry_date/system_date fields (§6 parse_header_values).
func (h *Handle) ParseHeaderValues(dateFormat config.DateFormat) error {
	if !h.haveHeader {
		return fmt.Errorf("handle.ParseHeaderValues: %w: no header section ingested", ewferr.ErrInvalidArgument)
	}
	table, err := valuetable.ParseHeader(h.rawHeaderText, h.rawHeaderFormat, dateFormat)
	if err != nil {
		return fmt.Errorf("handle.ParseHeaderValues: %w", err)
	}
	h.headerValues = table
	return nil
}

// CopyHeaderValues and CopyMediaValues copy the respective fields from src
// into dst, for forking a write handle from an already-open read handle
// (§6 copy_header_values / copy_media_values).
func CopyHeaderValues(dst, src *Handle) {
	for i := 0; i < src.headerValues.Len(); i++ {
		id, err := src.headerValues.IdentifierAt(i)
		if err != nil {
			continue
		}
		v, _ := src.headerValues.Get(id)
		dst.headerValues.Set(id, v)
	}
	dst.headerCodepage = src.headerCodepage
}

func CopyMediaValues(dst, src *Handle) {
	dst.mediaSize = src.mediaSize
	dst.mediaType = src.mediaType
	dst.mediaFlags = src.mediaFlags
	dst.bytesPerSector = src.bytesPerSector
	dst.sectorsPerChunk = src.sectorsPerChunk
	dst.chunkSize = src.chunkSize
	dst.errorGranularity = src.errorGranularity
	dst.compression = src.compression
	dst.guid = src.guid
	dst.format = src.format
}
