package valuetable

import (
	"fmt"
	"strconv"

	"github.com/dfirlabs/ewfcore/ewferr"
)

// DataType selects the tab-delimiter width a Reader scans for: a single
// 0x09 byte for narrow (UTF-8/ASCII) lines, or a 0x09 0x00 code unit for
// UTF-16LE lines (§3 ValueReader, original_source/libewf_value_reader.c's
// value_reader->data_type branch in libewf_value_reader_read_data).
type DataType int

const (
	// DataTypeNarrow scans for a single '\t' byte, for lines built of
	// UTF-8/ASCII fields (integers, hex digests, narrow strings).
	DataTypeNarrow DataType = iota
	// DataTypeUTF16LE scans two bytes at a time for the '\t' 0x00 code
	// unit, for lines built of UTF-16LE fields.
	DataTypeUTF16LE
)

// Reader is a single-pass, tab-delimited cursor over one logical-evidence-
// file entry line (§4.E.6), grounded on
// original_source/libewf/libewf_value_reader.c. The caller issues exactly
// one Read* call per expected field; Done reports whether every field was
// consumed and the whole buffer was read. A Reader's dataType is fixed for
// the whole line, matching the original: a line is entirely narrow or
// entirely UTF-16LE, never mixed field-by-field.
type Reader struct {
	buf           []byte
	offset        int
	valueIndex    int
	numberOfTypes int
	dataType      DataType
}

// NewReader wraps buf, which holds numberOfTypes fields delimited by a
// single '\t' byte.
func NewReader(buf []byte, numberOfTypes int) *Reader {
	return &Reader{buf: buf, numberOfTypes: numberOfTypes, dataType: DataTypeNarrow}
}

// NewUTF16Reader wraps buf, which holds numberOfTypes UTF-16LE fields
// delimited by a '\t' 0x00 code unit.
func NewUTF16Reader(buf []byte, numberOfTypes int) *Reader {
	return &Reader{buf: buf, numberOfTypes: numberOfTypes, dataType: DataTypeUTF16LE}
}

// Done reports whether the reader consumed exactly numberOfTypes fields
// and the entire buffer.
func (r *Reader) Done() bool {
	return r.valueIndex == r.numberOfTypes && r.offset == len(r.buf)
}

// ReadData advances to the next tab-delimited field and returns its raw
// bytes (without the delimiter). The delimiter scanned for depends on the
// Reader's DataType: a single '\t' byte for DataTypeNarrow, or a '\t' 0x00
// code unit (stepping two bytes at a time) for DataTypeUTF16LE.
func (r *Reader) ReadData() ([]byte, error) {
	if r.valueIndex >= r.numberOfTypes {
		return nil, fmt.Errorf("valuetable.Reader.ReadData: %w: all %d fields already read", ewferr.ErrOutOfBounds, r.numberOfTypes)
	}
	if r.offset > len(r.buf) {
		return nil, fmt.Errorf("valuetable.Reader.ReadData: %w: cursor past end of buffer", ewferr.ErrOutOfBounds)
	}

	rest := r.buf[r.offset:]
	end := len(rest)
	skip := 0

	switch r.dataType {
	case DataTypeUTF16LE:
		for i := 0; i+1 < len(rest); i += 2 {
			if rest[i] == '\t' && rest[i+1] == 0 {
				end = i
				skip = 2
				break
			}
		}
	default:
		for i, b := range rest {
			if b == '\t' {
				end = i
				skip = 1
				break
			}
		}
	}

	field := rest[:end]
	r.offset += end + skip
	r.valueIndex++

	return field, nil
}

// ReadIntegerSigned parses the next field as a decimal signed integer,
// accepting a leading '+' or '-'.
func (r *Reader) ReadIntegerSigned() (int64, error) {
	field, err := r.ReadData()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(field), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("valuetable.Reader.ReadIntegerSigned: %w: %v", ewferr.ErrCorruptData, err)
	}
	return n, nil
}

// ReadIntegerUnsigned parses the next field as a decimal unsigned integer.
func (r *Reader) ReadIntegerUnsigned() (uint64, error) {
	field, err := r.ReadData()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(string(field), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("valuetable.Reader.ReadIntegerUnsigned: %w: %v", ewferr.ErrCorruptData, err)
	}
	return n, nil
}

// ReadByteStreamBase16 decodes the next field (a run of hex digits) into
// raw bytes.
func (r *Reader) ReadByteStreamBase16() ([]byte, error) {
	field, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	if len(field)%2 != 0 {
		return nil, fmt.Errorf("valuetable.Reader.ReadByteStreamBase16: %w: odd hex digit count %d", ewferr.ErrCorruptData, len(field))
	}
	out := make([]byte, len(field)/2)
	for i := range out {
		hi, err := hexNibble(lowerHex(field[i*2]))
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(lowerHex(field[i*2+1]))
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func lowerHex(b byte) byte {
	if b >= 'A' && b <= 'F' {
		return b - 'A' + 'a'
	}
	return b
}

// ReadSerializedString reads the next field as a UTF-8 serialized string.
func (r *Reader) ReadSerializedString() (*SerializedString, error) {
	field, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	s := &SerializedString{}
	s.Read(field)
	return s, nil
}

// ReadSerializedStringBase16 reads the next field as a hex-encoded
// serialized string (§4.E.2's ReadHex rule, including the all-zero-means-
// unset case).
func (r *Reader) ReadSerializedStringBase16() (*SerializedString, error) {
	field, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	s := &SerializedString{}
	if err := s.ReadHex(field); err != nil {
		return nil, fmt.Errorf("valuetable.Reader.ReadSerializedStringBase16: %w", err)
	}
	return s, nil
}

// ReadUTF8String reads the next field as UTF-16LE bytes and returns it
// transcoded to a UTF-8 string. The reader must have been built with
// NewUTF16Reader when the line holds more than one field, so ReadData
// finds the '\t' 0x00 delimiter instead of stopping on a raw 0x09 byte
// inside a code unit.
func (r *Reader) ReadUTF8String() (string, error) {
	field, err := r.ReadData()
	if err != nil {
		return "", err
	}
	s, err := decodeUTF16LE(field)
	if err != nil {
		return "", fmt.Errorf("valuetable.Reader.ReadUTF8String: %w: %v", ewferr.ErrCorruptData, err)
	}
	return s, nil
}
