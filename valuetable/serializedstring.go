package valuetable

import (
	"fmt"
	"strings"

	"github.com/dfirlabs/ewfcore/ewferr"
)

// SerializedString is a byte buffer that is logically a UTF-8 string
// (§4.E.2), grounded on original_source/libewf/libewf_serialized_string.c.
// The bytes are stored without a terminating NUL. The zero value is the
// empty, unset string.
type SerializedString struct {
	data []byte
}

// IsSet reports whether the string carries any data.
func (s *SerializedString) IsSet() bool { return len(s.data) > 0 }

// String returns the UTF-8 contents.
func (s *SerializedString) String() string { return string(s.data) }

// Read copies bytes into the string, dropping at most one trailing NUL
// before storing.
func (s *SerializedString) Read(data []byte) {
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	s.data = append([]byte(nil), data...)
}

// ReadHex decodes data as an ASCII hex string, normalizing to lower case.
// Only '0'-'9', 'A'-'F', 'a'-'f' are accepted. If every input byte is the
// ASCII digit '0', the result is unset: §4.E.2's "all zero means unset"
// rule.
func (s *SerializedString) ReadHex(data []byte) error {
	allZero := true
	out := make([]byte, len(data))
	for i, b := range data {
		switch {
		case b >= '0' && b <= '9':
			out[i] = b
			if b != '0' {
				allZero = false
			}
		case b >= 'A' && b <= 'F':
			out[i] = b - 'A' + 'a'
			allZero = false
		case b >= 'a' && b <= 'f':
			out[i] = b
			allZero = false
		default:
			return fmt.Errorf("valuetable.ReadHex: %w: byte 0x%02x at offset %d", ewferr.ErrCorruptData, b, i)
		}
	}
	if allZero {
		s.data = nil
		return nil
	}
	s.data = out
	return nil
}

// ReadByteStreamHex encodes raw bytes as a lower-case hex string (two hex
// digits per byte) and stores that as the string's contents, used for MD5/SHA1 legacy
// 16/20-byte binary sections: the on-disk bytes become a lower-case hex
// SerializedString.
func (s *SerializedString) ReadByteStreamHex(raw []byte) {
	var sb strings.Builder
	sb.Grow(len(raw) * 2)
	const hexDigits = "0123456789abcdef"
	for _, b := range raw {
		sb.WriteByte(hexDigits[b>>4])
		sb.WriteByte(hexDigits[b&0x0f])
	}
	s.data = []byte(sb.String())
}

// UTF16LE returns the string transcoded to UTF-16LE bytes.
func (s *SerializedString) UTF16LE() ([]byte, error) {
	out, err := encodeUTF16LE(string(s.data))
	if err != nil {
		return nil, fmt.Errorf("valuetable.SerializedString.UTF16LE: %w", err)
	}
	return out, nil
}
