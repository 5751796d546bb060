package valuetable

import (
	"fmt"

	"github.com/dfirlabs/ewfcore/ewferr"
)

// hashXMLBOM is the UTF-8 BOM every xhash/xheader document on disk is
// prefixed with (§4.E.3, end-to-end scenario 1).
var hashXMLBOM = []byte{0xef, 0xbb, 0xbf}

// NewHashValues returns a Table pre-initialized with the well-known MD5
// identifier unset, mirroring libewf_hash_values_initialize (§4.E.5).
func NewHashValues() *Table {
	t := New()
	t.Set("md5", "")
	return t
}

// ParseXHash parses an xhash XML document (tag set {md5, sha1}) into a
// hash-values Table.
func ParseXHash(doc []byte) (*Table, error) {
	return parseXMLValues(doc, "xhash")
}

// GenerateXHash renders a hash-values Table as an xhash XML document,
// including the leading UTF-8 BOM (§4.E.3).
func GenerateXHash(values *Table) []byte {
	return generateXMLValues(values, "xhash", []string{"md5", "sha1"})
}

// ParseXHeader parses an xheader XML document into a header-values Table.
// Dates use the ctime form with a trailing timezone abbreviation, per
// §4.E.3; they are stored as the element's raw text, trailing timezone
// abbreviation included, since Table values are logically plain strings.
func ParseXHeader(doc []byte) (*Table, error) {
	return parseXMLValues(doc, "xheader")
}

// GenerateXHeader renders a header-values Table as an xheader XML
// document over the given identifiers, in the order given.
func GenerateXHeader(values *Table, identifiers []string) []byte {
	return generateXMLValues(values, "xheader", identifiers)
}

func parseXMLValues(doc []byte, rootTag string) (*Table, error) {
	pairs := parseLenientXML(string(doc), rootTag)
	t := New()
	for _, p := range pairs {
		t.Set(p.Tag, p.Value)
	}
	return t, nil
}

func generateXMLValues(values *Table, rootTag string, identifiers []string) []byte {
	pairs := make([]struct{ Tag, Value string }, 0, len(identifiers))
	for _, id := range identifiers {
		if v, ok := values.Get(id); ok {
			pairs = append(pairs, struct{ Tag, Value string }{Tag: id, Value: v})
		}
	}
	body := generateLenientXML(rootTag, pairs)
	out := make([]byte, 0, len(hashXMLBOM)+len(body))
	out = append(out, hashXMLBOM...)
	out = append(out, body...)
	return out
}

// ParseMD5Binary decodes a 16-byte legacy MD5 field into the hash-values
// Table's "md5" identifier, stored as 32-character lower-case hex
// (§4.E.5, end-to-end scenario 2).
func ParseMD5Binary(values *Table, raw []byte) error {
	return parseLegacyBinary(values, "md5", raw, 16)
}

// ParseSHA1Binary decodes a 20-byte legacy SHA1 field into the "sha1"
// identifier.
func ParseSHA1Binary(values *Table, raw []byte) error {
	return parseLegacyBinary(values, "sha1", raw, 20)
}

func parseLegacyBinary(values *Table, identifier string, raw []byte, size int) error {
	if len(raw) != size {
		return fmt.Errorf("valuetable.parseLegacyBinary: %w: expected %d bytes for %s, got %d", ewferr.ErrOutOfBounds, size, identifier, len(raw))
	}
	var s SerializedString
	s.ReadByteStreamHex(raw)
	values.Set(identifier, s.String())
	return nil
}

// GenerateMD5Binary encodes the "md5" identifier's lower-case hex string
// back into 16 raw bytes, for the legacy binary digest section.
func GenerateMD5Binary(values *Table) ([]byte, error) {
	return generateLegacyBinary(values, "md5", 16)
}

// GenerateSHA1Binary encodes the "sha1" identifier back into 20 raw bytes.
func GenerateSHA1Binary(values *Table) ([]byte, error) {
	return generateLegacyBinary(values, "sha1", 20)
}

func generateLegacyBinary(values *Table, identifier string, size int) ([]byte, error) {
	v, ok := values.Get(identifier)
	if !ok || v == "" {
		return nil, fmt.Errorf("valuetable.generateLegacyBinary: %w: %s is unset", ewferr.ErrInvalidArgument, identifier)
	}
	if len(v) != size*2 {
		return nil, fmt.Errorf("valuetable.generateLegacyBinary: %w: %s has length %d, want %d", ewferr.ErrCorruptData, identifier, len(v), size*2)
	}
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		hi, err := hexNibble(v[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(v[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("valuetable.hexNibble: %w: byte 0x%02x", ewferr.ErrCorruptData, c)
	}
}
