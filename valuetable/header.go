package valuetable

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/dfirlabs/ewfcore/config"
	"github.com/dfirlabs/ewfcore/ewferr"
)

// HeaderFormat is one of the seven textual header encodings (§4.E.3), grounded
// on original_source/libewf/libewf_header_values.c's
// libewf_header_values_generate_header_string_type1..type7 — which this
// package collapses into a single table-driven generator/parser pair
// instead of seven near-duplicate functions (Design Note, §9).
type HeaderFormat int

const (
	HeaderFormatUnknown HeaderFormat = iota
	HeaderFormatEWF                  // 1: EWF, EnCase 1
	HeaderFormatEnCase2               // 2: EnCase 2/3, FTK
	HeaderFormatEnCase4               // 3: EnCase 4/5, EWFX
	HeaderFormatEnCase4Header2        // 4: EnCase 4 header2 (UTF-16LE)
	HeaderFormatEnCase5Header2        // 5: EnCase 5 header2 (UTF-16LE)
	HeaderFormatEnCase6Header2        // 6: EnCase 6 header2 (UTF-16LE)
	HeaderFormatEnCase5Linen          // 7: EnCase 5 linen
)

type headerFormatSpec struct {
	version string
	fields  []string
	utf16   bool
}

var headerFormatSpecs = map[HeaderFormat]headerFormatSpec{
	HeaderFormatEWF:            {version: "1", fields: strings.Fields("c n a e t m u p r")},
	HeaderFormatEnCase2:        {version: "1", fields: strings.Fields("c n a e t av ov m u p r")},
	HeaderFormatEnCase4:        {version: "1", fields: strings.Fields("c n a e t av ov m u p")},
	HeaderFormatEnCase4Header2: {version: "1", fields: strings.Fields("a c n e t av ov m u p"), utf16: true},
	HeaderFormatEnCase5Header2: {version: "3", fields: strings.Fields("a c n e t av ov m u p dc"), utf16: true},
	HeaderFormatEnCase6Header2: {version: "3", fields: strings.Fields("a c n e t md sn av ov m u p dc"), utf16: true},
	HeaderFormatEnCase5Linen:   {version: "3", fields: strings.Fields("a c n e t av ov m u p")},
}

// fieldIdentifiers maps a header field code to its well-known ValueTable
// identifier (§4.E.3).
var fieldIdentifiers = map[string]string{
	"c":  "case_number",
	"n":  "evidence_number",
	"a":  "description",
	"e":  "examiner_name",
	"t":  "notes",
	"m":  "acquiry_date",
	"u":  "system_date",
	"p":  "password",
	"r":  "compression_type",
	"av": "acquiry_software_version",
	"ov": "acquiry_operating_system",
	"md": "model",
	"sn": "serial_number",
	"dc": "unknown_dc",
}

var dateIdentifiers = map[string]bool{"acquiry_date": true, "system_date": true}

func compressionTypeCode(level config.CompressionLevel) (string, error) {
	switch level {
	case config.CompressionNone:
		return "n", nil
	case config.CompressionFast, config.CompressionDefault:
		return "f", nil
	case config.CompressionBest:
		return "b", nil
	default:
		return "", fmt.Errorf("valuetable.compressionTypeCode: %w: level %d", ewferr.ErrUnsupportedFormat, level)
	}
}

func splitLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	return strings.Split(data, "\n")
}

// ParseHeader parses a raw header/header2 text block (already decompressed
// and, for header2, already transcoded from UTF-16LE) into a Table, using
// dateFormat to render the m/u fields' canonical date strings.
func ParseHeader(text string, format HeaderFormat, dateFormat config.DateFormat) (*Table, error) {
	if _, ok := headerFormatSpecs[format]; !ok {
		return nil, fmt.Errorf("valuetable.ParseHeader: %w: format %d", ewferr.ErrUnsupportedFormat, format)
	}

	lines := splitLines(text)
	if len(lines) < 4 {
		return nil, fmt.Errorf("valuetable.ParseHeader: %w: expected at least 4 lines, got %d", ewferr.ErrCorruptData, len(lines))
	}

	codes := strings.Split(lines[2], "\t")
	values := strings.Split(lines[3], "\t")

	table := New()

	n := len(codes)
	if len(values) < n {
		n = len(values)
	}
	for i := 0; i < n; i++ {
		code := strings.TrimSpace(codes[i])
		value := values[i]
		if code == "" && value == "" {
			continue
		}

		identifier, known := fieldIdentifiers[code]
		if !known {
			if value != "" {
				return nil, fmt.Errorf("valuetable.ParseHeader: %w: unrecognized field code %q", ewferr.ErrUnsupportedFormat, code)
			}
			continue
		}

		if dateIdentifiers[identifier] && value != "" {
			t, err := ParseHeaderDate(value)
			if err != nil {
				return nil, fmt.Errorf("valuetable.ParseHeader: %w", err)
			}
			canonical, err := Format(t, dateFormat)
			if err != nil {
				return nil, fmt.Errorf("valuetable.ParseHeader: %w", err)
			}
			table.Set(identifier, canonical)
			continue
		}

		table.Set(identifier, value)
	}

	return table, nil
}

// GenerateHeader emits the tab-separated text block for format from
// values, auto-populating acquiry_date/system_date (from timestamp) and
// compression_type (from level) when absent, per §4.E.3's Generate rule.
// dateFormat must match the one ParseHeader used to canonicalize any
// already-present date fields, so they can be re-derived into the
// on-disk native encoding (old-form or decimal timestamp) instead of
// being echoed back in canonical form — the step that makes
// parse-then-generate round-trip (§8).
func GenerateHeader(values *Table, format HeaderFormat, timestamp time.Time, level config.CompressionLevel, dateFormat config.DateFormat) (string, error) {
	spec, ok := headerFormatSpecs[format]
	if !ok {
		return "", fmt.Errorf("valuetable.GenerateHeader: %w: format %d", ewferr.ErrUnsupportedFormat, format)
	}

	codes := make([]string, len(spec.fields))
	cells := make([]string, len(spec.fields))

	nativeDate := func(t time.Time) string {
		if spec.utf16 {
			return FormatUnix(t)
		}
		return FormatOld(t)
	}

	for i, code := range spec.fields {
		codes[i] = code
		identifier, known := fieldIdentifiers[code]
		if !known {
			continue
		}

		if dateIdentifiers[identifier] {
			if v, present := values.Get(identifier); present && v != "" {
				t, err := ParseFormatted(v, dateFormat)
				if err != nil {
					return "", fmt.Errorf("valuetable.GenerateHeader: %w", err)
				}
				cells[i] = nativeDate(t)
			} else {
				cells[i] = nativeDate(timestamp)
			}
			continue
		}

		if v, present := values.Get(identifier); present {
			cells[i] = v
			continue
		}

		if identifier == "compression_type" {
			code, err := compressionTypeCode(level)
			if err != nil {
				return "", fmt.Errorf("valuetable.GenerateHeader: %w", err)
			}
			cells[i] = code
		}
	}

	var sb strings.Builder
	sb.WriteString(spec.version)
	sb.WriteString("\nmain\n")
	sb.WriteString(strings.Join(codes, "\t"))
	sb.WriteString("\n")
	sb.WriteString(strings.Join(cells, "\t"))
	sb.WriteString("\n\n")
	return sb.String(), nil
}

// codepageEncodings maps a header codepage (§6) to its narrow-string
// charmap codec. ASCII header text needs no transcoding.
var codepageEncodings = map[config.Codepage]encoding.Encoding{
	config.CodepageWindows1250: charmap.Windows1250,
	config.CodepageWindows1251: charmap.Windows1251,
	config.CodepageWindows1252: charmap.Windows1252,
	config.CodepageWindows1253: charmap.Windows1253,
	config.CodepageWindows1254: charmap.Windows1254,
	config.CodepageWindows1256: charmap.Windows1256,
	config.CodepageWindows1257: charmap.Windows1257,
}

// DecodeNarrow transcodes a non-header2 header/hash section's raw bytes
// (encoded in the given header codepage) to a UTF-8 Go string, for handing
// to ParseHeader.
func DecodeNarrow(data []byte, cp config.Codepage) (string, error) {
	enc, ok := codepageEncodings[cp]
	if !ok {
		return string(data), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("valuetable.DecodeNarrow: %w: %v", ewferr.ErrCorruptData, err)
	}
	return string(out), nil
}

// EncodeNarrow transcodes GenerateHeader's UTF-8 output back to the raw
// bytes of the given header codepage, for writing to a non-header2 section.
func EncodeNarrow(text string, cp config.Codepage) ([]byte, error) {
	enc, ok := codepageEncodings[cp]
	if !ok {
		return []byte(text), nil
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("valuetable.EncodeNarrow: %w: %v", ewferr.ErrCorruptData, err)
	}
	return out, nil
}

// header2BOM is the 2-byte little-endian BOM prefixing every header2
// section on disk (§4.E.3 "header2 UTF-16LE").
var header2BOM = []byte{0xFF, 0xFE}

// EncodeHeader2 transcodes narrow header text to the on-disk header2 form:
// UTF-16LE with a leading BOM.
func EncodeHeader2(text string) ([]byte, error) {
	units, err := encodeUTF16LE(text)
	if err != nil {
		return nil, fmt.Errorf("valuetable.EncodeHeader2: %w", err)
	}
	out := make([]byte, 0, len(header2BOM)+len(units))
	out = append(out, header2BOM...)
	out = append(out, units...)
	return out, nil
}

// DecodeHeader2 strips the BOM (if present) and transcodes UTF-16LE bytes
// back to narrow header text.
func DecodeHeader2(data []byte) (string, error) {
	if len(data) >= 2 && data[0] == header2BOM[0] && data[1] == header2BOM[1] {
		data = data[2:]
	}
	s, err := decodeUTF16LE(data)
	if err != nil {
		return "", fmt.Errorf("valuetable.DecodeHeader2: %w: %v", ewferr.ErrCorruptData, err)
	}
	return s, nil
}
