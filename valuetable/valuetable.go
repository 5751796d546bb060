// Package valuetable implements the value subsystem (§4.E): an
// insertion-ordered identifier→string store (ValueTable), the serialized
// string helper, header/hash value codecs, date
// conversion and the logical-evidence-file line reader. It is grounded on
// original_source/libewf/libewf_value_table.c, whose libfvalue_table_t this
// package generalizes into a single Go type instead of wrapping a generic
// C value-table library.
package valuetable

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dfirlabs/ewfcore/ewferr"
)

// Table is an insertion-ordered identifier → UTF-8 string store (§4.E.1).
// Every stored value is logically UTF-8; UTF-16LE views transcode on the
// fly rather than being kept as a second copy.
type Table struct {
	order  []string
	values map[string]string
}

// New returns an empty Table.
func New() *Table {
	return &Table{values: make(map[string]string)}
}

// Set stores value under identifier, appending identifier to the
// insertion order only the first time it is used. Overwriting an existing
// identifier does not move it.
func (t *Table) Set(identifier, value string) {
	if _, ok := t.values[identifier]; !ok {
		t.order = append(t.order, identifier)
	}
	t.values[identifier] = value
}

// Get returns the value stored under identifier and whether it is set.
func (t *Table) Get(identifier string) (string, bool) {
	v, ok := t.values[identifier]
	return v, ok
}

// Len returns the number of distinct identifiers stored.
func (t *Table) Len() int { return len(t.order) }

// IdentifierAt returns the i-th identifier in insertion order (§4.E.1).
func (t *Table) IdentifierAt(i int) (string, error) {
	if i < 0 || i >= len(t.order) {
		return "", fmt.Errorf("valuetable.IdentifierAt: %w: index %d, length %d", ewferr.ErrOutOfBounds, i, len(t.order))
	}
	return t.order[i], nil
}

// UTF8StringSize returns the size in bytes a UTF-8 copy of identifier's
// value would occupy, including the terminating NUL, mirroring
// libewf_value_table_get_utf8_value_size. ok is false if identifier is
// unset.
func (t *Table) UTF8StringSize(identifier string) (size int, ok bool) {
	v, present := t.values[identifier]
	if !present {
		return 0, false
	}
	return len(v) + 1, true
}

// UTF16LEStringSize mirrors UTF8StringSize for a UTF-16LE copy (code units,
// including the terminating NUL code unit).
func (t *Table) UTF16LEStringSize(identifier string) (size int, ok bool) {
	v, present := t.values[identifier]
	if !present {
		return 0, false
	}
	units, err := encodeUTF16LE(v)
	if err != nil {
		return 0, false
	}
	return len(units)/2 + 1, true
}

// UTF16LEValue returns identifier's value transcoded to UTF-16LE bytes
// (no BOM, no trailing NUL — callers that need the on-disk header2 framing
// use EncodeHeader2 instead).
func (t *Table) UTF16LEValue(identifier string) ([]byte, bool) {
	v, present := t.values[identifier]
	if !present {
		return nil, false
	}
	units, err := encodeUTF16LE(v)
	if err != nil {
		return nil, false
	}
	return units, true
}

// SetUTF16LEValue decodes UTF-16LE bytes (no BOM) into a UTF-8 string and
// stores it under identifier.
func (t *Table) SetUTF16LEValue(identifier string, utf16le []byte) error {
	s, err := decodeUTF16LE(utf16le)
	if err != nil {
		return fmt.Errorf("valuetable.SetUTF16LEValue: %w: %v", ewferr.ErrCorruptData, err)
	}
	t.Set(identifier, s)
	return nil
}

func encodeUTF16LE(s string) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, _, err := transform.Bytes(enc, []byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeUTF16LE(b []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
