package valuetable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyXHashRoundTrip(t *testing.T) {
	input := []byte("\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<xhash>\n\t<md5>d41d8cd98f00b204e9800998ecf8427e</md5>\n</xhash>\n\n")

	values, err := ParseXHash(input)
	require.NoError(t, err)

	md5, ok := values.Get("md5")
	require.True(t, ok)
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", md5)

	out := GenerateXHash(values)
	require.Equal(t, input, out)
}

func TestXHashSkipsMalformedLine(t *testing.T) {
	input := []byte("\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<xhash>\n\t<md5>d41d8cd98f00b204e9800998ecf8427e</md5>\n\tnot a tag at all\n\t<sha1>mismatch</md5>\n</xhash>\n\n")

	values, err := ParseXHash(input)
	require.NoError(t, err)

	md5, ok := values.Get("md5")
	require.True(t, ok)
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", md5)

	_, ok = values.Get("sha1")
	require.False(t, ok)
}

func TestMD5BinaryParse(t *testing.T) {
	raw := []byte{0xd4, 0x1d, 0x8c, 0xd9, 0x8f, 0x00, 0xb2, 0x04, 0xe9, 0x80, 0x09, 0x98, 0xec, 0xf8, 0x42, 0x7e}

	values := NewHashValues()
	require.NoError(t, ParseMD5Binary(values, raw))

	md5, ok := values.Get("md5")
	require.True(t, ok)
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", md5)
}

func TestMD5BinaryRoundTrip(t *testing.T) {
	values := NewHashValues()
	values.Set("md5", "d41d8cd98f00b204e9800998ecf8427e")

	raw, err := GenerateMD5Binary(values)
	require.NoError(t, err)
	require.Len(t, raw, 16)

	values2 := NewHashValues()
	require.NoError(t, ParseMD5Binary(values2, raw))

	md5, _ := values2.Get("md5")
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", md5)
}

func TestGenerateMD5BinaryRejectsUnset(t *testing.T) {
	values := NewHashValues()
	_, err := GenerateMD5Binary(values)
	require.Error(t, err)
}
