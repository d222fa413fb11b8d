package format

import (
	"bytes"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileInfoRoundTrip(t *testing.T) {
	t.Parallel()

	want := FileInfo{
		ID:           0x0102030405060708,
		Size:         15,
		Offset:       2048,
		LocationHash: LocationHash("/some/location"),
	}

	var buf bytes.Buffer
	n, err := want.Encode(&buf)
	require.NoError(t, err)
	assert.Equal(t, EntrySize, n)
	assert.Equal(t, EntrySize, buf.Len())

	got, err := DecodeFileInfo(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileInfoEncodingIsLittleEndian(t *testing.T) {
	t.Parallel()

	fi := FileInfo{ID: 1, Size: 2, Offset: 1024}
	var buf bytes.Buffer
	_, err := fi.Encode(&buf)
	require.NoError(t, err)

	raw := buf.Bytes()
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, raw[0:8])
	assert.Equal(t, []byte{2, 0, 0, 0}, raw[8:12])
	assert.Equal(t, []byte{0, 4, 0, 0}, raw[12:16])
	assert.Equal(t, make([]byte, 16), raw[16:32])
}

func TestDecodeFileInfoShort(t *testing.T) {
	t.Parallel()

	_, err := DecodeFileInfo(bytes.NewReader(make([]byte, EntrySize-1)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = DecodeFileInfo(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestLocationHash(t *testing.T) {
	t.Parallel()

	h1 := LocationHash("/1.bin")
	h2 := LocationHash("/2.bin")
	assert.Equal(t, "d0e14e5f5e76ec1a00e5fb02e4b47d9a", hex.EncodeToString(h1[:]))
	assert.Equal(t, "475e9b6e16f464efea93b8312b90ec02", hex.EncodeToString(h2[:]))
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, h1, LocationHash("/1.bin"))
}
