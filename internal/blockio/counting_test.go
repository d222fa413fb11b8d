package blockio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}

	_, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("de"))
	require.NoError(t, err)

	assert.Equal(t, uint64(5), cw.N)
	assert.Equal(t, "abcde", buf.String())
}

func TestCountingWriterOverflow(t *testing.T) {
	cw := &CountingWriter{W: &bytes.Buffer{}, N: ^uint64(0) - 1}
	_, err := cw.Write([]byte("ab"))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestPadTo(t *testing.T) {
	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}
	_, err := cw.Write([]byte("hdr"))
	require.NoError(t, err)

	require.NoError(t, cw.PadTo(1024+7))
	assert.Equal(t, uint64(1031), cw.N)
	assert.Equal(t, 1031, buf.Len())
	assert.Equal(t, make([]byte, 1028), buf.Bytes()[3:])

	// Already there.
	require.NoError(t, cw.PadTo(1031))
	assert.Equal(t, 1031, buf.Len())

	assert.Error(t, cw.PadTo(10))
}
