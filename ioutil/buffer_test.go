package ioutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugorji/go-catlog/errorutil"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer(8)
	require.Equal(t, 8, b.Cap())
	_, err := b.WriteString("ab")
	require.NoError(t, err)
	require.NoError(t, b.Pad(2))
	require.NoError(t, b.WriteByte('|'))
	_, err = b.Write([]byte("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "ab  |xyz", b.String())

	// full: every write fails and nothing is appended
	assert.ErrorIs(t, b.WriteByte('!'), errorutil.RecordTooLong)
	assert.ErrorIs(t, b.Pad(1), errorutil.RecordTooLong)
	_, err = b.WriteString("!")
	assert.ErrorIs(t, err, errorutil.RecordTooLong)
	assert.Equal(t, 8, b.Len())

	b.Reset()
	assert.Equal(t, 0, b.Len())
	_, err = b.WriteString("123456789")
	assert.ErrorIs(t, err, errorutil.RecordTooLong)
	assert.Equal(t, "", b.String())
}

func TestBufferDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultSize, NewBuffer(0).Cap())
	assert.Equal(t, DefaultSize, NewBuffer(-3).Cap())
}
