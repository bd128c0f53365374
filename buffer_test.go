package chardev

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundedBufferRejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewBoundedBuffer(0)
	assert.Error(t, err)

	_, err = NewBoundedBuffer(-1)
	assert.Error(t, err)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	buf, err := NewBoundedBuffer(64)
	require.NoError(t, err)

	payload := []byte("round trip payload")
	accepted, cur, err := buf.WriteAt(Cursor{}, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), accepted)
	assert.Equal(t, uint64(len(payload)), cur.Position)

	data, cur, err := buf.ReadAt(Cursor{}, len(payload))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, data))
	assert.Equal(t, uint64(len(payload)), cur.Position)
}

func TestReadClampsToCapacity(t *testing.T) {
	buf, err := NewBoundedBuffer(DefaultCapacity)
	require.NoError(t, err)

	accepted, cur, err := buf.WriteAt(Cursor{}, []byte("HELLOWORLD"))
	require.NoError(t, err)
	assert.Equal(t, 10, accepted)
	assert.Equal(t, uint64(10), cur.Position)

	data, cur, err := buf.ReadAt(Cursor{}, 20)
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLOWORLD"), data)
	assert.Equal(t, uint64(10), cur.Position)

	// End-of-data is a zero-length success, not an error.
	data, cur, err = buf.ReadAt(Cursor{Position: DefaultCapacity}, 20)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, uint64(DefaultCapacity), cur.Position)
}

func TestWriteTruncatesPastCapacity(t *testing.T) {
	buf, err := NewBoundedBuffer(DefaultCapacity)
	require.NoError(t, err)

	big := bytes.Repeat([]byte{0xA5}, 2000)
	accepted, cur, err := buf.WriteAt(Cursor{}, big)
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, accepted)
	assert.Equal(t, uint64(DefaultCapacity), cur.Position)

	// A further write at capacity accepts nothing.
	accepted, cur, err = buf.WriteAt(cur, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, uint64(DefaultCapacity), cur.Position)
}

func TestSequentialReadsNeverRereadOrOverrun(t *testing.T) {
	const capacity = 100
	buf, err := NewBoundedBuffer(capacity)
	require.NoError(t, err)

	pattern := make([]byte, capacity)
	for i := range pattern {
		pattern[i] = byte(i)
	}
	_, _, err = buf.WriteAt(Cursor{}, pattern)
	require.NoError(t, err)

	var got []byte
	cur := Cursor{}
	for {
		data, next, err := buf.ReadAt(cur, 7)
		require.NoError(t, err)
		if len(data) == 0 {
			break
		}
		assert.Equal(t, cur.Position+uint64(len(data)), next.Position)
		got = append(got, data...)
		cur = next
	}
	assert.Equal(t, pattern, got)
	assert.Equal(t, uint64(capacity), cur.Position)
}

func TestZeroLengthRequests(t *testing.T) {
	buf, err := NewBoundedBuffer(16)
	require.NoError(t, err)

	data, cur, err := buf.ReadAt(Cursor{Position: 3}, 0)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, uint64(3), cur.Position)

	accepted, cur, err := buf.WriteAt(Cursor{Position: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, uint64(3), cur.Position)
}

func TestTransferFaultDoesNotAdvanceCursor(t *testing.T) {
	boom := errors.New("bad caller memory")
	failing := func(dst, src []byte) (int, error) { return 0, boom }

	buf, err := NewBoundedBuffer(32, WithCopier(failing))
	require.NoError(t, err)

	accepted, cur, err := buf.WriteAt(Cursor{}, []byte("data"))
	require.Error(t, err)
	assert.True(t, IsTransferFault(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, uint64(0), cur.Position)

	data, cur, err := buf.ReadAt(Cursor{}, 4)
	require.Error(t, err)
	assert.True(t, IsTransferFault(err))
	assert.Nil(t, data)
	assert.Equal(t, uint64(0), cur.Position)
}

func TestFailedWriteLeavesStorageUntouched(t *testing.T) {
	// The copier fails only on the second crossing, after the buffer holds
	// known content.
	calls := 0
	copier := func(dst, src []byte) (int, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("fault")
		}
		return copy(dst, src), nil
	}

	buf, err := NewBoundedBuffer(8, WithCopier(copier))
	require.NoError(t, err)
	_, _, err = buf.WriteAt(Cursor{}, []byte("original"))
	require.NoError(t, err)

	_, _, err = buf.WriteAt(Cursor{}, []byte("clobber!"))
	require.Error(t, err)

	data, _, err := buf.ReadAt(Cursor{}, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), data)
}

func TestShortCopyIsATransferFault(t *testing.T) {
	short := func(dst, src []byte) (int, error) {
		n := copy(dst, src)
		if n > 1 {
			n--
		}
		return n, nil
	}
	buf, err := NewBoundedBuffer(16, WithCopier(short))
	require.NoError(t, err)

	_, cur, err := buf.WriteAt(Cursor{}, []byte("abcd"))
	require.Error(t, err)
	assert.True(t, IsTransferFault(err))
	assert.Equal(t, uint64(0), cur.Position)
}
