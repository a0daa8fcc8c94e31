package wayland

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPad4(t *testing.T) {
	assert.Equal(t, 0, pad4(0))
	assert.Equal(t, 4, pad4(1))
	assert.Equal(t, 4, pad4(4))
	assert.Equal(t, 8, pad4(5))
}

func TestStringRoundTrip(t *testing.T) {
	buf := AppendString(nil, "zwlr_foreign_toplevel_manager_v1")
	got, next, err := ReadString(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "zwlr_foreign_toplevel_manager_v1", got)
	assert.Equal(t, len(buf), next)
}

func TestEmptyStringRoundTrip(t *testing.T) {
	// AppendString("") still encodes length 1 (the NUL terminator alone),
	// which is the smallest legal Wayland string length.
	buf := AppendString(nil, "")
	got, next, err := ReadString(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "", got)
	assert.Equal(t, len(buf), next)
}

func TestReadStringZeroLengthIsProtocolError(t *testing.T) {
	buf := AppendUint32(nil, 0) // a length of 0 never occurs on the wire; the NUL alone makes 1 the minimum
	_, _, err := ReadString(buf, 0)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestArrayRoundTrip(t *testing.T) {
	data := []byte{2, 0, 0, 0} // wl_array of one uint32 state value: activated=2
	buf := AppendArray(nil, data)
	got, next, err := ReadArray(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, len(buf), next)
}

func TestReadStringShortBufferIsError(t *testing.T) {
	buf := AppendUint32(nil, 100) // claims 100 bytes but none follow
	_, _, err := ReadString(buf, 0)
	assert.Error(t, err)
}

func TestReadUint32Sequence(t *testing.T) {
	var buf []byte
	buf = AppendUint32(buf, 42)
	buf = AppendUint32(buf, 7)
	a, err := ReadUint32(buf, 0)
	require.NoError(t, err)
	b, err := ReadUint32(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), a)
	assert.Equal(t, uint32(7), b)
}
