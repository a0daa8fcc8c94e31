package msgpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildResponse hand-encodes a [1, msgid, error, result] frame for tests,
// independent of EncodeRequest (which only ever builds requests).
func buildResponse(msgid uint32, isErr bool, result uint64) []byte {
	buf := []byte{0x94} // fixarray, 4 elements
	buf = appendUint(buf, TypeResponse)
	buf = appendUint(buf, uint64(msgid))
	if isErr {
		buf = append(buf, 0xa3, 'b', 'a', 'd') // fixstr "bad"
	} else {
		buf = append(buf, 0xc0) // nil
	}
	buf = appendUint(buf, result)
	return buf
}

func TestDecodeResponseMismatchedMsgIdIsUnexpected(t *testing.T) {
	resp := buildResponse(7, false, 3)
	_, err := DecodeResponse(resp, 8)
	assert.ErrorIs(t, err, ErrUnexpectedMsgId)
}

func TestDecodeResponseMatchingMsgId(t *testing.T) {
	resp := buildResponse(7, false, 3)
	got, err := DecodeResponse(resp, 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got.MsgId)
	assert.Equal(t, uint64(3), got.Result)
	assert.False(t, got.IsErr)
}

func TestDecodeResponseErrorField(t *testing.T) {
	resp := buildResponse(1, true, 0)
	_, err := DecodeResponse(resp, 1)
	assert.ErrorIs(t, err, ErrRPCError)
}

func TestEncodeRequestFixstrVsStr8Boundary(t *testing.T) {
	short := make([]byte, 31)
	long := make([]byte, 32)
	for i := range short {
		short[i] = 'a'
	}
	for i := range long {
		long[i] = 'a'
	}

	reqShort := EncodeRequest(1, "nvim_eval", string(short))
	reqLong := EncodeRequest(1, "nvim_eval", string(long))

	// Locate the arg string header: it comes right after the fixarray(1)
	// marker for params, which itself follows the method fixstr.
	shortIdx := len(reqShort) - len(short) - 1
	longIdx := len(reqLong) - len(long) - 2

	assert.Equal(t, byte(0xa0|len(short)), reqShort[shortIdx], "31-byte arg must use fixstr")
	assert.Equal(t, byte(str8), reqLong[longIdx], "32-byte arg must switch to str8")
}

func TestReadUintFixintAndMarkers(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want uint64
	}{
		{"fixint", []byte{0x7f}, 0x7f},
		{"uint8", []byte{uint8Marker, 0xff}, 0xff},
		{"uint16", []byte{uint16Mark, 0x01, 0x00}, 256},
		{"uint32", []byte{uint32Mark, 0x00, 0x01, 0x00, 0x00}, 65536},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := &reader{buf: c.buf}
			got, err := r.readUint()
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestDecodeResponseShortBuffer(t *testing.T) {
	_, err := DecodeResponse([]byte{0x94, 0x01}, 1)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestEncodeRequestRoundTripShape(t *testing.T) {
	buf := EncodeRequest(42, "nvim_eval", "winnr('l')")
	require.NotEmpty(t, buf)
	assert.Equal(t, byte(fixarrayLo|4), buf[0])
}
