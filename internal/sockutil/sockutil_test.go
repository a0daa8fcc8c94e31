package sockutil

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathRejectsEmpty(t *testing.T) {
	assert.ErrorIs(t, ValidatePath(""), ErrNoSocketPath)
}

func TestValidatePathRejectsTooLong(t *testing.T) {
	long := "/tmp/" + strings.Repeat("a", 200) + ".sock"
	assert.ErrorIs(t, ValidatePath(long), ErrSocketPathTooLong)
}

func TestValidatePathAccepts(t *testing.T) {
	assert.NoError(t, ValidatePath("/run/user/1000/i3-ipc.sock"))
}

func TestWriteAllReadExactRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	payload := []byte("i3-ipc-frame-payload")
	go func() {
		_ = WriteAll(client, payload)
	}()

	buf := make([]byte, len(payload))
	require.NoError(t, ReadExact(server, buf))
	assert.Equal(t, payload, buf)
}

func TestSetTimeoutsClearsDeadlineOnZero(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	require.NoError(t, SetTimeouts(client, 50*time.Millisecond))
	require.NoError(t, SetTimeouts(client, 0))
}
