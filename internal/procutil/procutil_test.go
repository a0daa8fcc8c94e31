package procutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCommSelf(t *testing.T) {
	comm := ReadComm(os.Getpid())
	assert.NotEmpty(t, comm)
}

func TestReadArgv0Self(t *testing.T) {
	argv0 := ReadArgv0(os.Getpid())
	assert.NotEmpty(t, argv0)
}

func TestReadPPidSelf(t *testing.T) {
	ppid := ReadPPid(os.Getpid())
	assert.Equal(t, os.Getppid(), ppid)
}

func TestReadPPidDeadPid(t *testing.T) {
	// Pid 999999999 should not exist; a dead pid yields 0, silently.
	assert.Equal(t, 0, ReadPPid(999999999))
}

func TestReadExeUnreadableIsEmpty(t *testing.T) {
	assert.Equal(t, "", ReadExe(999999999))
}

func TestEnvValue(t *testing.T) {
	environ := []byte("FOO=bar\x00NVIM=/tmp/nvim.sock\x00")
	v, ok := EnvValue(environ, "NVIM")
	require.True(t, ok)
	assert.Equal(t, "/tmp/nvim.sock", v)

	_, ok = EnvValue(environ, "MISSING")
	assert.False(t, ok)
}

func TestChildrenOfDeadPidIsEmpty(t *testing.T) {
	assert.Empty(t, ChildrenOf(999999999))
}

func TestReadCmdlineSplitsOnNul(t *testing.T) {
	args := ReadCmdline(os.Getpid())
	assert.NotEmpty(t, args)
}
