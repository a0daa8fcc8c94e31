package detect

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nvg/internal/direction"
	"nvg/internal/hook"
)

// sleepHook matches any process whose comm is "sleep", the stand-in
// target this package's tests spawn as a real child process.
func sleepHook() hook.Hook {
	return hook.Hook{
		Name: "sleep",
		Detect: func(pid int, comm, exe, argv0 string) int {
			if comm == "sleep" {
				return pid
			}
			return 0
		},
		CanMove:    func(int, direction.Direction, time.Duration) hook.TriState { return hook.Unknown },
		MoveFocus:  func(int, direction.Direction, time.Duration) {},
		MoveToEdge: func(int, direction.Direction, time.Duration) {},
	}
}

func TestAllExcludesRootProcess(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	require.NoError(t, cmd.Start())
	defer cmd.Process.Kill()

	found := All(cmd.Process.Pid, []hook.Hook{sleepHook()})
	// cmd.Process.Pid is the sleep process itself, not its parent, so
	// walking its descendants should find nothing — this documents
	// that All only ever looks below its root, never at it.
	require.Empty(t, found)
}

func TestAllFindsChildOfCallingProcess(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	require.NoError(t, cmd.Start())
	defer cmd.Process.Kill()

	// Walk from our own pid; sleep is a direct child so depth is 1.
	found := All(os.Getpid(), []hook.Hook{sleepHook()})
	require.NotEmpty(t, found)
	for _, d := range found {
		if d.Pid == cmd.Process.Pid {
			require.Equal(t, 1, d.Depth)
			return
		}
	}
	t.Fatal("expected to find the spawned sleep process among descendants")
}

func TestAllTruncatesAtCapacity(t *testing.T) {
	matchAll := hook.Hook{
		Name:       "match-all",
		Detect:     func(pid int, comm, exe, argv0 string) int { return pid },
		CanMove:    func(int, direction.Direction, time.Duration) hook.TriState { return hook.Unknown },
		MoveFocus:  func(int, direction.Direction, time.Duration) {},
		MoveToEdge: func(int, direction.Direction, time.Duration) {},
	}
	found := All(os.Getpid(), []hook.Hook{matchAll})
	require.LessOrEqual(t, len(found), MaxDetected)
}
