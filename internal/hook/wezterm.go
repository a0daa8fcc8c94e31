package hook

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"nvg/internal/direction"
	"nvg/internal/procutil"
)

// WezTerm drives a real wezterm instance through its CLI, resolving
// the pane id and unix socket from the target process's WEZTERM_PANE
// and WEZTERM_UNIX_SOCKET environment variables (spec.md §4.3.5).
func WezTerm() Hook {
	return Hook{
		Name:       "wezterm",
		Detect:     detectWezTerm,
		CanMove:    weztermCanMove,
		MoveFocus:  weztermMoveFocus,
		MoveToEdge: weztermMoveToEdge,
	}
}

func detectWezTerm(pid int, comm, exe, argv0 string) int {
	if strings.Contains(comm, "wezterm") || strings.Contains(argv0, "wezterm") {
		return pid
	}
	return 0
}

func weztermPane(pid int) (paneID string, socket string, ok bool) {
	paneID, ok = procutil.PidEnv(pid, "WEZTERM_PANE")
	if !ok {
		return "", "", false
	}
	socket, _ = procutil.PidEnv(pid, "WEZTERM_UNIX_SOCKET")
	return paneID, socket, true
}

func weztermDirArg(dir direction.Direction) string {
	switch dir {
	case direction.Left:
		return "Left"
	case direction.Right:
		return "Right"
	case direction.Up:
		return "Up"
	case direction.Down:
		return "Down"
	default:
		return ""
	}
}

// weztermArgs builds the full argv for a wezterm cli invocation, split
// out from weztermRun so the argv shape is unit-testable without
// shelling out.
func weztermArgs(socket string, args ...string) []string {
	full := []string{"cli"}
	if socket != "" {
		full = append(full, "--unix-socket", socket)
	}
	return append(full, args...)
}

func weztermRun(socket string, timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "wezterm", weztermArgs(socket, args...)...).Output()
	return strings.TrimSpace(string(out)), err
}

func weztermCanMove(pid int, dir direction.Direction, timeout time.Duration) TriState {
	paneID, socket, ok := weztermPane(pid)
	if !ok {
		return Unknown
	}
	out, err := weztermRun(socket, timeout, "get-pane-direction", "--pane-id", paneID, weztermDirArg(dir))
	if err != nil {
		return Unknown
	}
	if out == "" {
		return No
	}
	return Yes
}

func weztermMoveFocus(pid int, dir direction.Direction, timeout time.Duration) {
	_, socket, ok := weztermPane(pid)
	if !ok {
		return
	}
	weztermRun(socket, timeout, "activate-pane-direction", weztermDirArg(dir))
}

// weztermMoveToEdge repeats moves, tracking the current pane id as it
// steps to each neighbour, per spec.md §4.3.5.
func weztermMoveToEdge(pid int, dir direction.Direction, timeout time.Duration) {
	paneID, socket, ok := weztermPane(pid)
	if !ok {
		return
	}
	for i := 0; i < moveToEdgeCap; i++ {
		neighbor, err := weztermRun(socket, timeout, "get-pane-direction", "--pane-id", paneID, weztermDirArg(dir))
		if err != nil || neighbor == "" {
			return
		}
		if _, err := weztermRun(socket, timeout, "activate-pane-direction", weztermDirArg(dir)); err != nil {
			return
		}
		paneID = neighbor
	}
}
