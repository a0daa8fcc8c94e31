package hook

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"nvg/internal/direction"
	"nvg/internal/procutil"
)

// Tmux drives a real tmux server through its CLI, resolving the
// server's socket from the target pane process's TMUX environment
// variable. spec.md §4.3.2 allows this to ship as a stub returning
// Unknown from CanMove; this is the working implementation, since the
// tmux binary and its `-S <socket>` addressing are both simple to
// drive correctly.
func Tmux() Hook {
	return Hook{
		Name:       "tmux",
		Detect:     detectTmux,
		CanMove:    tmuxCanMove,
		MoveFocus:  tmuxMoveFocus,
		MoveToEdge: tmuxMoveToEdge,
	}
}

func detectTmux(pid int, comm, exe, argv0 string) int {
	if strings.Contains(comm, "tmux") {
		return pid
	}
	return 0
}

// tmuxSocket resolves the -S path from the TMUX env var.
func tmuxSocket(pid int) (string, bool) {
	v, ok := procutil.PidEnv(pid, "TMUX")
	if !ok {
		return "", false
	}
	return parseTmuxEnvValue(v)
}

// parseTmuxEnvValue extracts the socket path from a TMUX env value of
// the shape "<socket_path>,<pid>,<session>".
func parseTmuxEnvValue(v string) (string, bool) {
	i := strings.IndexByte(v, ',')
	if i < 0 {
		return v, true
	}
	return v[:i], true
}

func tmuxEdgeVar(dir direction.Direction) string {
	switch dir {
	case direction.Left:
		return "#{pane_at_left}"
	case direction.Right:
		return "#{pane_at_right}"
	case direction.Up:
		return "#{pane_at_top}"
	case direction.Down:
		return "#{pane_at_bottom}"
	default:
		return ""
	}
}

func tmuxSelectFlag(dir direction.Direction) string {
	switch dir {
	case direction.Left:
		return "-L"
	case direction.Right:
		return "-R"
	case direction.Up:
		return "-U"
	case direction.Down:
		return "-D"
	default:
		return ""
	}
}

func tmuxRun(socket string, timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	full := append([]string{"-S", socket}, args...)
	out, err := exec.CommandContext(ctx, "tmux", full...).Output()
	return strings.TrimSpace(string(out)), err
}

func tmuxCanMove(pid int, dir direction.Direction, timeout time.Duration) TriState {
	socket, ok := tmuxSocket(pid)
	if !ok {
		return Unknown
	}
	out, err := tmuxRun(socket, timeout, "display-message", "-p", tmuxEdgeVar(dir))
	if err != nil {
		return Unknown
	}
	if out == "1" {
		return No
	}
	return Yes
}

func tmuxMoveFocus(pid int, dir direction.Direction, timeout time.Duration) {
	socket, ok := tmuxSocket(pid)
	if !ok {
		return
	}
	tmuxRun(socket, timeout, "select-pane", tmuxSelectFlag(dir))
}

func tmuxMoveToEdge(pid int, dir direction.Direction, timeout time.Duration) {
	socket, ok := tmuxSocket(pid)
	if !ok {
		return
	}
	for i := 0; i < moveToEdgeCap; i++ {
		out, err := tmuxRun(socket, timeout, "display-message", "-p", tmuxEdgeVar(dir))
		if err != nil || out == "1" {
			return
		}
		if _, err := tmuxRun(socket, timeout, "select-pane", tmuxSelectFlag(dir)); err != nil {
			return
		}
	}
}
