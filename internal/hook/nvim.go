package hook

import (
	"strings"
	"time"

	"nvg/internal/direction"
	"nvg/internal/msgpack"
	"nvg/internal/procutil"
	"nvg/internal/sockutil"
)

// Nvim drives a real neovim instance over its msgpack-RPC unix socket,
// discovered from the target process's NVIM environment variable
// (spec.md §4.3.1).
func Nvim() Hook {
	return Hook{
		Name:       "nvim",
		Detect:     detectNvim,
		CanMove:    nvimCanMove,
		MoveFocus:  nvimMoveFocus,
		MoveToEdge: nvimMoveToEdge,
	}
}

// detectNvim matches argv[0], the exe basename or comm containing
// "nvim", excluding the nvim-qt helper (by argv[0] or comm). No other
// helper variant is excluded.
func detectNvim(pid int, comm, exe, argv0 string) int {
	if strings.Contains(argv0, "nvim-qt") || strings.Contains(comm, "nvim-qt") {
		return 0
	}
	if strings.Contains(argv0, "nvim") || strings.Contains(basename(exe), "nvim") || strings.Contains(comm, "nvim") {
		return pid
	}
	return 0
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// nvimSocket resolves the NVIM=<socket_path> environment variable from
// the target pid, per spec.md §4.3.1 ("env-derived only", no
// XDG_RUNTIME_DIR fallback scan).
func nvimSocket(pid int) (string, bool) {
	return procutil.PidEnv(pid, "NVIM")
}

// nvimCall dials the socket, sends one RPC and decodes its result as
// an unsigned integer. Any failure collapses to (0, false).
func nvimCall(socket string, timeout time.Duration, method, arg string) (uint64, bool) {
	conn, err := sockutil.Dial(socket, timeout)
	if err != nil {
		return 0, false
	}
	defer conn.Close()

	if err := sockutil.SetTimeouts(conn, timeout); err != nil {
		return 0, false
	}

	req := msgpack.EncodeRequest(1, method, arg)
	if err := sockutil.WriteAll(conn, req); err != nil {
		return 0, false
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return 0, false
	}

	resp, err := msgpack.DecodeResponse(buf[:n], 1)
	if err != nil {
		return 0, false
	}
	return resp.Result, true
}

func nvimCanMove(pid int, dir direction.Direction, timeout time.Duration) TriState {
	socket, ok := nvimSocket(pid)
	if !ok {
		return Unknown
	}

	current, ok := nvimCall(socket, timeout, "nvim_eval", "winnr()")
	if !ok {
		return Unknown
	}

	expr := "winnr('" + dir.VimKey() + "')"
	target, ok := nvimCall(socket, timeout, "nvim_eval", expr)
	if !ok {
		return Unknown
	}

	if target == current {
		return No
	}
	return Yes
}

func nvimMoveFocus(pid int, dir direction.Direction, timeout time.Duration) {
	socket, ok := nvimSocket(pid)
	if !ok {
		return
	}
	cmd := "wincmd " + dir.VimKey()
	nvimCall(socket, timeout, "nvim_command", cmd)
}

// nvimMoveToEdge repeats wincmd in the given direction up to a safety
// cap, the same repeat-with-cap strategy kitty and wezterm use (spec.md
// §4.3.1's design note).
func nvimMoveToEdge(pid int, dir direction.Direction, timeout time.Duration) {
	socket, ok := nvimSocket(pid)
	if !ok {
		return
	}
	cmd := "wincmd " + dir.VimKey()
	for i := 0; i < moveToEdgeCap; i++ {
		before, ok := nvimCall(socket, timeout, "nvim_eval", "winnr()")
		if !ok {
			return
		}
		nvimCall(socket, timeout, "nvim_command", cmd)
		after, ok := nvimCall(socket, timeout, "nvim_eval", "winnr()")
		if !ok || after == before {
			return
		}
	}
}
