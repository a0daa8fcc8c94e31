package hook

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"nvg/internal/direction"
	"nvg/internal/procutil"
)

// Kitty drives a real kitty terminal through its remote-control CLI,
// resolving the --to socket from KITTY_LISTEN_ON and the focused window
// from KITTY_WINDOW_ID, both read from the target process's environment
// (spec.md §4.3.4).
func Kitty() Hook {
	return Hook{
		Name:       "kitty",
		Detect:     detectKitty,
		CanMove:    kittyCanMove,
		MoveFocus:  kittyMoveFocus,
		MoveToEdge: kittyMoveToEdge,
	}
}

// detectKitty matches processes named "kitty" but excludes "kitten",
// kitty's own CLI helper, which incidentally shares the prefix.
func detectKitty(pid int, comm, exe, argv0 string) int {
	if strings.Contains(comm, "kitten") || strings.Contains(argv0, "kitten") {
		return 0
	}
	if strings.Contains(comm, "kitty") || strings.Contains(argv0, "kitty") {
		return pid
	}
	return 0
}

// kittySocket and kittyWindowID read from the target process's environ,
// falling back to this process's own environment if that read fails
// (spec.md §4.3.4's "falls back to this process's own environment").
func kittySocket(pid int) (string, bool) {
	if v, ok := procutil.PidEnv(pid, "KITTY_LISTEN_ON"); ok {
		return v, true
	}
	v, ok := os.LookupEnv("KITTY_LISTEN_ON")
	return v, ok
}

func kittyWindowID(pid int) (int, bool) {
	v, ok := procutil.PidEnv(pid, "KITTY_WINDOW_ID")
	if !ok {
		v, ok = os.LookupEnv("KITTY_WINDOW_ID")
	}
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return id, true
}

type kittyWindow struct {
	Id        int  `json:"id"`
	IsFocused bool `json:"is_focused"`
	AtLeft    bool `json:"at_left"`
	AtRight   bool `json:"at_right"`
	AtTop     bool `json:"at_top"`
	AtBottom  bool `json:"at_bottom"`
}

type kittyTab struct {
	IsFocused bool          `json:"is_focused"`
	Windows   []kittyWindow `json:"windows"`
}

type kittyOSWindow struct {
	IsFocused bool       `json:"is_focused"`
	Tabs      []kittyTab `json:"tabs"`
}

// kittyFocusedWindow runs `kitten @ ls` and walks the focused OS-window
// -> focused tab -> the window whose id matches windowID, per spec.md
// §4.3.4.
func kittyFocusedWindow(socket string, windowID int, timeout time.Duration) (kittyWindow, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "kitten", "@", "ls", "--to", socket).Output()
	if err != nil {
		return kittyWindow{}, false
	}

	var osWindows []kittyOSWindow
	if err := json.Unmarshal(out, &osWindows); err != nil {
		return kittyWindow{}, false
	}
	for _, ow := range osWindows {
		if !ow.IsFocused {
			continue
		}
		for _, tab := range ow.Tabs {
			if !tab.IsFocused {
				continue
			}
			for _, w := range tab.Windows {
				if w.Id == windowID {
					return w, true
				}
			}
		}
	}
	return kittyWindow{}, false
}

func kittyAtEdge(w kittyWindow, dir direction.Direction) bool {
	switch dir {
	case direction.Left:
		return w.AtLeft
	case direction.Right:
		return w.AtRight
	case direction.Up:
		return w.AtTop
	case direction.Down:
		return w.AtBottom
	default:
		return true
	}
}

func kittyMoveArg(dir direction.Direction) string {
	switch dir {
	case direction.Left:
		return "left"
	case direction.Right:
		return "right"
	case direction.Up:
		return "top"
	case direction.Down:
		return "bottom"
	default:
		return ""
	}
}

func kittyCanMove(pid int, dir direction.Direction, timeout time.Duration) TriState {
	socket, ok := kittySocket(pid)
	if !ok {
		return Unknown
	}
	windowID, ok := kittyWindowID(pid)
	if !ok {
		return Unknown
	}
	w, ok := kittyFocusedWindow(socket, windowID, timeout)
	if !ok {
		return Unknown
	}
	if kittyAtEdge(w, dir) {
		return No
	}
	return Yes
}

// kittyFocusArgs builds the argv for kitty's documented move_focus wire
// contract: `kitten @ action --to <sock> neighboring_window <dir>`
// (spec.md §4.3.4). Split out from kittyMoveFocus so the exact argv
// shape is unit-testable without shelling out.
func kittyFocusArgs(socket string, dir direction.Direction) []string {
	return []string{"@", "action", "--to", socket, "neighboring_window", kittyMoveArg(dir)}
}

func kittyMoveFocus(pid int, dir direction.Direction, timeout time.Duration) {
	socket, ok := kittySocket(pid)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	exec.CommandContext(ctx, "kitten", kittyFocusArgs(socket, dir)...).Run()
}

func kittyMoveToEdge(pid int, dir direction.Direction, timeout time.Duration) {
	socket, ok := kittySocket(pid)
	if !ok {
		return
	}
	for i := 0; i < moveToEdgeCap; i++ {
		windowID, ok := kittyWindowID(pid)
		if !ok {
			return
		}
		w, ok := kittyFocusedWindow(socket, windowID, timeout)
		if !ok || kittyAtEdge(w, dir) {
			return
		}
		kittyMoveFocus(pid, dir, timeout)
	}
}
