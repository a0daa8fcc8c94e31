package hook

import (
	"strings"
	"time"

	"nvg/internal/direction"
)

// Ghostty is a detect-only stub, the same pattern as VSCode: ghostty
// has no scriptable IPC surface for split navigation at time of
// writing (spec.md §4.3.6).
func Ghostty() Hook {
	return Hook{
		Name:       "ghostty",
		Detect:     detectGhostty,
		CanMove:    func(int, direction.Direction, time.Duration) TriState { return Unknown },
		MoveFocus:  func(int, direction.Direction, time.Duration) {},
		MoveToEdge: func(int, direction.Direction, time.Duration) {},
	}
}

func detectGhostty(pid int, comm, exe, argv0 string) int {
	if strings.Contains(comm, "ghostty") || strings.Contains(basename(argv0), "ghostty") {
		return pid
	}
	return 0
}
